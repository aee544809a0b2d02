package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// PropertyHandler handles HTTP requests for property operations.
type PropertyHandler struct {
	service ports.PropertyService
}

func NewPropertyHandler(service ports.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

type createPropertyRequest struct {
	Title       string  `json:"title"        validate:"required"`
	Address     string  `json:"address"      validate:"required"`
	City        string  `json:"city"         validate:"required"`
	MonthlyRent float64 `json:"monthly_rent" validate:"required,gt=0"`
}

// Create handles POST /v1/properties.
func (h *PropertyHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createPropertyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	property, err := h.service.Create(c.Request().Context(), actor, ports.CreatePropertyInput{
		Title:       req.Title,
		Address:     req.Address,
		City:        req.City,
		MonthlyRent: req.MonthlyRent,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, property)
}

// Get handles GET /v1/properties/:id.
func (h *PropertyHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	property, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, property)
}

// List handles GET /v1/properties. Landlords see their own listings, tenants
// see verified ones, admins see everything.
func (h *PropertyHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	properties, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, properties)
}

// Verify handles POST /v1/properties/:id/verify.
func (h *PropertyHandler) Verify(c echo.Context) error {
	return h.transition(c, domain.TransitionPropertyVerify, h.service.Verify)
}

// Delist handles POST /v1/properties/:id/delist.
func (h *PropertyHandler) Delist(c echo.Context) error {
	return h.transition(c, domain.TransitionPropertyDelist, h.service.Delist)
}

// Relist handles POST /v1/properties/:id/relist.
func (h *PropertyHandler) Relist(c echo.Context) error {
	return h.transition(c, domain.TransitionPropertyRelist, h.service.Relist)
}

// BeginMaintenance handles POST /v1/properties/:id/begin-maintenance.
func (h *PropertyHandler) BeginMaintenance(c echo.Context) error {
	return h.transition(c, domain.TransitionPropertyBeginMaintenance, h.service.BeginMaintenance)
}

// EndMaintenance handles POST /v1/properties/:id/end-maintenance.
func (h *PropertyHandler) EndMaintenance(c echo.Context) error {
	return h.transition(c, domain.TransitionPropertyEndMaintenance, h.service.EndMaintenance)
}

func (h *PropertyHandler) transition(c echo.Context, name string, op func(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error)) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	res, err := op(c.Request().Context(), actor, c.Param("id"))
	return transitionJSON(c, domain.EntityProperty, name, res, err)
}
