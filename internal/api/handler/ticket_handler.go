package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// TicketHandler handles HTTP requests for maintenance ticket operations.
type TicketHandler struct {
	service ports.TicketService
}

func NewTicketHandler(service ports.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

type openTicketRequest struct {
	PropertyID  string `json:"property_id" validate:"required"`
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description,omitempty"`
}

type assignWorkerRequest struct {
	Name    string `json:"name"    validate:"required"`
	Contact string `json:"contact" validate:"required"`
}

type closeTicketRequest struct {
	Notes string `json:"notes" validate:"required"`
}

// Create handles POST /v1/tickets. The caller must hold an active lease on
// the property.
func (h *TicketHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req openTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ticket, err := h.service.Open(c.Request().Context(), actor, ports.OpenTicketInput{
		PropertyID:  req.PropertyID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ticket)
}

// Get handles GET /v1/tickets/:id.
func (h *TicketHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ticket)
}

// List handles GET /v1/tickets, scoped to the caller's side of the requests.
func (h *TicketHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	tickets, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tickets)
}

// Assign handles POST /v1/tickets/:id/assign.
func (h *TicketHandler) Assign(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req assignWorkerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Assign(c.Request().Context(), actor, c.Param("id"), ports.AssignWorkerInput{
		Name:    req.Name,
		Contact: req.Contact,
	})
	return transitionJSON(c, domain.EntityTicket, domain.TransitionTicketAssign, res, err)
}

// Start handles POST /v1/tickets/:id/start.
func (h *TicketHandler) Start(c echo.Context) error {
	return h.transition(c, domain.TransitionTicketStart, h.service.Start)
}

// Complete handles POST /v1/tickets/:id/complete.
func (h *TicketHandler) Complete(c echo.Context) error {
	return h.transition(c, domain.TransitionTicketComplete, h.service.Complete)
}

// Cancel handles POST /v1/tickets/:id/cancel.
func (h *TicketHandler) Cancel(c echo.Context) error {
	return h.transition(c, domain.TransitionTicketCancel, h.service.Cancel)
}

// Close handles POST /v1/tickets/:id/close with mandatory resolution notes.
func (h *TicketHandler) Close(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req closeTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Close(c.Request().Context(), actor, c.Param("id"), req.Notes)
	return transitionJSON(c, domain.EntityTicket, domain.TransitionTicketClose, res, err)
}

func (h *TicketHandler) transition(c echo.Context, name string, op func(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error)) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	res, err := op(c.Request().Context(), actor, c.Param("id"))
	return transitionJSON(c, domain.EntityTicket, name, res, err)
}
