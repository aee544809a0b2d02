package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// BookingHandler handles HTTP requests for viewing-request operations.
type BookingHandler struct {
	service ports.BookingService
}

func NewBookingHandler(service ports.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	PropertyID  string    `json:"property_id"  validate:"required"`
	RequestedAt time.Time `json:"requested_at" validate:"required"`
	Note        string    `json:"note,omitempty"`
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	booking, err := h.service.Request(c.Request().Context(), actor, ports.CreateBookingInput{
		PropertyID:  req.PropertyID,
		RequestedAt: req.RequestedAt,
		Note:        req.Note,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, booking)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	booking, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, booking)
}

// List handles GET /v1/bookings, scoped to the caller's side of the requests.
func (h *BookingHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	bookings, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookings)
}

// Confirm handles POST /v1/bookings/:id/confirm. Confirmation also drafts the
// lease in the same commit.
func (h *BookingHandler) Confirm(c echo.Context) error {
	return h.transition(c, domain.TransitionBookingConfirm, h.service.Confirm)
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, domain.TransitionBookingCancel, h.service.Cancel)
}

// Complete handles POST /v1/bookings/:id/complete.
func (h *BookingHandler) Complete(c echo.Context) error {
	return h.transition(c, domain.TransitionBookingComplete, h.service.Complete)
}

func (h *BookingHandler) transition(c echo.Context, name string, op func(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error)) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	res, err := op(c.Request().Context(), actor, c.Param("id"))
	return transitionJSON(c, domain.EntityBooking, name, res, err)
}
