package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// PaymentHandler handles HTTP requests for rent payment operations.
type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Get handles GET /v1/payments/:id.
func (h *PaymentHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	payment, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// Pay handles POST /v1/payments/:id/pay. The tenant starts (or retries)
// collection.
func (h *PaymentHandler) Pay(c echo.Context) error {
	return h.transition(c, domain.TransitionPaymentPay, h.service.Pay)
}

// Confirm handles POST /v1/payments/:id/confirm. A successful confirmation
// also clears the lease escalation flag when nothing else is overdue.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	return h.transition(c, domain.TransitionPaymentConfirm, h.service.Confirm)
}

// Fail handles POST /v1/payments/:id/fail.
func (h *PaymentHandler) Fail(c echo.Context) error {
	return h.transition(c, domain.TransitionPaymentFail, h.service.Fail)
}

// Refund handles POST /v1/payments/:id/refund.
func (h *PaymentHandler) Refund(c echo.Context) error {
	return h.transition(c, domain.TransitionPaymentRefund, h.service.Refund)
}

func (h *PaymentHandler) transition(c echo.Context, name string, op func(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error)) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	res, err := op(c.Request().Context(), actor, c.Param("id"))
	return transitionJSON(c, domain.EntityPayment, name, res, err)
}
