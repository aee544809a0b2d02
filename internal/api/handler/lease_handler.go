package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// LeaseHandler handles HTTP requests for lease operations.
type LeaseHandler struct {
	service ports.LeaseService
}

func NewLeaseHandler(service ports.LeaseService) *LeaseHandler {
	return &LeaseHandler{service: service}
}

type draftLeaseRequest struct {
	PropertyID    string    `json:"property_id"     validate:"required"`
	TenantID      string    `json:"tenant_id"       validate:"required"`
	StartDate     time.Time `json:"start_date"      validate:"required"`
	EndDate       time.Time `json:"end_date"        validate:"required"`
	MonthlyRent   float64   `json:"monthly_rent"    validate:"required,gt=0"`
	Deposit       float64   `json:"deposit"         validate:"gte=0"`
	PaymentDueDay int       `json:"payment_due_day" validate:"required,min=1,max=28"`
}

type finalizeLeaseRequest struct {
	StartDate     time.Time `json:"start_date"      validate:"required"`
	EndDate       time.Time `json:"end_date"        validate:"required"`
	MonthlyRent   float64   `json:"monthly_rent"    validate:"required,gt=0"`
	Deposit       float64   `json:"deposit"         validate:"gte=0"`
	PaymentDueDay int       `json:"payment_due_day" validate:"required,min=1,max=28"`
}

type terminateLeaseRequest struct {
	Reason string    `json:"reason" validate:"required"`
	At     time.Time `json:"at"     validate:"required"`
}

// Create handles POST /v1/leases, a staff-drafted lease without a booking.
func (h *LeaseHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req draftLeaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lease, err := h.service.Draft(c.Request().Context(), actor, ports.DraftLeaseInput{
		PropertyID:    req.PropertyID,
		TenantID:      req.TenantID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		MonthlyRent:   req.MonthlyRent,
		Deposit:       req.Deposit,
		PaymentDueDay: req.PaymentDueDay,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, lease)
}

// Get handles GET /v1/leases/:id.
func (h *LeaseHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	lease, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lease)
}

// List handles GET /v1/leases, scoped to the caller's side of the contracts.
func (h *LeaseHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	leases, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leases)
}

// Finalize handles POST /v1/leases/:id/finalize: terms are fixed and the
// draft goes out for signatures.
func (h *LeaseHandler) Finalize(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req finalizeLeaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Finalize(c.Request().Context(), actor, c.Param("id"), ports.LeaseTermsInput{
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		MonthlyRent:   req.MonthlyRent,
		Deposit:       req.Deposit,
		PaymentDueDay: req.PaymentDueDay,
	})
	return transitionJSON(c, domain.EntityLease, domain.TransitionLeaseFinalize, res, err)
}

// Sign handles POST /v1/leases/:id/sign. The tenant signs first; the landlord
// signature activates the lease, locks the property and generates the first
// payment in one commit.
func (h *LeaseHandler) Sign(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	res, err := h.service.Sign(c.Request().Context(), actor, c.Param("id"))
	return transitionJSON(c, domain.EntityLease, domain.TransitionLeaseSign, res, err)
}

// Terminate handles POST /v1/leases/:id/terminate.
func (h *LeaseHandler) Terminate(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req terminateLeaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Terminate(c.Request().Context(), actor, c.Param("id"), ports.TerminateLeaseInput{
		Reason: req.Reason,
		At:     req.At,
	})
	return transitionJSON(c, domain.EntityLease, domain.TransitionLeaseTerminate, res, err)
}

// Payments handles GET /v1/leases/:id/payments.
func (h *LeaseHandler) Payments(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	payments, err := h.service.Payments(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}
