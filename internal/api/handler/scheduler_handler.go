package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// SchedulerHandler triggers a scheduler pass on demand. Routes are admin-only;
// the background ticker uses the same Scheduler directly.
type SchedulerHandler struct {
	scheduler ports.Scheduler
}

func NewSchedulerHandler(scheduler ports.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

type tickResponse struct {
	BookingsExpired   int `json:"bookings_expired"`
	PaymentsGenerated int `json:"payments_generated"`
	PaymentsOverdue   int `json:"payments_overdue"`
	LeasesExpired     int `json:"leases_expired"`
	Conflicts         int `json:"conflicts"`
}

// Tick handles POST /v1/scheduler/tick.
func (h *SchedulerHandler) Tick(c echo.Context) error {
	result, err := h.scheduler.Tick(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickResponse{
		BookingsExpired:   result.BookingsExpired,
		PaymentsGenerated: result.PaymentsGenerated,
		PaymentsOverdue:   result.PaymentsOverdue,
		LeasesExpired:     result.LeasesExpired,
		Conflicts:         result.Conflicts,
	})
}
