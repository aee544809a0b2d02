package api

import (
	"context"
	"time"

	"github.com/zsea1234/ZhiWU-sub000/internal/api/metrics"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// InstrumentScheduler wraps a Scheduler so every pass records the tick
// counters, whether it was raised by the background ticker or the admin
// endpoint.
func InstrumentScheduler(s ports.Scheduler) ports.Scheduler {
	return &instrumentedScheduler{inner: s}
}

type instrumentedScheduler struct {
	inner ports.Scheduler
}

func (s *instrumentedScheduler) Tick(ctx context.Context, now time.Time) (ports.TickResult, error) {
	start := time.Now()
	result, err := s.inner.Tick(ctx, now)
	metrics.SchedulerTickDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return result, err
	}

	metrics.SchedulerTicksTotal.Inc()
	metrics.SchedulerItemsTotal.WithLabelValues("booking_expired").Add(float64(result.BookingsExpired))
	metrics.SchedulerItemsTotal.WithLabelValues("payment_generated").Add(float64(result.PaymentsGenerated))
	metrics.SchedulerItemsTotal.WithLabelValues("payment_overdue").Add(float64(result.PaymentsOverdue))
	metrics.SchedulerItemsTotal.WithLabelValues("lease_expired").Add(float64(result.LeasesExpired))
	metrics.SchedulerItemsTotal.WithLabelValues("conflict").Add(float64(result.Conflicts))
	return result, nil
}
