package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// TickDedup abstracts the idempotency store (Redis) guarding scheduler work
// items against retried or overlapping ticks.
type TickDedup interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// SchedulerService processes time-based transitions: booking expiry, payment
// generation and overdue escalation, lease expiry. Every item goes through
// the same service pipeline as a user call, under the system actor; there is
// no special-cased write path. Conflict failures are skipped and picked up
// on the next tick with fresh state.
type SchedulerService struct {
	gw       ports.Gateway
	bookings ports.BookingService
	leases   ports.LeaseService
	payments ports.PaymentService
	coord    *Coordinator
	dedup    TickDedup
	log      zerolog.Logger
}

func NewSchedulerService(
	gw ports.Gateway,
	bookings ports.BookingService,
	leases ports.LeaseService,
	payments ports.PaymentService,
	coord *Coordinator,
	dedup TickDedup,
	log zerolog.Logger,
) *SchedulerService {
	return &SchedulerService{
		gw:       gw,
		bookings: bookings,
		leases:   leases,
		payments: payments,
		coord:    coord,
		dedup:    dedup,
		log:      log,
	}
}

// Tick runs one scheduler pass at the given instant.
func (s *SchedulerService) Tick(ctx context.Context, now time.Time) (ports.TickResult, error) {
	res := ports.TickResult{}

	s.expireBookings(ctx, now, &res)
	s.generatePayments(ctx, now, &res)
	s.escalateOverdue(ctx, now, &res)
	s.expireLeases(ctx, now, &res)

	s.log.Info().
		Int("bookings_expired", res.BookingsExpired).
		Int("payments_generated", res.PaymentsGenerated).
		Int("payments_overdue", res.PaymentsOverdue).
		Int("leases_expired", res.LeasesExpired).
		Int("conflicts", res.Conflicts).
		Time("tick", now).
		Msg("scheduler tick completed")
	return res, nil
}

func (s *SchedulerService) expireBookings(ctx context.Context, now time.Time, res *ports.TickResult) {
	due, err := s.gw.DueBookings(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: due bookings lookup failed")
		return
	}
	for _, b := range due {
		key := fmt.Sprintf("tick:booking:%s:expire", b.ID)
		if s.seen(ctx, key) {
			continue
		}
		if _, err := s.bookings.Expire(ctx, domain.SystemActor, b.ID); err != nil {
			s.handleItemErr(err, "booking expire", b.ID, key, res)
			continue
		}
		s.mark(ctx, key)
		res.BookingsExpired++
	}
}

func (s *SchedulerService) generatePayments(ctx context.Context, now time.Time, res *ports.TickResult) {
	active, err := s.gw.ListLeases(ctx, ports.LeaseFilter{Status: domain.LeaseActive})
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: active leases lookup failed")
		return
	}
	period := domain.PeriodFor(now)
	for _, l := range active {
		if now.Before(l.StartDate) || now.After(l.EndDate) {
			continue
		}
		existing, err := s.gw.PaymentByPeriod(ctx, l.ID, period)
		if err == nil && existing != nil {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Str("lease_id", l.ID).Msg("scheduler: payment lookup failed")
			continue
		}
		if _, err := s.coord.GeneratePayment(ctx, domain.SystemActor, l, period, now); err != nil {
			s.handleItemErr(err, "payment generate", l.ID, "", res)
			continue
		}
		res.PaymentsGenerated++
	}
}

func (s *SchedulerService) escalateOverdue(ctx context.Context, now time.Time, res *ports.TickResult) {
	overdue, err := s.gw.OverduePayments(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: overdue payments lookup failed")
		return
	}
	for _, p := range overdue {
		key := fmt.Sprintf("tick:payment:%s:mark_overdue", p.ID)
		if s.seen(ctx, key) {
			continue
		}
		if _, err := s.payments.MarkOverdue(ctx, domain.SystemActor, p.ID); err != nil {
			s.handleItemErr(err, "payment mark_overdue", p.ID, key, res)
			continue
		}
		s.mark(ctx, key)
		res.PaymentsOverdue++
	}
}

func (s *SchedulerService) expireLeases(ctx context.Context, now time.Time, res *ports.TickResult) {
	expired, err := s.gw.ExpiredLeases(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: expired leases lookup failed")
		return
	}
	for _, l := range expired {
		key := fmt.Sprintf("tick:lease:%s:expire", l.ID)
		if s.seen(ctx, key) {
			continue
		}
		if _, err := s.leases.Expire(ctx, domain.SystemActor, l.ID); err != nil {
			s.handleItemErr(err, "lease expire", l.ID, key, res)
			continue
		}
		s.mark(ctx, key)
		res.LeasesExpired++
	}
}

// handleItemErr classifies a per-item failure. Conflicts are expected under
// concurrent user activity and retried next tick; an invalid transition
// means another caller already moved the entity and the item is marked done.
func (s *SchedulerService) handleItemErr(err error, op, id, key string, res *ports.TickResult) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		res.Conflicts++
		s.log.Warn().Str("op", op).Str("id", id).Msg("scheduler: conflict, retrying next tick")
	case errors.Is(err, domain.ErrInvalidTransition):
		if key != "" {
			s.mark(context.Background(), key)
		}
		s.log.Debug().Str("op", op).Str("id", id).Msg("scheduler: entity already transitioned")
	default:
		s.log.Error().Err(err).Str("op", op).Str("id", id).Msg("scheduler: item failed")
	}
}

func (s *SchedulerService) seen(ctx context.Context, key string) bool {
	dup, err := s.dedup.Seen(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("scheduler: dedup check failed, processing anyway")
		return false
	}
	return dup
}

func (s *SchedulerService) mark(ctx context.Context, key string) {
	if err := s.dedup.Mark(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("scheduler: failed to set dedup key")
	}
}
