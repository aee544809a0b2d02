package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

func newSchedulerFixture() (*stubGateway, *memDedup, *SchedulerService) {
	gw := newStubGateway()
	disp := &stubDispatcher{}
	dedup := newMemDedup()
	guard := NewGuard()
	coord := NewCoordinator(gw, discardLogger)

	bookings := NewBookingService(gw, guard, coord, disp, discardLogger)
	leases := NewLeaseService(gw, guard, coord, disp, discardLogger)
	payments := NewPaymentService(gw, guard, coord, disp, discardLogger)

	sched := NewSchedulerService(gw, bookings, leases, payments, coord, dedup, discardLogger)
	return gw, dedup, sched
}

func TestScheduler_ExpiresDueBookings(t *testing.T) {
	gw, _, sched := newSchedulerFixture()
	now := time.Now().UTC()

	b := pendingBooking("book_1", "prop_1")
	b.RequestedAt = now.Add(-2 * time.Hour)
	gw.seedBooking(b)

	res, err := sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BookingsExpired != 1 {
		t.Errorf("expected 1 expired booking, got %d", res.BookingsExpired)
	}

	stored, _, _ := gw.LoadBooking(context.Background(), "book_1")
	if stored.Status != domain.BookingExpired {
		t.Errorf("expected %q, got %q", domain.BookingExpired, stored.Status)
	}
}

func TestScheduler_GeneratesMonthlyPayment(t *testing.T) {
	gw, _, sched := newSchedulerFixture()
	now := time.Now().UTC()

	gw.seedLease(activeLease("lease_1", "prop_1"))

	res, err := sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PaymentsGenerated != 1 {
		t.Fatalf("expected 1 generated payment, got %d", res.PaymentsGenerated)
	}

	p, err := gw.PaymentByPeriod(context.Background(), "lease_1", domain.PeriodFor(now))
	if err != nil {
		t.Fatalf("payment lookup failed: %v", err)
	}
	if p.Amount != 900 {
		t.Errorf("payment amount must match the lease rent, got %v", p.Amount)
	}
	if p.Status != domain.PaymentPending {
		t.Errorf("expected %q, got %q", domain.PaymentPending, p.Status)
	}

	// A second tick in the same cycle generates nothing.
	res, err = sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PaymentsGenerated != 0 {
		t.Errorf("payment generation must be idempotent per cycle, got %d", res.PaymentsGenerated)
	}
}

func TestScheduler_SkipsLeaseOutsideTerm(t *testing.T) {
	gw, _, sched := newSchedulerFixture()
	now := time.Now().UTC()

	l := activeLease("lease_1", "prop_1")
	l.StartDate = now.AddDate(0, 2, 0)
	l.EndDate = now.AddDate(1, 2, 0)
	gw.seedLease(l)

	res, err := sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PaymentsGenerated != 0 {
		t.Errorf("no payment may be generated before the term starts, got %d", res.PaymentsGenerated)
	}
}

func TestScheduler_EscalatesOverduePayments(t *testing.T) {
	gw, _, sched := newSchedulerFixture()
	now := time.Now().UTC()

	gw.seedLease(activeLease("lease_1", "prop_1"))
	gw.seedPayment(pendingPayment("pay_1", "lease_1", now.AddDate(0, 0, -3)))

	res, err := sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PaymentsOverdue != 1 {
		t.Errorf("expected 1 overdue escalation, got %d", res.PaymentsOverdue)
	}

	lease, _, _ := gw.LoadLease(context.Background(), "lease_1")
	if !lease.PaymentDue {
		t.Error("lease escalation flag must be raised")
	}
}

func TestScheduler_ExpiresEndedLeases(t *testing.T) {
	gw, _, sched := newSchedulerFixture()
	now := time.Now().UTC()

	prop := vacantProperty("prop_1")
	prop.Availability = domain.PropertyRented
	gw.seedProperty(prop)

	l := activeLease("lease_1", "prop_1")
	l.StartDate = now.AddDate(-1, 0, 0)
	l.EndDate = now.AddDate(0, 0, -1)
	gw.seedLease(l)

	res, err := sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LeasesExpired != 1 {
		t.Errorf("expected 1 expired lease, got %d", res.LeasesExpired)
	}

	lease, _, _ := gw.LoadLease(context.Background(), "lease_1")
	if lease.Status != domain.LeaseExpired {
		t.Errorf("expected %q, got %q", domain.LeaseExpired, lease.Status)
	}
	stored, _, _ := gw.LoadProperty(context.Background(), "prop_1")
	if stored.Availability != domain.PropertyVacant {
		t.Errorf("property must be released on expiry, got %q", stored.Availability)
	}
}

func TestScheduler_DedupSkipsProcessedItems(t *testing.T) {
	gw, dedup, sched := newSchedulerFixture()
	now := time.Now().UTC()

	b := pendingBooking("book_1", "prop_1")
	b.RequestedAt = now.Add(-2 * time.Hour)
	gw.seedBooking(b)

	dedup.keys["tick:booking:book_1:expire"] = true

	res, err := sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BookingsExpired != 0 {
		t.Errorf("a marked item must be skipped, got %d", res.BookingsExpired)
	}
	stored, _, _ := gw.LoadBooking(context.Background(), "book_1")
	if stored.Status != domain.BookingPendingConfirmation {
		t.Errorf("booking must be untouched, got %q", stored.Status)
	}
}

func TestScheduler_ConflictRetriedNextTick(t *testing.T) {
	gw, dedup, sched := newSchedulerFixture()
	now := time.Now().UTC()

	b := pendingBooking("book_1", "prop_1")
	b.RequestedAt = now.Add(-2 * time.Hour)
	gw.seedBooking(b)

	gw.commitErr = fmt.Errorf("%w: simulated write race", domain.ErrConflict)
	res, err := sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Conflicts != 1 {
		t.Errorf("expected 1 conflict, got %d", res.Conflicts)
	}
	if res.BookingsExpired != 0 {
		t.Errorf("a conflicted item must not count as done, got %d", res.BookingsExpired)
	}
	if dedup.keys["tick:booking:book_1:expire"] {
		t.Error("a conflicted item must not be marked processed")
	}

	// The next tick picks it up with fresh state.
	gw.commitErr = nil
	res, err = sched.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BookingsExpired != 1 {
		t.Errorf("expected retry to succeed, got %d", res.BookingsExpired)
	}
}
