package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// PaymentService runs the payment lifecycle. Settlement and overdue
// escalation go through the coordinator because they touch the lease.
type PaymentService struct {
	gw     ports.Gateway
	guard  *Guard
	coord  *Coordinator
	notify ports.NotificationDispatcher
	log    zerolog.Logger
}

func NewPaymentService(gw ports.Gateway, guard *Guard, coord *Coordinator, notify ports.NotificationDispatcher, log zerolog.Logger) *PaymentService {
	return &PaymentService{gw: gw, guard: guard, coord: coord, notify: notify, log: log}
}

// Get returns a payment visible to the actor.
func (s *PaymentService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error) {
	payment, _, err := s.gw.LoadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	lease, _, err := s.gw.LoadLease(ctx, payment.LeaseID)
	if err != nil {
		return nil, err
	}
	if !s.guard.CanRead(actor, Ownership{TenantID: lease.TenantID, LandlordID: lease.LandlordID}) {
		return nil, fmt.Errorf("%w: payment is not visible to actor", domain.ErrUnauthorized)
	}
	return payment, nil
}

// Pay starts (or retries) collection of a pending or failed payment.
func (s *PaymentService) Pay(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	payment, version, lease, err := s.loadWithLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityPayment, domain.TransitionPaymentPay, Ownership{TenantID: lease.TenantID}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := payment.Status
	if err := payment.StartProcessing(now); err != nil {
		return nil, err
	}
	return s.commit(ctx, payment, version, domain.TransitionPaymentPay, from, actor, now)
}

// Confirm records gateway confirmation; the coordinator clears the lease
// escalation flag when nothing else is overdue.
func (s *PaymentService) Confirm(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	payment, version, err := s.gw.LoadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityPayment, domain.TransitionPaymentConfirm, Ownership{}); err != nil {
		return nil, err
	}

	events, err := s.coord.SettlePayment(ctx, actor, payment, version, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.notify.Enqueue(events...)
	return &ports.TransitionResult{State: string(payment.Status), Events: events}, nil
}

// Fail records a gateway failure; the payment may retry via Pay.
func (s *PaymentService) Fail(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	payment, version, err := s.gw.LoadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityPayment, domain.TransitionPaymentFail, Ownership{}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := payment.Status
	if err := payment.MarkFailed(now); err != nil {
		return nil, err
	}
	return s.commit(ctx, payment, version, domain.TransitionPaymentFail, from, actor, now)
}

// Refund reverses a successful payment. Admin only.
func (s *PaymentService) Refund(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	payment, version, err := s.gw.LoadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityPayment, domain.TransitionPaymentRefund, Ownership{}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := payment.Status
	if err := payment.Refund(now); err != nil {
		return nil, err
	}
	return s.commit(ctx, payment, version, domain.TransitionPaymentRefund, from, actor, now)
}

// MarkOverdue raises the lease escalation flag for an unpaid payment past
// its due date. Re-raising for further overdue cycles is a no-op.
func (s *PaymentService) MarkOverdue(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	payment, _, err := s.gw.LoadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityPayment, domain.TransitionPaymentMarkOverdue, Ownership{}); err != nil {
		return nil, err
	}

	events, err := s.coord.MarkPaymentOverdue(ctx, actor, payment, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.notify.Enqueue(events...)
	return &ports.TransitionResult{State: string(payment.Status), Events: events}, nil
}

func (s *PaymentService) loadWithLease(ctx context.Context, id string) (*domain.Payment, int64, *domain.Lease, error) {
	payment, version, err := s.gw.LoadPayment(ctx, id)
	if err != nil {
		return nil, 0, nil, err
	}
	lease, _, err := s.gw.LoadLease(ctx, payment.LeaseID)
	if err != nil {
		return nil, 0, nil, err
	}
	return payment, version, lease, nil
}

func (s *PaymentService) commit(ctx context.Context, payment *domain.Payment, version int64, transition string, from domain.PaymentStatus, actor domain.Actor, now time.Time) (*ports.TransitionResult, error) {
	tx := &ports.Tx{}
	tx.Put(domain.EntityPayment, payment.ID, version, payment)
	tx.Emit(domain.NewTransitionEvent(domain.EntityPayment, payment.ID, transition, string(from), string(payment.Status), actor, now))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("payment %s: %w", transition, err)
	}
	s.notify.Enqueue(tx.Events...)
	return &ports.TransitionResult{State: string(payment.Status), Events: tx.Events}, nil
}
