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

// Coordinator applies transitions whose side effects span entities. Each
// operation builds a single gateway transaction so partial application
// (property locked while the lease stayed draft, and the like) cannot occur:
// the writes all land under their expected versions or none do.
type Coordinator struct {
	gw  ports.Gateway
	log zerolog.Logger
}

// NewCoordinator returns a Coordinator over the given gateway.
func NewCoordinator(gw ports.Gateway, log zerolog.Logger) *Coordinator {
	return &Coordinator{gw: gw, log: log}
}

// ConfirmBooking confirms the booking and spawns a draft lease in one commit.
// Lease terms default from the property listing and are fixed later at
// finalization.
func (c *Coordinator) ConfirmBooking(ctx context.Context, actor domain.Actor, booking *domain.Booking, version int64, now time.Time) (*domain.Lease, []*domain.TransitionEvent, error) {
	from := booking.Status
	if err := booking.Confirm(now); err != nil {
		return nil, nil, err
	}

	prop, _, err := c.gw.LoadProperty(ctx, booking.PropertyID)
	if err != nil {
		return nil, nil, fmt.Errorf("confirm booking: %w", err)
	}

	lease := &domain.Lease{
		ID:          domain.NewID(),
		BookingID:   booking.ID,
		PropertyID:  booking.PropertyID,
		TenantID:    booking.TenantID,
		LandlordID:  booking.LandlordID,
		MonthlyRent: prop.MonthlyRent,
		Status:      domain.LeaseDraft,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityBooking, booking.ID, version, booking)
	tx.Put(domain.EntityLease, lease.ID, 0, lease)
	tx.Emit(
		domain.NewTransitionEvent(domain.EntityBooking, booking.ID, domain.TransitionBookingConfirm, string(from), string(booking.Status), actor, now),
		domain.NewTransitionEvent(domain.EntityLease, lease.ID, domain.TransitionLeaseDraft, "", string(domain.LeaseDraft), actor, now),
	)

	if err := c.gw.Commit(ctx, tx); err != nil {
		return nil, nil, fmt.Errorf("confirm booking: %w", err)
	}
	c.log.Info().Str("booking_id", booking.ID).Str("lease_id", lease.ID).Msg("booking confirmed, draft lease created")
	return lease, tx.Events, nil
}

// ActivateLease completes the landlord signature: lease goes active, the
// property locks to rented, and the first billing-cycle payment is generated,
// all in one commit. The one-active-lease invariant is re-checked here and
// again by the store's uniqueness constraint inside the same version-guarded
// write, so two racing activations cannot both land.
func (c *Coordinator) ActivateLease(ctx context.Context, actor domain.Actor, lease *domain.Lease, version int64, now time.Time) ([]*domain.TransitionEvent, error) {
	// Legality first: a lease that already left pending_landlord_signature is
	// a permanent InvalidTransition, never a retryable Conflict.
	from := lease.Status
	if err := lease.SignLandlord(now); err != nil {
		return nil, err
	}

	if _, _, err := c.gw.ActiveLeaseByProperty(ctx, lease.PropertyID); err == nil {
		return nil, fmt.Errorf("%w: property %s already has an active lease", domain.ErrConflict, lease.PropertyID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("activate lease: %w", err)
	}

	prop, propVersion, err := c.gw.LoadProperty(ctx, lease.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("activate lease: %w", err)
	}

	if err := prop.Lock(now); err != nil {
		return nil, err
	}
	payment := c.newPayment(lease, domain.PeriodFor(lease.StartDate), now)

	tx := &ports.Tx{}
	tx.Put(domain.EntityLease, lease.ID, version, lease)
	tx.Put(domain.EntityProperty, prop.ID, propVersion, prop)
	tx.Put(domain.EntityPayment, payment.ID, 0, payment)
	tx.Emit(
		domain.NewTransitionEvent(domain.EntityLease, lease.ID, domain.TransitionLeaseSign, string(from), string(lease.Status), actor, now),
		domain.NewTransitionEvent(domain.EntityProperty, prop.ID, domain.TransitionPropertyLock, string(domain.PropertyVacant), string(prop.Availability), actor, now),
		domain.NewTransitionEvent(domain.EntityPayment, payment.ID, domain.TransitionPaymentGenerate, "", string(payment.Status), actor, now).WithNote(payment.Period),
	)

	if err := c.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("activate lease: %w", err)
	}
	c.log.Info().
		Str("lease_id", lease.ID).
		Str("property_id", prop.ID).
		Str("payment_id", payment.ID).
		Msg("lease activated, property locked, first payment generated")
	return tx.Events, nil
}

// EndLease terminates or expires an active lease and releases the property.
// The property stays rented when another active lease (a renewal) already
// references it.
func (c *Coordinator) EndLease(ctx context.Context, actor domain.Actor, lease *domain.Lease, version int64, input ports.TerminateLeaseInput, expire bool, now time.Time) ([]*domain.TransitionEvent, error) {
	from := lease.Status
	transition := domain.TransitionLeaseTerminate
	note := input.Reason
	if expire {
		transition = domain.TransitionLeaseExpire
		note = ""
		if err := lease.Expire(now); err != nil {
			return nil, err
		}
	} else {
		if err := lease.Terminate(input.Reason, input.At, now); err != nil {
			return nil, err
		}
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityLease, lease.ID, version, lease)
	tx.Emit(domain.NewTransitionEvent(domain.EntityLease, lease.ID, transition, string(from), string(lease.Status), actor, now).WithNote(note))

	replacement, _, err := c.gw.ActiveLeaseByProperty(ctx, lease.PropertyID)
	switch {
	case err == nil && replacement.ID != lease.ID:
		// Renewal already active; the property stays rented.
	case err == nil || errors.Is(err, domain.ErrNotFound):
		prop, propVersion, perr := c.gw.LoadProperty(ctx, lease.PropertyID)
		if perr != nil {
			return nil, fmt.Errorf("end lease: %w", perr)
		}
		if prop.Availability == domain.PropertyRented {
			if rerr := prop.Release(now); rerr != nil {
				return nil, rerr
			}
			tx.Put(domain.EntityProperty, prop.ID, propVersion, prop)
			tx.Emit(domain.NewTransitionEvent(domain.EntityProperty, prop.ID, domain.TransitionPropertyRelease, string(domain.PropertyRented), string(prop.Availability), actor, now))
		}
	default:
		return nil, fmt.Errorf("end lease: %w", err)
	}

	if err := c.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("end lease: %w", err)
	}
	c.log.Info().Str("lease_id", lease.ID).Str("transition", transition).Msg("lease ended")
	return tx.Events, nil
}

// GeneratePayment creates the payment row for one billing cycle of an active
// lease. Generation is idempotent on the natural key (lease, period): an
// existing row is returned untouched and no event is emitted.
func (c *Coordinator) GeneratePayment(ctx context.Context, actor domain.Actor, lease *domain.Lease, period string, now time.Time) (*domain.Payment, error) {
	if lease.Status != domain.LeaseActive {
		return nil, fmt.Errorf("%w: payments are generated only for an active lease", domain.ErrInvalidTransition)
	}
	existing, err := c.gw.PaymentByPeriod(ctx, lease.ID, period)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("generate payment: %w", err)
	}

	payment := c.newPayment(lease, period, now)
	tx := &ports.Tx{}
	tx.Put(domain.EntityPayment, payment.ID, 0, payment)
	tx.Emit(domain.NewTransitionEvent(domain.EntityPayment, payment.ID, domain.TransitionPaymentGenerate, "", string(payment.Status), actor, now).WithNote(period))

	if err := c.gw.Commit(ctx, tx); err != nil {
		// A racing generator inserted the same period first; surface its row.
		if errors.Is(err, domain.ErrConflict) {
			if existing, lerr := c.gw.PaymentByPeriod(ctx, lease.ID, period); lerr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("generate payment: %w", err)
	}
	return payment, nil
}

// MarkPaymentOverdue raises the lease-level escalation flag for a payment
// past its due date. The payment's own status is deliberately unchanged: the
// consequence of non-payment is lease-level, and the flag is boolean no
// matter how many cycles are overdue.
func (c *Coordinator) MarkPaymentOverdue(ctx context.Context, actor domain.Actor, payment *domain.Payment, now time.Time) ([]*domain.TransitionEvent, error) {
	if !payment.Overdue(now) {
		return nil, fmt.Errorf("%w: payment %s is not overdue", domain.ErrValidation, payment.ID)
	}

	lease, leaseVersion, err := c.gw.LoadLease(ctx, payment.LeaseID)
	if err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	if lease.Status != domain.LeaseActive {
		return nil, fmt.Errorf("%w: lease %s is not active", domain.ErrInvalidTransition, lease.ID)
	}
	if lease.PaymentDue {
		// Flag already raised by another overdue cycle.
		return nil, nil
	}

	lease.PaymentDue = true
	lease.UpdatedAt = now.UTC()

	tx := &ports.Tx{}
	tx.Put(domain.EntityLease, lease.ID, leaseVersion, lease)
	tx.Emit(domain.NewTransitionEvent(domain.EntityPayment, payment.ID, domain.TransitionPaymentMarkOverdue, string(payment.Status), string(payment.Status), actor, now).WithNote(payment.Period))

	if err := c.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	c.log.Info().Str("lease_id", lease.ID).Str("payment_id", payment.ID).Msg("payment overdue, lease flagged")
	return tx.Events, nil
}

// SettlePayment records gateway confirmation of a processing payment and
// clears the lease escalation flag when no other cycle remains overdue.
func (c *Coordinator) SettlePayment(ctx context.Context, actor domain.Actor, payment *domain.Payment, version int64, now time.Time) ([]*domain.TransitionEvent, error) {
	from := payment.Status
	if err := payment.MarkSuccessful(now); err != nil {
		return nil, err
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityPayment, payment.ID, version, payment)
	tx.Emit(domain.NewTransitionEvent(domain.EntityPayment, payment.ID, domain.TransitionPaymentConfirm, string(from), string(payment.Status), actor, now))

	lease, leaseVersion, err := c.gw.LoadLease(ctx, payment.LeaseID)
	if err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	if lease.PaymentDue {
		others, err := c.gw.PaymentsByLease(ctx, lease.ID)
		if err != nil {
			return nil, fmt.Errorf("settle payment: %w", err)
		}
		stillOverdue := false
		for _, p := range others {
			if p.ID != payment.ID && p.Overdue(now) {
				stillOverdue = true
				break
			}
		}
		if !stillOverdue {
			lease.PaymentDue = false
			lease.UpdatedAt = now.UTC()
			tx.Put(domain.EntityLease, lease.ID, leaseVersion, lease)
		}
	}

	if err := c.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	return tx.Events, nil
}

func (c *Coordinator) newPayment(lease *domain.Lease, period string, now time.Time) *domain.Payment {
	due, err := lease.DueDateFor(period)
	if err != nil {
		due = now.UTC()
	}
	return &domain.Payment{
		ID:        domain.NewID(),
		LeaseID:   lease.ID,
		Period:    period,
		Amount:    lease.MonthlyRent,
		DueDate:   due,
		Status:    domain.PaymentPending,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}
