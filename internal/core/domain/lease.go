package domain

import (
	"fmt"
	"time"
)

// LeaseStatus represents the lifecycle state of a lease.
type LeaseStatus string

const (
	LeaseDraft                    LeaseStatus = "draft"
	LeasePendingTenantSignature   LeaseStatus = "pending_tenant_signature"
	LeasePendingLandlordSignature LeaseStatus = "pending_landlord_signature"
	LeaseActive                   LeaseStatus = "active"
	LeaseExpired                  LeaseStatus = "expired"
	LeaseTerminatedEarly          LeaseStatus = "terminated_early"
)

// Lease transitions.
const (
	TransitionLeaseDraft     = "draft"
	TransitionLeaseFinalize  = "finalize"
	TransitionLeaseSign      = "sign"
	TransitionLeaseTerminate = "terminate_early"
	TransitionLeaseExpire    = "expire"
)

// leaseTransitions defines the allowed state machine transitions. The
// payment-due escalation is a derived flag on top of active, not a state, so
// this graph stays acyclic.
var leaseTransitions = map[LeaseStatus][]LeaseStatus{
	LeaseDraft:                    {LeasePendingTenantSignature},
	LeasePendingTenantSignature:   {LeasePendingLandlordSignature},
	LeasePendingLandlordSignature: {LeaseActive},
	LeaseActive:                   {LeaseExpired, LeaseTerminatedEarly},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s LeaseStatus) CanTransitionTo(next LeaseStatus) bool {
	for _, allowed := range leaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s LeaseStatus) Terminal() bool {
	return len(leaseTransitions[s]) == 0
}

// Lease binds a tenant to a property for a period with a recurring rent
// obligation. BookingID is empty when staff create the lease directly.
type Lease struct {
	ID                string      `json:"id" bson:"_id,omitempty"`
	BookingID         string      `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	PropertyID        string      `json:"property_id" bson:"property_id"`
	TenantID          string      `json:"tenant_id" bson:"tenant_id"`
	LandlordID        string      `json:"landlord_id" bson:"landlord_id"`
	StartDate         time.Time   `json:"start_date" bson:"start_date"`
	EndDate           time.Time   `json:"end_date" bson:"end_date"`
	MonthlyRent       float64     `json:"monthly_rent" bson:"monthly_rent"`
	Deposit           float64     `json:"deposit" bson:"deposit"`
	PaymentDueDay     int         `json:"payment_due_day" bson:"payment_due_day"`
	Status            LeaseStatus `json:"status" bson:"status"`
	PaymentDue        bool        `json:"payment_due" bson:"payment_due"`
	TenantSignedAt    *time.Time  `json:"tenant_signed_at,omitempty" bson:"tenant_signed_at,omitempty"`
	LandlordSignedAt  *time.Time  `json:"landlord_signed_at,omitempty" bson:"landlord_signed_at,omitempty"`
	TerminatedAt      *time.Time  `json:"terminated_at,omitempty" bson:"terminated_at,omitempty"`
	TerminationReason string      `json:"termination_reason,omitempty" bson:"termination_reason,omitempty"`
	CreatedAt         time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" bson:"updated_at"`
}

func (l *Lease) apply(next LeaseStatus, transition string, now time.Time) error {
	if !l.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: lease %s from %s", ErrInvalidTransition, transition, l.Status)
	}
	l.Status = next
	l.UpdatedAt = now.UTC()
	return nil
}

// Finalize validates the agreed terms and sends the draft out for signing.
func (l *Lease) Finalize(now time.Time) error {
	if l.Status != LeaseDraft {
		return fmt.Errorf("%w: lease finalize from %s", ErrInvalidTransition, l.Status)
	}
	if l.MonthlyRent <= 0 {
		return fmt.Errorf("%w: monthly rent must be positive", ErrValidation)
	}
	if !l.StartDate.Before(l.EndDate) {
		return fmt.Errorf("%w: lease start date must precede end date", ErrValidation)
	}
	if l.PaymentDueDay < 1 || l.PaymentDueDay > 28 {
		return fmt.Errorf("%w: payment due day must be between 1 and 28", ErrValidation)
	}
	return l.apply(LeasePendingTenantSignature, TransitionLeaseFinalize, now)
}

// SignTenant records the tenant signature. Signature order is fixed: the
// tenant signs first.
func (l *Lease) SignTenant(now time.Time) error {
	if l.Status != LeasePendingTenantSignature {
		return fmt.Errorf("%w: tenant sign from %s", ErrInvalidTransition, l.Status)
	}
	ts := now.UTC()
	l.TenantSignedAt = &ts
	return l.apply(LeasePendingLandlordSignature, TransitionLeaseSign, now)
}

// SignLandlord records the landlord signature and moves the lease to active.
// The coordinator commits this together with the property lock and the first
// payment; a lease never enters active without both signatures recorded.
func (l *Lease) SignLandlord(now time.Time) error {
	if l.Status != LeasePendingLandlordSignature {
		return fmt.Errorf("%w: landlord sign from %s", ErrInvalidTransition, l.Status)
	}
	if l.TenantSignedAt == nil {
		return fmt.Errorf("%w: tenant signature missing", ErrInvalidTransition)
	}
	ts := now.UTC()
	l.LandlordSignedAt = &ts
	return l.apply(LeaseActive, TransitionLeaseSign, now)
}

// Terminate ends an active lease early. Reason and date are mandatory.
func (l *Lease) Terminate(reason string, at time.Time, now time.Time) error {
	if l.Status != LeaseActive {
		return fmt.Errorf("%w: lease terminate from %s", ErrInvalidTransition, l.Status)
	}
	if reason == "" {
		return fmt.Errorf("%w: termination reason is required", ErrValidation)
	}
	if at.IsZero() {
		return fmt.Errorf("%w: termination date is required", ErrValidation)
	}
	term := at.UTC()
	l.TerminatedAt = &term
	l.TerminationReason = reason
	l.PaymentDue = false
	return l.apply(LeaseTerminatedEarly, TransitionLeaseTerminate, now)
}

// Expire is scheduler-raised once the end date has passed.
func (l *Lease) Expire(now time.Time) error {
	if l.Status != LeaseActive {
		return fmt.Errorf("%w: lease expire from %s", ErrInvalidTransition, l.Status)
	}
	l.PaymentDue = false
	return l.apply(LeaseExpired, TransitionLeaseExpire, now)
}

// PeriodFor returns the billing period key (YYYY-MM) containing t.
func PeriodFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DueDateFor returns the payment due date within the given period.
func (l *Lease) DueDateFor(period string) (time.Time, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad billing period %q", ErrValidation, period)
	}
	return time.Date(t.Year(), t.Month(), l.PaymentDueDay, 0, 0, 0, 0, time.UTC), nil
}
