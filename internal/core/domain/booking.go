package domain

import (
	"fmt"
	"time"
)

// BookingStatus represents the lifecycle state of a viewing request.
type BookingStatus string

const (
	BookingPendingConfirmation BookingStatus = "pending_confirmation"
	BookingConfirmed           BookingStatus = "confirmed_by_landlord"
	BookingCancelledByTenant   BookingStatus = "cancelled_by_tenant"
	BookingCancelledByLandlord BookingStatus = "cancelled_by_landlord"
	BookingExpired             BookingStatus = "expired"
	BookingCompleted           BookingStatus = "completed"
)

// Booking transitions.
const (
	TransitionBookingRequest  = "request"
	TransitionBookingConfirm  = "confirm"
	TransitionBookingCancel   = "cancel"
	TransitionBookingComplete = "complete"
	TransitionBookingExpire   = "expire"
)

// bookingTransitions defines the allowed state machine transitions.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPendingConfirmation: {BookingConfirmed, BookingCancelledByTenant, BookingCancelledByLandlord, BookingExpired},
	BookingConfirmed:           {BookingCancelledByLandlord, BookingCompleted},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Booking is a tenant's viewing request against a vacant property. The
// landlord reference is derived from the property at creation time.
type Booking struct {
	ID          string        `json:"id" bson:"_id,omitempty"`
	PropertyID  string        `json:"property_id" bson:"property_id"`
	TenantID    string        `json:"tenant_id" bson:"tenant_id"`
	LandlordID  string        `json:"landlord_id" bson:"landlord_id"`
	RequestedAt time.Time     `json:"requested_at" bson:"requested_at"`
	Note        string        `json:"note,omitempty" bson:"note,omitempty"`
	Status      BookingStatus `json:"status" bson:"status"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) apply(next BookingStatus, transition string, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: booking %s from %s", ErrInvalidTransition, transition, b.Status)
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}

// Confirm accepts the viewing request. The coordinator spawns a draft lease
// in the same commit.
func (b *Booking) Confirm(now time.Time) error {
	return b.apply(BookingConfirmed, TransitionBookingConfirm, now)
}

// CancelByTenant withdraws the request. Only legal before confirmation.
func (b *Booking) CancelByTenant(now time.Time) error {
	if b.Status != BookingPendingConfirmation {
		return fmt.Errorf("%w: booking cancel from %s", ErrInvalidTransition, b.Status)
	}
	return b.apply(BookingCancelledByTenant, TransitionBookingCancel, now)
}

// CancelByLandlord rejects the request, before or after confirmation.
func (b *Booking) CancelByLandlord(now time.Time) error {
	return b.apply(BookingCancelledByLandlord, TransitionBookingCancel, now)
}

// Complete records that the viewing took place.
func (b *Booking) Complete(now time.Time) error {
	return b.apply(BookingCompleted, TransitionBookingComplete, now)
}

// Expire is scheduler-raised once the requested time has passed unconfirmed.
func (b *Booking) Expire(now time.Time) error {
	if b.Status != BookingPendingConfirmation {
		return fmt.Errorf("%w: booking expire from %s", ErrInvalidTransition, b.Status)
	}
	return b.apply(BookingExpired, TransitionBookingExpire, now)
}
