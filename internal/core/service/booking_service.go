package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// BookingService runs the viewing-request lifecycle: guard, transition,
// commit, notify. Confirmation is delegated to the coordinator because it
// spawns a draft lease in the same commit.
type BookingService struct {
	gw     ports.Gateway
	guard  *Guard
	coord  *Coordinator
	notify ports.NotificationDispatcher
	log    zerolog.Logger
}

func NewBookingService(gw ports.Gateway, guard *Guard, coord *Coordinator, notify ports.NotificationDispatcher, log zerolog.Logger) *BookingService {
	return &BookingService{gw: gw, guard: guard, coord: coord, notify: notify, log: log}
}

// Request creates a viewing request against a vacant, verified property.
func (s *BookingService) Request(ctx context.Context, actor domain.Actor, input ports.CreateBookingInput) (*domain.Booking, error) {
	if err := s.guard.Authorize(actor, domain.EntityBooking, domain.TransitionBookingRequest, Ownership{TenantID: actor.ID}); err != nil {
		return nil, err
	}
	if input.PropertyID == "" {
		return nil, fmt.Errorf("%w: property id is required", domain.ErrValidation)
	}
	if input.RequestedAt.IsZero() {
		return nil, fmt.Errorf("%w: requested datetime is required", domain.ErrValidation)
	}

	prop, _, err := s.gw.LoadProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if !prop.Verified || prop.Availability != domain.PropertyVacant {
		return nil, fmt.Errorf("%w: property is not open for booking", domain.ErrValidation)
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		ID:          domain.NewID(),
		PropertyID:  prop.ID,
		TenantID:    actor.ID,
		LandlordID:  prop.LandlordID,
		RequestedAt: input.RequestedAt.UTC(),
		Note:        input.Note,
		Status:      domain.BookingPendingConfirmation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityBooking, booking.ID, 0, booking)
	tx.Emit(domain.NewTransitionEvent(domain.EntityBooking, booking.ID, domain.TransitionBookingRequest, "", string(booking.Status), actor, now))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("request booking: %w", err)
	}

	s.notify.Enqueue(tx.Events...)
	s.log.Info().Str("booking_id", booking.ID).Str("property_id", prop.ID).Msg("booking requested")
	return booking, nil
}

// Get returns a booking visible to the actor.
func (s *BookingService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	booking, _, err := s.gw.LoadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.guard.CanRead(actor, Ownership{TenantID: booking.TenantID, LandlordID: booking.LandlordID}) {
		return nil, fmt.Errorf("%w: booking is not visible to actor", domain.ErrUnauthorized)
	}
	return booking, nil
}

// List returns the bookings scoped to the actor's role.
func (s *BookingService) List(ctx context.Context, actor domain.Actor) ([]*domain.Booking, error) {
	filter := ports.BookingFilter{}
	switch actor.Role {
	case domain.RoleTenant:
		filter.TenantID = actor.ID
	case domain.RoleLandlord:
		filter.LandlordID = actor.ID
	}
	return s.gw.ListBookings(ctx, filter)
}

// Confirm accepts the request; the coordinator creates the draft lease.
func (s *BookingService) Confirm(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	booking, version, err := s.gw.LoadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityBooking, domain.TransitionBookingConfirm, Ownership{LandlordID: booking.LandlordID}); err != nil {
		return nil, err
	}

	_, events, err := s.coord.ConfirmBooking(ctx, actor, booking, version, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.notify.Enqueue(events...)
	return &ports.TransitionResult{State: string(booking.Status), Events: events}, nil
}

// Cancel withdraws the booking. Tenants may cancel their own pending
// bookings; landlords may cancel pending or confirmed ones on their property.
func (s *BookingService) Cancel(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	booking, version, err := s.gw.LoadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityBooking, domain.TransitionBookingCancel, Ownership{TenantID: booking.TenantID, LandlordID: booking.LandlordID}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := booking.Status
	switch actor.Role {
	case domain.RoleLandlord:
		err = booking.CancelByLandlord(now)
	default:
		err = booking.CancelByTenant(now)
	}
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, booking, version, domain.TransitionBookingCancel, from, actor, now)
}

// Complete records that the viewing took place.
func (s *BookingService) Complete(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	booking, version, err := s.gw.LoadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityBooking, domain.TransitionBookingComplete, Ownership{LandlordID: booking.LandlordID}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := booking.Status
	if err := booking.Complete(now); err != nil {
		return nil, err
	}
	return s.commit(ctx, booking, version, domain.TransitionBookingComplete, from, actor, now)
}

// Expire is raised by the scheduler once the requested time has passed with
// no confirmation.
func (s *BookingService) Expire(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	booking, version, err := s.gw.LoadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityBooking, domain.TransitionBookingExpire, Ownership{}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := booking.Status
	if err := booking.Expire(now); err != nil {
		return nil, err
	}
	return s.commit(ctx, booking, version, domain.TransitionBookingExpire, from, actor, now)
}

func (s *BookingService) commit(ctx context.Context, booking *domain.Booking, version int64, transition string, from domain.BookingStatus, actor domain.Actor, now time.Time) (*ports.TransitionResult, error) {
	tx := &ports.Tx{}
	tx.Put(domain.EntityBooking, booking.ID, version, booking)
	tx.Emit(domain.NewTransitionEvent(domain.EntityBooking, booking.ID, transition, string(from), string(booking.Status), actor, now))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("booking %s: %w", transition, err)
	}
	s.notify.Enqueue(tx.Events...)
	return &ports.TransitionResult{State: string(booking.Status), Events: tx.Events}, nil
}
