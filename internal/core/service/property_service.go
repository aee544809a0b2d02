package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// PropertyService runs the property listing lifecycle. Rented is excluded
// here: only the coordinator moves a property in and out of rented.
type PropertyService struct {
	gw     ports.Gateway
	guard  *Guard
	notify ports.NotificationDispatcher
	log    zerolog.Logger
}

func NewPropertyService(gw ports.Gateway, guard *Guard, notify ports.NotificationDispatcher, log zerolog.Logger) *PropertyService {
	return &PropertyService{gw: gw, guard: guard, notify: notify, log: log}
}

// Create lists a new property. It awaits admin verification before bookings
// are possible.
func (s *PropertyService) Create(ctx context.Context, actor domain.Actor, input ports.CreatePropertyInput) (*domain.Property, error) {
	if err := s.guard.Authorize(actor, domain.EntityProperty, domain.TransitionPropertyList, Ownership{LandlordID: actor.ID}); err != nil {
		return nil, err
	}
	if input.Title == "" || input.Address == "" {
		return nil, fmt.Errorf("%w: title and address are required", domain.ErrValidation)
	}
	if input.MonthlyRent <= 0 {
		return nil, fmt.Errorf("%w: monthly rent must be positive", domain.ErrValidation)
	}

	now := time.Now().UTC()
	prop := &domain.Property{
		ID:           domain.NewID(),
		LandlordID:   actor.ID,
		Title:        input.Title,
		Address:      input.Address,
		City:         input.City,
		MonthlyRent:  input.MonthlyRent,
		Availability: domain.PropertyPendingApproval,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityProperty, prop.ID, 0, prop)
	tx.Emit(domain.NewTransitionEvent(domain.EntityProperty, prop.ID, domain.TransitionPropertyList, "", string(prop.Availability), actor, now))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}

	s.notify.Enqueue(tx.Events...)
	s.log.Info().Str("property_id", prop.ID).Str("landlord_id", actor.ID).Msg("property listed")
	return prop, nil
}

// Get returns a property. Listings are public to authenticated actors.
func (s *PropertyService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Property, error) {
	prop, _, err := s.gw.LoadProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// List returns properties scoped to the actor: landlords see their own,
// tenants see verified listings, admins see everything.
func (s *PropertyService) List(ctx context.Context, actor domain.Actor) ([]*domain.Property, error) {
	filter := ports.PropertyFilter{}
	switch actor.Role {
	case domain.RoleLandlord:
		filter.LandlordID = actor.ID
	case domain.RoleTenant:
		filter.VerifiedOnly = true
	}
	return s.gw.ListProperties(ctx, filter)
}

// Verify approves a pending listing. Admin only.
func (s *PropertyService) Verify(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionPropertyVerify, (*domain.Property).Verify)
}

// Delist removes the property from circulation.
func (s *PropertyService) Delist(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionPropertyDelist, (*domain.Property).Delist)
}

// Relist returns a delisted property to vacant.
func (s *PropertyService) Relist(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionPropertyRelist, (*domain.Property).Relist)
}

// BeginMaintenance takes a vacant property offline.
func (s *PropertyService) BeginMaintenance(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionPropertyBeginMaintenance, (*domain.Property).BeginMaintenance)
}

// EndMaintenance returns the property to vacant.
func (s *PropertyService) EndMaintenance(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionPropertyEndMaintenance, (*domain.Property).EndMaintenance)
}

func (s *PropertyService) transition(ctx context.Context, actor domain.Actor, id, transition string, apply func(*domain.Property, time.Time) error) (*ports.TransitionResult, error) {
	prop, version, err := s.gw.LoadProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityProperty, transition, Ownership{LandlordID: prop.LandlordID}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := prop.Availability
	if err := apply(prop, now); err != nil {
		return nil, err
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityProperty, prop.ID, version, prop)
	tx.Emit(domain.NewTransitionEvent(domain.EntityProperty, prop.ID, transition, string(from), string(prop.Availability), actor, now))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("property %s: %w", transition, err)
	}
	s.notify.Enqueue(tx.Events...)
	return &ports.TransitionResult{State: string(prop.Availability), Events: tx.Events}, nil
}
