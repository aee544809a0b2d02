package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// TicketService runs the maintenance ticket lifecycle. Every transition here
// is single-entity; the only cross-entity rule is the eligibility check at
// creation, which requires an active lease binding the tenant to the
// property.
type TicketService struct {
	gw     ports.Gateway
	guard  *Guard
	notify ports.NotificationDispatcher
	log    zerolog.Logger
}

func NewTicketService(gw ports.Gateway, guard *Guard, notify ports.NotificationDispatcher, log zerolog.Logger) *TicketService {
	return &TicketService{gw: gw, guard: guard, notify: notify, log: log}
}

// Open files a repair request. The tenant must hold an active lease on the
// property.
func (s *TicketService) Open(ctx context.Context, actor domain.Actor, input ports.OpenTicketInput) (*domain.MaintenanceTicket, error) {
	if err := s.guard.Authorize(actor, domain.EntityTicket, domain.TransitionTicketOpen, Ownership{TenantID: actor.ID}); err != nil {
		return nil, err
	}
	if input.PropertyID == "" || input.Title == "" {
		return nil, fmt.Errorf("%w: property id and title are required", domain.ErrValidation)
	}

	prop, _, err := s.gw.LoadProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}

	leases, err := s.gw.LeasesByTenantAndProperty(ctx, actor.ID, prop.ID)
	if err != nil {
		return nil, fmt.Errorf("open ticket: %w", err)
	}
	var active *domain.Lease
	for _, l := range leases {
		if l.Status == domain.LeaseActive {
			active = l
			break
		}
	}
	if active == nil {
		return nil, fmt.Errorf("%w: tenant has no active lease on property %s", domain.ErrValidation, prop.ID)
	}

	now := time.Now().UTC()
	ticket := &domain.MaintenanceTicket{
		ID:          domain.NewID(),
		PropertyID:  prop.ID,
		TenantID:    actor.ID,
		LandlordID:  prop.LandlordID,
		LeaseID:     active.ID,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TicketPendingAssignment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityTicket, ticket.ID, 0, ticket)
	tx.Emit(domain.NewTransitionEvent(domain.EntityTicket, ticket.ID, domain.TransitionTicketOpen, "", string(ticket.Status), actor, now))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("open ticket: %w", err)
	}

	s.notify.Enqueue(tx.Events...)
	s.log.Info().Str("ticket_id", ticket.ID).Str("property_id", prop.ID).Msg("maintenance ticket opened")
	return ticket, nil
}

// Get returns a ticket visible to the actor.
func (s *TicketService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.MaintenanceTicket, error) {
	ticket, _, err := s.gw.LoadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.guard.CanRead(actor, Ownership{TenantID: ticket.TenantID, LandlordID: ticket.LandlordID}) {
		return nil, fmt.Errorf("%w: ticket is not visible to actor", domain.ErrUnauthorized)
	}
	return ticket, nil
}

// List returns the tickets scoped to the actor's role.
func (s *TicketService) List(ctx context.Context, actor domain.Actor) ([]*domain.MaintenanceTicket, error) {
	filter := ports.TicketFilter{}
	switch actor.Role {
	case domain.RoleTenant:
		filter.TenantID = actor.ID
	case domain.RoleLandlord:
		filter.LandlordID = actor.ID
	}
	return s.gw.ListTickets(ctx, filter)
}

// Assign attaches a worker; name and contact are mandatory.
func (s *TicketService) Assign(ctx context.Context, actor domain.Actor, id string, input ports.AssignWorkerInput) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionTicketAssign, func(t *domain.MaintenanceTicket, now time.Time) error {
		return t.AssignWorker(input.Name, input.Contact, now)
	})
}

// Start marks work as begun.
func (s *TicketService) Start(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionTicketStart, func(t *domain.MaintenanceTicket, now time.Time) error {
		return t.StartWork(now)
	})
}

// Complete marks the repair finished.
func (s *TicketService) Complete(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionTicketComplete, func(t *domain.MaintenanceTicket, now time.Time) error {
		return t.Complete(now)
	})
}

// Cancel withdraws a ticket before assignment. Tenant only.
func (s *TicketService) Cancel(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionTicketCancel, func(t *domain.MaintenanceTicket, now time.Time) error {
		return t.CancelByTenant(now)
	})
}

// Close shuts the ticket from any non-terminal state with mandatory notes.
func (s *TicketService) Close(ctx context.Context, actor domain.Actor, id string, notes string) (*ports.TransitionResult, error) {
	return s.transition(ctx, actor, id, domain.TransitionTicketClose, func(t *domain.MaintenanceTicket, now time.Time) error {
		return t.Close(notes, now)
	})
}

func (s *TicketService) transition(ctx context.Context, actor domain.Actor, id, transition string, apply func(*domain.MaintenanceTicket, time.Time) error) (*ports.TransitionResult, error) {
	ticket, version, err := s.gw.LoadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityTicket, transition, Ownership{TenantID: ticket.TenantID, LandlordID: ticket.LandlordID}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := ticket.Status
	if err := apply(ticket, now); err != nil {
		return nil, err
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityTicket, ticket.ID, version, ticket)
	tx.Emit(domain.NewTransitionEvent(domain.EntityTicket, ticket.ID, transition, string(from), string(ticket.Status), actor, now).WithNote(ticket.ResolutionNotes))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("ticket %s: %w", transition, err)
	}
	s.notify.Enqueue(tx.Events...)
	return &ports.TransitionResult{State: string(ticket.Status), Events: tx.Events}, nil
}
