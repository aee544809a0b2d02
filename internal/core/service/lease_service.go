package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// LeaseService runs the lease lifecycle. Activation and termination are
// coordinated operations because they touch the property and the payment
// ledger.
type LeaseService struct {
	gw     ports.Gateway
	guard  *Guard
	coord  *Coordinator
	notify ports.NotificationDispatcher
	log    zerolog.Logger
}

func NewLeaseService(gw ports.Gateway, guard *Guard, coord *Coordinator, notify ports.NotificationDispatcher, log zerolog.Logger) *LeaseService {
	return &LeaseService{gw: gw, guard: guard, coord: coord, notify: notify, log: log}
}

// Draft creates a lease directly, without a booking. Staff only.
func (s *LeaseService) Draft(ctx context.Context, actor domain.Actor, input ports.DraftLeaseInput) (*domain.Lease, error) {
	if err := s.guard.Authorize(actor, domain.EntityLease, domain.TransitionLeaseDraft, Ownership{}); err != nil {
		return nil, err
	}
	if input.PropertyID == "" || input.TenantID == "" {
		return nil, fmt.Errorf("%w: property id and tenant id are required", domain.ErrValidation)
	}

	prop, _, err := s.gw.LoadProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if !prop.Verified {
		return nil, fmt.Errorf("%w: property is not verified", domain.ErrValidation)
	}

	now := time.Now().UTC()
	lease := &domain.Lease{
		ID:            domain.NewID(),
		PropertyID:    prop.ID,
		TenantID:      input.TenantID,
		LandlordID:    prop.LandlordID,
		StartDate:     input.StartDate.UTC(),
		EndDate:       input.EndDate.UTC(),
		MonthlyRent:   input.MonthlyRent,
		Deposit:       input.Deposit,
		PaymentDueDay: input.PaymentDueDay,
		Status:        domain.LeaseDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx := &ports.Tx{}
	tx.Put(domain.EntityLease, lease.ID, 0, lease)
	tx.Emit(domain.NewTransitionEvent(domain.EntityLease, lease.ID, domain.TransitionLeaseDraft, "", string(lease.Status), actor, now))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("draft lease: %w", err)
	}

	s.notify.Enqueue(tx.Events...)
	s.log.Info().Str("lease_id", lease.ID).Str("property_id", prop.ID).Msg("lease drafted directly")
	return lease, nil
}

// Get returns a lease visible to the actor.
func (s *LeaseService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Lease, error) {
	lease, _, err := s.gw.LoadLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.guard.CanRead(actor, Ownership{TenantID: lease.TenantID, LandlordID: lease.LandlordID}) {
		return nil, fmt.Errorf("%w: lease is not visible to actor", domain.ErrUnauthorized)
	}
	return lease, nil
}

// List returns the leases scoped to the actor's role.
func (s *LeaseService) List(ctx context.Context, actor domain.Actor) ([]*domain.Lease, error) {
	filter := ports.LeaseFilter{}
	switch actor.Role {
	case domain.RoleTenant:
		filter.TenantID = actor.ID
	case domain.RoleLandlord:
		filter.LandlordID = actor.ID
	}
	return s.gw.ListLeases(ctx, filter)
}

// Finalize fixes the agreed terms on a draft and sends it to the tenant for
// signature.
func (s *LeaseService) Finalize(ctx context.Context, actor domain.Actor, id string, terms ports.LeaseTermsInput) (*ports.TransitionResult, error) {
	lease, version, err := s.gw.LoadLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityLease, domain.TransitionLeaseFinalize, Ownership{LandlordID: lease.LandlordID}); err != nil {
		return nil, err
	}
	if lease.Status != domain.LeaseDraft {
		return nil, fmt.Errorf("%w: lease finalize from %s", domain.ErrInvalidTransition, lease.Status)
	}

	lease.StartDate = terms.StartDate.UTC()
	lease.EndDate = terms.EndDate.UTC()
	lease.MonthlyRent = terms.MonthlyRent
	lease.Deposit = terms.Deposit
	lease.PaymentDueDay = terms.PaymentDueDay

	now := time.Now().UTC()
	from := lease.Status
	if err := lease.Finalize(now); err != nil {
		return nil, err
	}
	return s.commit(ctx, lease, version, domain.TransitionLeaseFinalize, from, "", actor, now)
}

// Sign applies the signature matching the actor's role. The order is fixed:
// the tenant signs from pending_tenant_signature, the landlord from
// pending_landlord_signature, and the landlord signature activates the lease
// through the coordinator.
func (s *LeaseService) Sign(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	lease, version, err := s.gw.LoadLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityLease, domain.TransitionLeaseSign, Ownership{TenantID: lease.TenantID, LandlordID: lease.LandlordID}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch actor.Role {
	case domain.RoleTenant:
		from := lease.Status
		if err := lease.SignTenant(now); err != nil {
			return nil, err
		}
		return s.commit(ctx, lease, version, domain.TransitionLeaseSign, from, "", actor, now)
	case domain.RoleLandlord:
		events, err := s.coord.ActivateLease(ctx, actor, lease, version, now)
		if err != nil {
			return nil, err
		}
		s.notify.Enqueue(events...)
		return &ports.TransitionResult{State: string(lease.Status), Events: events}, nil
	default:
		return nil, fmt.Errorf("%w: role %s cannot sign a lease", domain.ErrUnauthorized, actor.Role)
	}
}

// Terminate ends an active lease early with a mandatory reason and date.
func (s *LeaseService) Terminate(ctx context.Context, actor domain.Actor, id string, input ports.TerminateLeaseInput) (*ports.TransitionResult, error) {
	lease, version, err := s.gw.LoadLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityLease, domain.TransitionLeaseTerminate, Ownership{LandlordID: lease.LandlordID}); err != nil {
		return nil, err
	}

	events, err := s.coord.EndLease(ctx, actor, lease, version, input, false, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.notify.Enqueue(events...)
	return &ports.TransitionResult{State: string(lease.Status), Events: events}, nil
}

// Expire is raised by the scheduler once the end date has passed. The
// property reverts to vacant unless a renewal lease is already active.
func (s *LeaseService) Expire(ctx context.Context, actor domain.Actor, id string) (*ports.TransitionResult, error) {
	lease, version, err := s.gw.LoadLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, domain.EntityLease, domain.TransitionLeaseExpire, Ownership{}); err != nil {
		return nil, err
	}

	events, err := s.coord.EndLease(ctx, actor, lease, version, ports.TerminateLeaseInput{}, true, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.notify.Enqueue(events...)
	return &ports.TransitionResult{State: string(lease.Status), Events: events}, nil
}

// Payments lists the payment rows of a lease visible to the actor.
func (s *LeaseService) Payments(ctx context.Context, actor domain.Actor, leaseID string) ([]*domain.Payment, error) {
	lease, _, err := s.gw.LoadLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if !s.guard.CanRead(actor, Ownership{TenantID: lease.TenantID, LandlordID: lease.LandlordID}) {
		return nil, fmt.Errorf("%w: lease is not visible to actor", domain.ErrUnauthorized)
	}
	return s.gw.PaymentsByLease(ctx, leaseID)
}

func (s *LeaseService) commit(ctx context.Context, lease *domain.Lease, version int64, transition string, from domain.LeaseStatus, note string, actor domain.Actor, now time.Time) (*ports.TransitionResult, error) {
	tx := &ports.Tx{}
	tx.Put(domain.EntityLease, lease.ID, version, lease)
	tx.Emit(domain.NewTransitionEvent(domain.EntityLease, lease.ID, transition, string(from), string(lease.Status), actor, now).WithNote(note))
	if err := s.gw.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("lease %s: %w", transition, err)
	}
	s.notify.Enqueue(tx.Events...)
	return &ports.TransitionResult{State: string(lease.Status), Events: tx.Events}, nil
}
