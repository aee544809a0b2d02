package ports

import (
	"context"
	"time"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

// Write is one version-guarded snapshot update inside a commit. Version is
// the value read alongside the snapshot; zero means the write is an insert.
type Write struct {
	Entity  domain.EntityType
	ID      string
	Version int64
	State   any
}

// Tx is an atomic multi-entity commit: every write applies under its expected
// version and every event appends to the audit log, or nothing does. A stale
// version anywhere aborts the whole transaction with domain.ErrConflict.
type Tx struct {
	Writes []Write
	Events []*domain.TransitionEvent
}

// Put stages a snapshot write.
func (t *Tx) Put(entity domain.EntityType, id string, version int64, state any) {
	t.Writes = append(t.Writes, Write{Entity: entity, ID: id, Version: version, State: state})
}

// Emit stages audit events for the commit.
func (t *Tx) Emit(events ...*domain.TransitionEvent) {
	t.Events = append(t.Events, events...)
}

// PropertyFilter scopes property listings. Empty fields are ignored.
type PropertyFilter struct {
	LandlordID   string
	Availability domain.Availability
	VerifiedOnly bool
}

// BookingFilter scopes booking listings.
type BookingFilter struct {
	TenantID   string
	LandlordID string
	PropertyID string
	Status     domain.BookingStatus
}

// LeaseFilter scopes lease listings.
type LeaseFilter struct {
	TenantID   string
	LandlordID string
	PropertyID string
	Status     domain.LeaseStatus
}

// TicketFilter scopes maintenance ticket listings.
type TicketFilter struct {
	TenantID   string
	LandlordID string
	PropertyID string
	Status     domain.TicketStatus
}

// Gateway is the persistence boundary: current-state snapshots with
// optimistic-concurrency versions, the append-only transition log, and the
// lookups the services and scheduler need. Load methods return the snapshot
// together with the version that a later Commit must present.
type Gateway interface {
	LoadProperty(ctx context.Context, id string) (*domain.Property, int64, error)
	LoadBooking(ctx context.Context, id string) (*domain.Booking, int64, error)
	LoadLease(ctx context.Context, id string) (*domain.Lease, int64, error)
	LoadPayment(ctx context.Context, id string) (*domain.Payment, int64, error)
	LoadTicket(ctx context.Context, id string) (*domain.MaintenanceTicket, int64, error)

	// ActiveLeaseByProperty returns the single active lease on a property,
	// or domain.ErrNotFound when the property is unencumbered.
	ActiveLeaseByProperty(ctx context.Context, propertyID string) (*domain.Lease, int64, error)
	// PaymentByPeriod resolves the natural key (lease, period);
	// domain.ErrNotFound when the cycle has not been generated yet.
	PaymentByPeriod(ctx context.Context, leaseID, period string) (*domain.Payment, error)
	PaymentsByLease(ctx context.Context, leaseID string) ([]*domain.Payment, error)
	// LeasesByTenantAndProperty returns every lease, any status, binding the
	// tenant to the property. Used for maintenance-ticket eligibility.
	LeasesByTenantAndProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.Lease, error)

	// Scheduler lookups: entities whose time-based transition is due at now.
	DueBookings(ctx context.Context, now time.Time) ([]*domain.Booking, error)
	OverduePayments(ctx context.Context, now time.Time) ([]*domain.Payment, error)
	ExpiredLeases(ctx context.Context, now time.Time) ([]*domain.Lease, error)

	ListProperties(ctx context.Context, filter PropertyFilter) ([]*domain.Property, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)
	ListLeases(ctx context.Context, filter LeaseFilter) ([]*domain.Lease, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]*domain.MaintenanceTicket, error)

	// EventsByEntity reads the audit trail for one entity, oldest first.
	EventsByEntity(ctx context.Context, entity domain.EntityType, id string) ([]*domain.TransitionEvent, error)

	// Commit applies tx atomically. Returns domain.ErrConflict when any write
	// hits a stale version or a uniqueness constraint (duplicate id, second
	// active lease, duplicate payment period).
	Commit(ctx context.Context, tx *Tx) error
}
