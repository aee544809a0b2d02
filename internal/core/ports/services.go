package ports

import (
	"context"
	"time"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

// TransitionResult is returned by every transition operation: the state the
// entity landed in plus the audit events emitted by the commit.
type TransitionResult struct {
	State  string
	Events []*domain.TransitionEvent
}

// CreatePropertyInput carries the data to list a new property.
type CreatePropertyInput struct {
	Title       string
	Address     string
	City        string
	MonthlyRent float64
}

// PropertyService exposes the property lifecycle.
type PropertyService interface {
	Create(ctx context.Context, actor domain.Actor, input CreatePropertyInput) (*domain.Property, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Property, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.Property, error)
	Verify(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Delist(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Relist(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	BeginMaintenance(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	EndMaintenance(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
}

// CreateBookingInput carries the data for a viewing request.
type CreateBookingInput struct {
	PropertyID  string
	RequestedAt time.Time
	Note        string
}

// BookingService exposes the booking lifecycle.
type BookingService interface {
	Request(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.Booking, error)
	Confirm(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Cancel(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Complete(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Expire(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
}

// DraftLeaseInput carries the data for a staff-created draft lease.
type DraftLeaseInput struct {
	PropertyID    string
	TenantID      string
	StartDate     time.Time
	EndDate       time.Time
	MonthlyRent   float64
	Deposit       float64
	PaymentDueDay int
}

// LeaseTermsInput carries the agreed terms fixed at finalization.
type LeaseTermsInput struct {
	StartDate     time.Time
	EndDate       time.Time
	MonthlyRent   float64
	Deposit       float64
	PaymentDueDay int
}

// TerminateLeaseInput carries the mandatory termination details.
type TerminateLeaseInput struct {
	Reason string
	At     time.Time
}

// LeaseService exposes the lease lifecycle.
type LeaseService interface {
	Draft(ctx context.Context, actor domain.Actor, input DraftLeaseInput) (*domain.Lease, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Lease, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.Lease, error)
	Finalize(ctx context.Context, actor domain.Actor, id string, terms LeaseTermsInput) (*TransitionResult, error)
	// Sign applies the signature legal for the actor's position in the fixed
	// order: tenant first, then landlord. The landlord signature activates
	// the lease, locks the property, and generates the first payment in one
	// commit.
	Sign(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Terminate(ctx context.Context, actor domain.Actor, id string, input TerminateLeaseInput) (*TransitionResult, error)
	Expire(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Payments(ctx context.Context, actor domain.Actor, leaseID string) ([]*domain.Payment, error)
}

// PaymentService exposes the payment lifecycle.
type PaymentService interface {
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error)
	Pay(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Confirm(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Fail(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Refund(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	// MarkOverdue raises the lease-level escalation flag for an unpaid
	// payment past its due date. The payment's own status is unchanged.
	MarkOverdue(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
}

// OpenTicketInput carries the data for a new maintenance request.
type OpenTicketInput struct {
	PropertyID  string
	Title       string
	Description string
}

// AssignWorkerInput carries the mandatory worker details.
type AssignWorkerInput struct {
	Name    string
	Contact string
}

// TicketService exposes the maintenance ticket lifecycle.
type TicketService interface {
	Open(ctx context.Context, actor domain.Actor, input OpenTicketInput) (*domain.MaintenanceTicket, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.MaintenanceTicket, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.MaintenanceTicket, error)
	Assign(ctx context.Context, actor domain.Actor, id string, input AssignWorkerInput) (*TransitionResult, error)
	Start(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Complete(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Cancel(ctx context.Context, actor domain.Actor, id string) (*TransitionResult, error)
	Close(ctx context.Context, actor domain.Actor, id string, notes string) (*TransitionResult, error)
}

// TickResult summarizes one scheduler pass.
type TickResult struct {
	BookingsExpired   int
	PaymentsGenerated int
	PaymentsOverdue   int
	LeasesExpired     int
	Conflicts         int
}

// Scheduler processes time-based transitions. The caller (a ticker loop or an
// admin endpoint) decides when a tick happens; the core decides what is due.
type Scheduler interface {
	Tick(ctx context.Context, now time.Time) (TickResult, error)
}
