package domain

import (
	"fmt"
	"time"
)

// TicketStatus represents the lifecycle state of a maintenance ticket.
type TicketStatus string

const (
	TicketPendingAssignment TicketStatus = "pending_assignment"
	TicketAssigned          TicketStatus = "assigned_to_worker"
	TicketInProgress        TicketStatus = "in_progress"
	TicketCompleted         TicketStatus = "completed"
	TicketCancelledByTenant TicketStatus = "cancelled_by_tenant"
	TicketClosedByLandlord  TicketStatus = "closed_by_landlord"
)

// Maintenance ticket transitions.
const (
	TransitionTicketOpen     = "open"
	TransitionTicketAssign   = "assign_worker"
	TransitionTicketStart    = "start_work"
	TransitionTicketComplete = "complete"
	TransitionTicketCancel   = "cancel"
	TransitionTicketClose    = "close"
)

// ticketTransitions defines the allowed state machine transitions. Work
// progress is monotonic; there are no reverse transitions.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketPendingAssignment: {TicketAssigned, TicketCancelledByTenant, TicketClosedByLandlord},
	TicketAssigned:          {TicketInProgress, TicketClosedByLandlord},
	TicketInProgress:        {TicketCompleted, TicketClosedByLandlord},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s TicketStatus) Terminal() bool {
	return len(ticketTransitions[s]) == 0
}

// MaintenanceTicket is a repair request raised by a tenant against a property
// they lease. LeaseID is empty for tickets opened by staff on behalf of a
// tenant whose lease has already ended.
type MaintenanceTicket struct {
	ID              string       `json:"id" bson:"_id,omitempty"`
	PropertyID      string       `json:"property_id" bson:"property_id"`
	TenantID        string       `json:"tenant_id" bson:"tenant_id"`
	LandlordID      string       `json:"landlord_id" bson:"landlord_id"`
	LeaseID         string       `json:"lease_id,omitempty" bson:"lease_id,omitempty"`
	Title           string       `json:"title" bson:"title"`
	Description     string       `json:"description,omitempty" bson:"description,omitempty"`
	WorkerName      string       `json:"worker_name,omitempty" bson:"worker_name,omitempty"`
	WorkerContact   string       `json:"worker_contact,omitempty" bson:"worker_contact,omitempty"`
	ResolutionNotes string       `json:"resolution_notes,omitempty" bson:"resolution_notes,omitempty"`
	Status          TicketStatus `json:"status" bson:"status"`
	CreatedAt       time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" bson:"updated_at"`
}

func (t *MaintenanceTicket) apply(next TicketStatus, transition string, now time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: ticket %s from %s", ErrInvalidTransition, transition, t.Status)
	}
	t.Status = next
	t.UpdatedAt = now.UTC()
	return nil
}

// AssignWorker attaches a named worker. Name and contact are mandatory.
func (t *MaintenanceTicket) AssignWorker(name, contact string, now time.Time) error {
	if name == "" || contact == "" {
		return fmt.Errorf("%w: worker name and contact are required", ErrValidation)
	}
	if err := t.apply(TicketAssigned, TransitionTicketAssign, now); err != nil {
		return err
	}
	t.WorkerName = name
	t.WorkerContact = contact
	return nil
}

// StartWork marks the assigned worker as on site.
func (t *MaintenanceTicket) StartWork(now time.Time) error {
	return t.apply(TicketInProgress, TransitionTicketStart, now)
}

// Complete marks the repair finished.
func (t *MaintenanceTicket) Complete(now time.Time) error {
	return t.apply(TicketCompleted, TransitionTicketComplete, now)
}

// CancelByTenant withdraws the request. Only legal before assignment.
func (t *MaintenanceTicket) CancelByTenant(now time.Time) error {
	if t.Status != TicketPendingAssignment {
		return fmt.Errorf("%w: ticket cancel from %s", ErrInvalidTransition, t.Status)
	}
	return t.apply(TicketCancelledByTenant, TransitionTicketCancel, now)
}

// Close lets the landlord shut the ticket from any non-terminal state, with
// mandatory resolution notes.
func (t *MaintenanceTicket) Close(notes string, now time.Time) error {
	if notes == "" {
		return fmt.Errorf("%w: resolution notes are required", ErrValidation)
	}
	if err := t.apply(TicketClosedByLandlord, TransitionTicketClose, now); err != nil {
		return err
	}
	t.ResolutionNotes = notes
	return nil
}
