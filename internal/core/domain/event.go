package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names the aggregates tracked by the engine.
type EntityType string

const (
	EntityProperty EntityType = "property"
	EntityBooking  EntityType = "booking"
	EntityLease    EntityType = "lease"
	EntityPayment  EntityType = "payment"
	EntityTicket   EntityType = "maintenance_ticket"
)

// TransitionEvent is one entry in the append-only audit log. Events are
// written in the same commit as the snapshot they describe, so replaying the
// log per entity reproduces every state the snapshot has ever held.
type TransitionEvent struct {
	ID         string     `json:"id" bson:"_id,omitempty"`
	EntityType EntityType `json:"entity_type" bson:"entity_type"`
	EntityID   string     `json:"entity_id" bson:"entity_id"`
	Transition string     `json:"transition" bson:"transition"`
	From       string     `json:"from,omitempty" bson:"from,omitempty"`
	To         string     `json:"to" bson:"to"`
	ActorID    string     `json:"actor_id" bson:"actor_id"`
	ActorRole  Role       `json:"actor_role" bson:"actor_role"`
	Note       string     `json:"note,omitempty" bson:"note,omitempty"`
	OccurredAt time.Time  `json:"occurred_at" bson:"occurred_at"`
}

// NewTransitionEvent builds an audit event for a completed transition.
func NewTransitionEvent(entity EntityType, entityID, transition, from, to string, actor Actor, now time.Time) *TransitionEvent {
	return &TransitionEvent{
		ID:         uuid.NewString(),
		EntityType: entity,
		EntityID:   entityID,
		Transition: transition,
		From:       from,
		To:         to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		OccurredAt: now.UTC(),
	}
}

// WithNote attaches free-form context (termination reason, resolution notes).
func (e *TransitionEvent) WithNote(note string) *TransitionEvent {
	e.Note = note
	return e
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}
