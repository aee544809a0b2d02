package ports

import (
	"context"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

// Notifier delivers a committed transition event to interested parties.
// Delivery is best-effort: a failure is logged and never rolls back the
// transition that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event *domain.TransitionEvent) error
}

// NotificationDispatcher decouples commit paths from delivery. Enqueue must
// not block the caller beyond buffering.
type NotificationDispatcher interface {
	Enqueue(events ...*domain.TransitionEvent)
}
