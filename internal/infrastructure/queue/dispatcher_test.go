package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

type recordingNotifier struct {
	mu        sync.Mutex
	delivered []*domain.TransitionEvent
	failFirst bool
}

func (n *recordingNotifier) Notify(_ context.Context, e *domain.TransitionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFirst {
		n.failFirst = false
		return errors.New("smtp unavailable")
	}
	n.delivered = append(n.delivered, e)
	return nil
}

func (n *recordingNotifier) snapshot() []*domain.TransitionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*domain.TransitionEvent, len(n.delivered))
	copy(out, n.delivered)
	return out
}

func waitForDeliveries(t *testing.T, n *recordingNotifier, want int) []*domain.TransitionEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		got := n.snapshot()
		if len(got) >= want {
			return got
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d deliveries, got %d", want, len(got))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func event(entityID, transition string) *domain.TransitionEvent {
	return &domain.TransitionEvent{
		EntityType: domain.EntityLease,
		EntityID:   entityID,
		Transition: transition,
		OccurredAt: time.Now().UTC(),
	}
}

func TestDispatcher_DeliversAllEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &recordingNotifier{}
	d := NewDispatcher(2, notifier, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(event("lease_1", "sign"), event("lease_2", "sign"), event("lease_3", "terminate_early"))

	got := waitForDeliveries(t, notifier, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(got))
	}
}

func TestDispatcher_PreservesPerEntityOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &recordingNotifier{}
	d := NewDispatcher(4, notifier, zerolog.Nop())
	d.Start(ctx)

	transitions := []string{"finalize", "sign", "sign", "terminate_early"}
	for _, tr := range transitions {
		d.Enqueue(event("lease_1", tr))
	}

	got := waitForDeliveries(t, notifier, len(transitions))
	for i, e := range got {
		if e.Transition != transitions[i] {
			t.Fatalf("delivery %d: expected %q, got %q", i, transitions[i], e.Transition)
		}
	}
}

func TestDispatcher_SurvivesNotifierFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &recordingNotifier{failFirst: true}
	d := NewDispatcher(1, notifier, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(event("lease_1", "sign"))
	d.Enqueue(event("lease_1", "terminate_early"))

	got := waitForDeliveries(t, notifier, 1)
	if got[0].Transition != "terminate_early" {
		t.Fatalf("the worker must keep going after a failed delivery, got %q", got[0].Transition)
	}
}
