package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/api/metrics"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher delivers committed transition events to the notifier on a fixed
// set of workers, sharded by entity id so notifications for one entity stay
// ordered. Delivery is fire-and-forget: a notifier failure is logged and
// never affects the transition that produced the event.
type Dispatcher struct {
	workers  []chan *domain.TransitionEvent
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan *domain.TransitionEvent, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.TransitionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends events to the workers responsible for their entities. When a
// worker's buffer is full the event is dropped with a warning rather than
// blocking the commit path.
func (d *Dispatcher) Enqueue(events ...*domain.TransitionEvent) {
	for _, e := range events {
		ch := d.workers[d.shardIndex(e.EntityID)]
		select {
		case ch <- e:
		default:
			metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
			d.log.Warn().Str("entity_id", e.EntityID).Str("transition", e.Transition).Msg("notification buffer full, event dropped")
		}
	}
}

// shardIndex maps an entity id deterministically to a worker index.
func (d *Dispatcher) shardIndex(entityID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan *domain.TransitionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.notifier.Notify(ctx, event); err != nil {
				metrics.NotificationsTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Str("entity_id", event.EntityID).
					Str("transition", event.Transition).
					Int("worker_id", id).
					Msg("notification delivery failed")
				continue
			}
			metrics.NotificationsTotal.WithLabelValues("delivered").Inc()
		}
	}
}
