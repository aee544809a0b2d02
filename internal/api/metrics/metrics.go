// Package metrics defines and registers all custom Prometheus metrics for the
// rental lifecycle engine. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics use promauto, so they register with the default Prometheus registry
// at package load; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rental"

// ── Transition metrics ────────────────────────────────────────────────────────

// TransitionsTotal counts lifecycle transitions that committed successfully.
// Labels:
//   - entity: the aggregate kind (e.g. "lease", "payment")
//   - transition: the operation name (e.g. "sign", "mark_overdue")
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of lifecycle transitions successfully committed.",
	},
	[]string{"entity", "transition"},
)

// TransitionErrorsTotal counts transitions that were rejected or failed.
// Labels:
//   - entity: the aggregate kind
//   - reason: "invalid_transition", "unauthorized", "conflict", "validation", "not_found" or "internal"
var TransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_errors_total",
		Help:      "Total number of lifecycle transitions rejected or failed, by reason.",
	},
	[]string{"entity", "reason"},
)

// ── Scheduler metrics ─────────────────────────────────────────────────────────

// SchedulerTicksTotal counts completed scheduler passes.
var SchedulerTicksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_ticks_total",
		Help:      "Total number of completed scheduler passes.",
	},
)

// SchedulerItemsTotal counts items processed by the scheduler per pass.
// Label:
//   - kind: "booking_expired", "payment_generated", "payment_overdue", "lease_expired" or "conflict"
var SchedulerItemsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_items_total",
		Help:      "Total number of time-based transitions raised by the scheduler, by kind.",
	},
	[]string{"kind"},
)

// SchedulerTickDuration measures how long one full scheduler pass takes.
var SchedulerTickDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scheduler_tick_duration_seconds",
		Help:      "Duration of one scheduler pass over all due work.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification delivery outcomes.
// Label:
//   - result: "delivered", "failed" or "dropped"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of transition notifications, by delivery result.",
	},
	[]string{"result"},
)
