// Package metrics defines and registers all custom Prometheus metrics for the
// MRMS API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init (promauto), so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mrms"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid", "inactive" or "error"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthLogoutsTotal counts tokens revoked through /auth/logout.
var AuthLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logouts_total",
		Help:      "Total number of tokens revoked by logout.",
	},
)

// AuthRejectedTotal counts requests refused by the auth middleware.
// Label:
//   - reason: "missing_header", "malformed_header", "invalid_token", "revoked"
var AuthRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejected_total",
		Help:      "Total number of requests rejected by token verification.",
	},
	[]string{"reason"},
)

// ── Purchase metrics ──────────────────────────────────────────────────────────

// PurchasesCreatedTotal counts newly raised purchase orders.
// Label:
//   - equipment_type: the equipment category ordered
var PurchasesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_created_total",
		Help:      "Total number of purchase orders created, by equipment type.",
	},
	[]string{"equipment_type"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsProcessedTotal counts purchase events that completed processing.
// Labels:
//   - status: the new purchase status applied by the event
//   - source: the feed that reported it
var EventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_processed_total",
		Help:      "Total number of purchase events successfully processed.",
	},
	[]string{"status", "source"},
)

// EventsErrorsTotal counts events that failed processing.
// Label:
//   - reason: "invalid_transition", "purchase_not_found", "lookup_failed", "update_failed"
var EventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of purchase events that failed processing.",
	},
	[]string{"reason"},
)

// EventsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event, processed)
var EventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dedup_total",
		Help:      "Total number of deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventProcessingDuration measures how long a single event takes to process end-to-end.
var EventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"status"},
)
