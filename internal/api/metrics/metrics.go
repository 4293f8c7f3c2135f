// Package metrics defines and registers all custom Prometheus metrics for the
// store API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/storefront/store-api/internal/core/domain"
)

const namespace = "store"

// ── Purchase metrics ──────────────────────────────────────────────────────────

// PurchasesCreatedTotal counts purchases that reached the persisted state.
var PurchasesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_created_total",
		Help:      "Total number of purchases persisted.",
	},
)

// PurchaseReplaysTotal counts creation requests answered from an idempotency key.
var PurchaseReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_replays_total",
		Help:      "Total number of purchase creations served by idempotent replay.",
	},
)

// PurchaseFailuresTotal counts rejected or failed purchase creations.
// Label:
//   - reason: see FailureReason (e.g. "product_not_found", "identity_mismatch")
var PurchaseFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_failures_total",
		Help:      "Total number of purchase creations that failed, by reason.",
	},
	[]string{"reason"},
)

// PurchaseLineItems observes how many line items each persisted purchase has.
var PurchaseLineItems = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "purchase_line_items",
		Help:      "Number of line items per persisted purchase.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 50},
	},
)

// PurchaseDuration measures a purchase creation end to end.
// Label:
//   - outcome: "created", "replayed" or "failed"
var PurchaseDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "purchase_duration_seconds",
		Help:      "Duration of purchase creation from request to hydrated response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts purchase-created event deliveries.
// Label:
//   - result: "published", "failed" or "dropped"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_events_published_total",
		Help:      "Total number of purchase-created events handled by the dispatcher, by result.",
	},
	[]string{"result"},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "purchase_events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventRecorder feeds the dispatcher's observations into the event metrics.
type EventRecorder struct{}

func (EventRecorder) EventPublished(result string) {
	EventsPublishedTotal.WithLabelValues(result).Inc()
}

func (EventRecorder) QueueDepth(workerID, depth int) {
	EventsQueueDepth.WithLabelValues(strconv.Itoa(workerID)).Set(float64(depth))
}

// FailureReason maps a purchase error to a bounded label value.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrIdentityMismatch):
		return "identity_mismatch"
	case errors.Is(err, domain.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrPurchaseInFlight):
		return "in_flight"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
