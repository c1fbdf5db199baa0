package notify

import (
	"time"

	"wikinotify/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route outcomes used as the "outcome" label of events_routed_total.
const (
	OutcomeSent          = "sent"
	OutcomeQueued        = "queued"
	OutcomeDisabled      = "disabled"
	OutcomeFiltered      = "filtered"
	OutcomeInvalid       = "invalid"
	OutcomeEncodingError = "encoding_error"
	OutcomeDropped       = "dropped"
	OutcomeFailed        = "failed"
	OutcomePanic         = "panic"
)

// Prometheus metrics for notification pipeline monitoring
var (
	// eventsRoutedTotal tracks every event handed to the router by final outcome
	eventsRoutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikinotify_events_routed_total",
			Help: "Total number of wiki events routed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// notificationSentTotal tracks transport send results
	notificationSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikinotify_notifications_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"transport", "status"}, // status: success|failure
	)

	// notificationDuration tracks transport send duration
	notificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wikinotify_notification_duration_seconds",
			Help:    "Notification send duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"transport"},
	)

	// notificationDroppedTotal tracks notifications abandoned before reaching the endpoint
	notificationDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikinotify_notifications_dropped_total",
			Help: "Total number of dropped notifications",
		},
		[]string{"reason"}, // reason: queue_full|circuit_open|shutdown|panic
	)

	// queueDepth tracks notifications waiting for a dispatcher worker
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikinotify_dispatch_queue_depth",
			Help: "Number of notifications waiting in the dispatch queue",
		},
	)

	// activeWorkers tracks dispatcher workers currently sending
	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikinotify_dispatch_active_workers",
			Help: "Number of dispatcher workers currently sending a notification",
		},
	)

	// handlersEnabled tracks the number of event kinds the router handles
	handlersEnabled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikinotify_router_handlers_enabled",
			Help: "Number of event kinds with an enabled handler",
		},
	)
)

// RecordRouted records the final outcome of routing one event.
func RecordRouted(kind entity.Kind, outcome string) {
	eventsRoutedTotal.WithLabelValues(string(kind), outcome).Inc()
}

// RecordSuccess records a successful send and its duration.
func RecordSuccess(transport string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(transport, "success").Inc()
	notificationDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

// RecordFailure records a failed send and the time spent before it failed.
func RecordFailure(transport string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(transport, "failure").Inc()
	notificationDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

// RecordDropped records a dropped notification.
//
// Parameters:
//   - reason: queue_full, circuit_open, shutdown or panic
func RecordDropped(reason string) {
	notificationDroppedTotal.WithLabelValues(reason).Inc()
}

// SetQueueDepth sets the current dispatch queue length.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// IncrementActiveWorkers increments the active workers gauge by 1.
func IncrementActiveWorkers() {
	activeWorkers.Inc()
}

// DecrementActiveWorkers decrements the active workers gauge by 1.
func DecrementActiveWorkers() {
	activeWorkers.Dec()
}

// SetHandlersEnabled sets the number of enabled router handlers.
func SetHandlersEnabled(count int) {
	handlersEnabled.Set(float64(count))
}
