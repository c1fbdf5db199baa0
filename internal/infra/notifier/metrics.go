package notifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	// webhookRateLimitHits counts sends abandoned while waiting for a token
	webhookRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikinotify_webhook_rate_limit_hits_total",
			Help: "Total number of sends abandoned while waiting for the rate limiter",
		},
		[]string{"transport"},
	)

	// webhookRateLimitWaitSeconds tracks time spent waiting for the rate limiter
	webhookRateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wikinotify_webhook_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the webhook rate limiter in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"transport"},
	)

	// webhookCircuitState reports the breaker state: 0 closed, 1 half-open, 2 open
	webhookCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wikinotify_webhook_circuit_state",
			Help: "Webhook circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"circuit"},
	)
)

func recordRateLimitHit(transport string) {
	webhookRateLimitHits.WithLabelValues(transport).Inc()
}

func recordRateLimitWait(transport string, wait time.Duration) {
	webhookRateLimitWaitSeconds.WithLabelValues(transport).Observe(wait.Seconds())
}

func setCircuitState(circuit string, state gobreaker.State) {
	webhookCircuitState.WithLabelValues(circuit).Set(float64(state))
}
