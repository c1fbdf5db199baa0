package config

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// loadMetrics tracks configuration state.
//
// Metrics:
//   - wikinotify_config_load_timestamp: Unix timestamp of the last successful load
//   - wikinotify_config_validation_errors_total: validation errors by field
//   - wikinotify_config_info: constant 1, labeled with the effective delivery settings
type loadMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	Info                  *prometheus.GaugeVec
}

var configMetrics = &loadMetrics{
	LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wikinotify_config_load_timestamp",
		Help: "Unix timestamp of last configuration load",
	}),
	ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikinotify_config_validation_errors_total",
		Help: "Total number of configuration validation errors",
	}, []string{"field"}),
	Info: promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wikinotify_config_info",
		Help: "Effective delivery configuration, always 1",
	}, []string{"transport", "dry_run", "enabled_kinds"}),
}

// RecordLoad marks a successful load.
func (m *loadMetrics) RecordLoad(cfg *Config) {
	m.LoadTimestamp.Set(float64(time.Now().Unix()))
	m.Info.Reset()
	m.Info.WithLabelValues(
		string(cfg.TransportConfig().Kind),
		strconv.FormatBool(cfg.Webhook.DryRun),
		strconv.Itoa(len(cfg.EnabledKinds())),
	).Set(1)
}

// RecordValidationError counts a failed field check.
func (m *loadMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}
