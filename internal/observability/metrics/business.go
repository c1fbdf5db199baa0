package metrics

import (
	"strconv"
	"time"
)

// Rejection reasons used as the "reason" label of EventsRejectedTotal.
const (
	RejectMalformed    = "malformed"
	RejectInvalid      = "invalid"
	RejectUnknownKind  = "unknown_kind"
	RejectUnauthorized = "unauthorized"
	RejectTooLarge     = "too_large"
)

// RecordHTTPRequest records an HTTP request with its metadata.
func RecordHTTPRequest(method, route string, status int, duration time.Duration, requestSize int64) {
	code := strconv.Itoa(status)
	HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	HTTPRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, route).Observe(float64(requestSize))
	}
}

// RecordEventReceived counts an event that passed decoding and validation.
func RecordEventReceived(kind string) {
	EventsReceivedTotal.WithLabelValues(kind).Inc()
}

// RecordEventRejected counts a refused ingest request.
func RecordEventRejected(reason string) {
	EventsRejectedTotal.WithLabelValues(reason).Inc()
}
