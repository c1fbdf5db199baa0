// Package metrics holds the Prometheus collectors of the ingest surface:
// HTTP request metrics and the accepted/rejected event counters.
// Delivery metrics live next to the code that produces them in notify and notifier.
package metrics
