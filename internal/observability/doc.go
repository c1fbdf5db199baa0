// Package observability groups the logging, metrics and tracing helpers
// shared by the ingest server and the delivery pipeline.
//
// Subpackages:
//   - logging: slog construction and context propagation
//   - metrics: Prometheus collectors for the ingest surface
//   - tracing: OpenTelemetry provider setup and HTTP server spans
package observability
