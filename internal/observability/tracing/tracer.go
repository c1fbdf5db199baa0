package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used by every wikinotify span.
const InstrumentationName = "wikinotify"

// GetTracer returns a tracer from the current global provider.
// It is looked up on each call so a provider installed later is honored.
func GetTracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(InstrumentationName)
}
