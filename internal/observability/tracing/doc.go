// Package tracing wires OpenTelemetry for the notifier.
//
// Setup installs a global tracer provider and the W3C propagators. Spans are
// exported over OTLP/HTTP when an endpoint is configured and only sampled
// locally otherwise, so trace ids still appear in logs.
//
//	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
package tracing
