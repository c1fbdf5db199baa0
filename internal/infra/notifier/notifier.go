//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=../../mocks/mock_transport.go -package=mocks

// Package notifier delivers chat notifications to an incoming webhook.
// It defines the Transport interface which lets the event router send a
// payload without knowing how the bytes reach the endpoint.
//
// The package includes two HTTP strategies (DirectPost and StreamingPost),
// decorators for rate limiting and circuit breaking, and a dry-run transport
// for when delivery is disabled.
package notifier

import (
	"context"
	"fmt"

	"wikinotify/internal/domain/entity"
)

// Transport sends one payload to the configured endpoint.
type Transport interface {
	// Name identifies the transport in logs and metrics.
	Name() string

	// Send delivers the payload exactly once.
	//
	// Returns:
	//   - *EncodingError: the payload cannot be rendered as a valid webhook body
	//   - *DeliveryError: network failure, timeout or non-2xx response
	//   - ErrCircuitOpen: the endpoint is short-circuited (decorated transports only)
	//
	// Implementations never retry.
	Send(ctx context.Context, p entity.Payload) error
}

// New creates the transport selected by cfg.Kind.
//
// The endpoint URL is validated once here so that a misconfiguration is reported
// at startup instead of on the first event.
func New(cfg entity.TransportConfig, opts ...Option) (Transport, error) {
	if err := entity.ValidateEndpointURL(cfg.EndpointURL); err != nil {
		return nil, fmt.Errorf("webhook endpoint: %w", err)
	}

	switch cfg.Kind {
	case entity.TransportDirectPost, "":
		return NewDirectPost(cfg, opts...), nil
	case entity.TransportStreamingPost:
		return NewStreamingPost(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", entity.ErrInvalidInput, cfg.Kind)
	}
}
