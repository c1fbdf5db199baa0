package notifier

import (
	"context"
	"errors"
	"fmt"

	"wikinotify/internal/domain/entity"
	"wikinotify/internal/resilience/circuitbreaker"

	"github.com/sony/gobreaker"
)

// CircuitBroken short-circuits Send while the endpoint keeps failing.
// Payload problems (EncodingError, most 4xx) do not count against the endpoint.
type CircuitBroken struct {
	next Transport
	cb   *circuitbreaker.CircuitBreaker
}

// WithCircuitBreaker decorates next with a breaker built from cfg.
// cfg.IsSuccessful defaults to !IsEndpointFault and cfg.Name to the transport name.
func WithCircuitBreaker(next Transport, cfg circuitbreaker.Config) *CircuitBroken {
	if cfg.Name == "" {
		cfg.Name = next.Name()
	}
	if cfg.IsSuccessful == nil {
		cfg.IsSuccessful = func(err error) bool { return !IsEndpointFault(err) }
	}
	onChange := cfg.OnStateChange
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		setCircuitState(name, to)
		if onChange != nil {
			onChange(name, from, to)
		}
	}
	setCircuitState(cfg.Name, gobreaker.StateClosed)

	return &CircuitBroken{
		next: next,
		cb:   circuitbreaker.New(cfg),
	}
}

// Name implements Transport.
func (c *CircuitBroken) Name() string {
	return c.next.Name()
}

// Send implements Transport.
func (c *CircuitBroken) Send(ctx context.Context, p entity.Payload) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.next.Send(ctx, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, c.cb.Name())
	}
	return err
}

// State returns the breaker state as "closed", "half-open" or "open".
func (c *CircuitBroken) State() string {
	return c.cb.State().String()
}
