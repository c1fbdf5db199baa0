package notifier

import (
	"context"
	"fmt"
	"time"

	"wikinotify/internal/domain/entity"

	"golang.org/x/time/rate"
)

// RateLimiter implements token bucket algorithm for rate limiting.
// It keeps the notifier under the webhook's posting limit
// (Slack allows roughly one message per second per webhook).
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter creates a new RateLimiter with the specified rate and burst capacity.
//
// The token bucket algorithm allows up to 'burst' requests immediately,
// then refills tokens at 'requestsPerSecond' rate.
//
// Example:
//
//	limiter := NewRateLimiter(1.0, 1)  // Slack incoming webhook limit
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)
	l := rate.NewLimiter(r, burst)

	return &RateLimiter{
		rate:    r,
		burst:   burst,
		limiter: l,
	}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// RateLimited delays each Send until the limiter grants a token.
type RateLimited struct {
	next    Transport
	limiter *RateLimiter
}

// WithRateLimit decorates next with limiter.
func WithRateLimit(next Transport, limiter *RateLimiter) *RateLimited {
	return &RateLimited{next: next, limiter: limiter}
}

// Name implements Transport.
func (r *RateLimited) Name() string {
	return r.next.Name()
}

// Send implements Transport. A canceled wait is reported as a DeliveryError.
func (r *RateLimited) Send(ctx context.Context, p entity.Payload) error {
	start := time.Now()
	if err := r.limiter.Allow(ctx); err != nil {
		recordRateLimitHit(r.Name())
		return &DeliveryError{Transport: r.Name(), Err: fmt.Errorf("rate limiter: %w", err)}
	}
	if wait := time.Since(start); wait > time.Millisecond {
		recordRateLimitWait(r.Name(), wait)
	}
	return r.next.Send(ctx, p)
}
