// Package resilience provides fault isolation for calls to the chat webhook.
//
// The circuitbreaker subpackage wraps github.com/sony/gobreaker so that a
// failing endpoint is short-circuited instead of tying up dispatcher workers
// for the full request timeout. Failed notifications are never retried.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.WebhookConfig("slack"))
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, transport.Send(ctx, payload)
//	})
package resilience
