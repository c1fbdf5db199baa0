package notifier

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrCircuitOpen is returned by a circuit-broken transport while the endpoint is short-circuited.
var ErrCircuitOpen = errors.New("webhook circuit breaker is open")

// maxErrorBodyBytes bounds how much of an error response is kept for diagnostics.
const maxErrorBodyBytes = 4 << 10

// DeliveryError wraps every failure to hand the payload to the endpoint:
// connection errors, timeouts and non-2xx responses.
type DeliveryError struct {
	Transport  string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s delivery failed with status %d: %v", e.Transport, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Transport, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Webhook error types carried inside a DeliveryError.

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string // Optional custom message
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// checkResponse consumes the response body and maps the status code to an error.
// The body is always drained so the connection can be reused.
func checkResponse(transport string, resp *http.Response) error {
	br := bufio.NewReader(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, br)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(br, maxErrorBodyBytes))
	_, _ = io.Copy(io.Discard, br)
	msg := strings.TrimSpace(string(body))

	var err error
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		err = &RateLimitError{
			Message:    "webhook rate limit exceeded",
			RetryAfter: extractRetryAfter(resp),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		err = &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook client error: %s", msg),
		}
	case resp.StatusCode >= 500:
		err = &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook server error: %s", msg),
		}
	default:
		err = fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, msg)
	}

	return &DeliveryError{Transport: transport, StatusCode: resp.StatusCode, Err: err}
}

// extractRetryAfter reads the Retry-After header in seconds.
// It is reported for diagnostics only; failed notifications are not retried.
func extractRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

// IsEndpointFault reports whether err says something about the health of the
// endpoint, as opposed to a payload that could never be delivered.
func IsEndpointFault(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var encErr *EncodingError
	if errors.As(err, &encErr) {
		return false
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		// 404 and 410 mean the webhook was revoked.
		return clientErr.StatusCode == http.StatusNotFound || clientErr.StatusCode == http.StatusGone
	}
	return true
}

// redactEndpoint hides the webhook path, which carries the secret token, in
// errors returned by the HTTP client. Scheme and host are kept for diagnosis.
func redactEndpoint(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, perr := url.Parse(urlErr.URL); perr == nil {
			urlErr.URL = u.Scheme + "://" + u.Host + "/[redacted]"
		} else {
			urlErr.URL = "[redacted]"
		}
	}
	return err
}
