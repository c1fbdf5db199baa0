package entity

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies a notification for the chat client's color bar.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityDanger
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityDanger:
		return "danger"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Color returns the attachment color token understood by the webhook.
// Anything that is neither success nor danger falls back to "warning".
func (s Severity) Color() string {
	switch s {
	case SeveritySuccess:
		return "good"
	case SeverityDanger:
		return "danger"
	default:
		return "warning"
	}
}

// Payload is a transport-neutral notification, built once per event and never modified.
type Payload struct {
	Text       string
	SenderName string
	// Channel overrides the webhook's default channel when non-empty.
	Channel  string
	Severity Severity
}

// TransportKind selects the delivery strategy.
type TransportKind string

const (
	TransportDirectPost    TransportKind = "direct"
	TransportStreamingPost TransportKind = "streaming"
)

// ParseTransportKind accepts the canonical names and the legacy
// "curl" / "file_get_contents" spellings.
func ParseTransportKind(s string) (TransportKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct", "curl":
		return TransportDirectPost, nil
	case "streaming", "file_get_contents":
		return TransportStreamingPost, nil
	default:
		return "", fmt.Errorf("%w: unknown transport %q", ErrInvalidInput, s)
	}
}

// TransportConfig is the process-wide delivery configuration, read-only after startup.
type TransportConfig struct {
	EndpointURL string
	SenderName  string
	Channel     string
	Kind        TransportKind
	Timeout     time.Duration
	// InsecureSkipVerify disables TLS peer and host verification.
	// Only meant for webhook endpoints behind self-signed certificates.
	InsecureSkipVerify bool
}
