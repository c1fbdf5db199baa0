package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"wikinotify/internal/domain/entity"
)

// DirectPost sends the form body in a single buffered POST over a pooled connection.
type DirectPost struct {
	config     entity.TransportConfig
	httpClient *http.Client
}

// NewDirectPost creates a DirectPost transport.
//
// The HTTP client keeps connections alive between notifications, uses the
// configured timeout (DefaultTimeout when unset) and verifies TLS certificates
// unless cfg.InsecureSkipVerify is set.
func NewDirectPost(cfg entity.TransportConfig, opts ...Option) *DirectPost {
	return &DirectPost{
		config:     cfg,
		httpClient: newHTTPClient(cfg, true, applyOptions(opts)),
	}
}

// Name implements Transport.
func (d *DirectPost) Name() string {
	return string(entity.TransportDirectPost)
}

// Send implements Transport. The response body is discarded.
func (d *DirectPost) Send(ctx context.Context, p entity.Payload) error {
	body, err := EncodeBody(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.EndpointURL, strings.NewReader(body))
	if err != nil {
		return &DeliveryError{Transport: d.Name(), Err: fmt.Errorf("create http request: %w", err)}
	}
	req.Header.Set("Content-Type", formContentType)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Transport: d.Name(), Err: fmt.Errorf("execute http request: %w", redactEndpoint(err))}
	}
	defer func() { _ = resp.Body.Close() }()

	return checkResponse(d.Name(), resp)
}
