package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"wikinotify/internal/domain/entity"
)

// streamChunkSize is the write size used when streaming the request body.
const streamChunkSize = 512

// StreamingPost writes the form body through a pipe, producing a chunked
// request on a fresh connection, and reads the response through a buffered
// reader. It suits relays that reject pooled connections.
type StreamingPost struct {
	config     entity.TransportConfig
	httpClient *http.Client
}

// NewStreamingPost creates a StreamingPost transport.
func NewStreamingPost(cfg entity.TransportConfig, opts ...Option) *StreamingPost {
	return &StreamingPost{
		config:     cfg,
		httpClient: newHTTPClient(cfg, false, applyOptions(opts)),
	}
}

// Name implements Transport.
func (s *StreamingPost) Name() string {
	return string(entity.TransportStreamingPost)
}

// Send implements Transport.
func (s *StreamingPost) Send(ctx context.Context, p entity.Payload) error {
	body, err := EncodeBody(p)
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		// Hide strings.Reader's WriterTo so the body is written in chunks.
		src := struct{ io.Reader }{strings.NewReader(body)}
		buf := make([]byte, streamChunkSize)
		_, err := io.CopyBuffer(pw, src, buf)
		// The client closes pr when the request fails early, which unblocks the copy.
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.EndpointURL, pr)
	if err != nil {
		_ = pr.Close()
		return &DeliveryError{Transport: s.Name(), Err: fmt.Errorf("create http request: %w", err)}
	}
	req.ContentLength = -1
	req.Header.Set("Content-Type", formContentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Transport: s.Name(), Err: fmt.Errorf("execute http request: %w", redactEndpoint(err))}
	}
	defer func() { _ = resp.Body.Close() }()

	return checkResponse(s.Name(), resp)
}
