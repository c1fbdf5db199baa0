package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"wikinotify/internal/domain/entity"
	"wikinotify/internal/handler/http/hook"
	"wikinotify/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerSpy struct {
	mu     sync.Mutex
	events []entity.Event
	ids    []string
}

func (s *routerSpy) Route(ctx context.Context, ev entity.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	s.ids = append(s.ids, requestid.FromContext(ctx))
}

var ingestSecret = []byte("0123456789abcdef0123456789abcdef")

const savedEvent = `{"type":"article_saved","actor":"Alice","title":"Main Page","summary":"typo"}`

func newTestServer(t *testing.T, cfg IngestConfig) (*httptest.Server, *routerSpy) {
	t.Helper()
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 10
	}
	spy := &routerSpy{}
	srv := httptest.NewServer(NewIngestRouter(spy, cfg, discardLogger()))
	t.Cleanup(srv.Close)
	return srv, spy
}

func doRequest(t *testing.T, method, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestIngestRouter_AcceptsEvent(t *testing.T) {
	srv, spy := newTestServer(t, IngestConfig{})

	resp := doRequest(t, http.MethodPost, srv.URL+EventsPath, savedEvent,
		http.Header{requestid.RequestIDHeader: {"wiki-42"}})

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "wiki-42", resp.Header.Get(requestid.RequestIDHeader))

	var body hook.EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, hook.EventResponse{RequestID: "wiki-42", Kind: "article_saved"}, body)

	require.Len(t, spy.events, 1)
	assert.Equal(t, entity.KindArticleSaved, spy.events[0].Kind())
	assert.Equal(t, "wiki-42", spy.ids[0])
}

func TestIngestRouter_Auth(t *testing.T) {
	srv, spy := newTestServer(t, IngestConfig{Secret: ingestSecret})

	token, err := hook.IssueToken(ingestSecret, "mediawiki", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{name: "no token", header: nil, want: http.StatusUnauthorized},
		{name: "bad token", header: http.Header{"Authorization": {"Bearer nope"}}, want: http.StatusUnauthorized},
		{name: "valid token", header: http.Header{"Authorization": {"Bearer " + token}}, want: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, srv.URL+EventsPath, savedEvent, tt.header)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	assert.Len(t, spy.events, 1, "only the authenticated request is routed")
}

func TestIngestRouter_Errors(t *testing.T) {
	srv, spy := newTestServer(t, IngestConfig{MaxBodyBytes: 64})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "body too large", method: http.MethodPost, path: EventsPath, body: `{"type":"article_saved","summary":"` + strings.Repeat("x", 100) + `"}`, want: http.StatusRequestEntityTooLarge},
		{name: "malformed", method: http.MethodPost, path: EventsPath, body: `{`, want: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodPost, path: "/v1/other", body: `{}`, want: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: EventsPath, want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, tt.method, srv.URL+tt.path, tt.body, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.NotEmpty(t, resp.Header.Get(requestid.RequestIDHeader))

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}

	assert.Empty(t, spy.events)
}
