package http

import (
	"errors"
	"log/slog"
	"net/http"

	"wikinotify/internal/handler/http/hook"
	"wikinotify/internal/handler/http/requestid"
	"wikinotify/internal/handler/http/respond"
	"wikinotify/internal/observability/tracing"

	"github.com/go-chi/chi/v5"
)

// EventsPath is the ingest route.
const EventsPath = "/v1/events"

var errBodyTooLarge = errors.New("request body too large")

// IngestConfig configures NewIngestRouter.
type IngestConfig struct {
	// Secret enables bearer token authentication when non-empty.
	Secret []byte

	// MaxBodyBytes caps the event body.
	MaxBodyBytes int64
}

// NewIngestRouter wires the middleware chain and the event route:
// request id, tracing, recovery, logging, metrics, then auth and body limit.
func NewIngestRouter(router hook.EventRouter, cfg IngestConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		tracing.Middleware(routePattern),
		Recover(logger),
		Logging(logger),
		Metrics,
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, errors.New("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	r.Group(func(r chi.Router) {
		if len(cfg.Secret) > 0 {
			r.Use(hook.BearerAuth(cfg.Secret))
		}
		r.Use(LimitRequestBody(cfg.MaxBodyBytes))
		r.Method(http.MethodPost, EventsPath, hook.NewHandler(router, logger))
	})

	return r
}
