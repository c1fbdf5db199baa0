// Package ops serves the operational endpoints: liveness, readiness,
// webhook transport health and Prometheus metrics. It listens on its own
// address so that probes and scrapes never compete with event ingestion.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"wikinotify/internal/handler/http/respond"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BreakerState reports the webhook circuit breaker state
// ("closed", "half-open" or "open").
type BreakerState interface {
	State() string
}

// QueueState reports how full the delivery queue is.
type QueueState interface {
	QueueDepth() int
	Capacity() int
}

// Server provides the operational HTTP endpoints:
//   - GET /health: liveness, always 200
//   - GET /health/ready: 200 once SetReady(true) was called, 503 otherwise
//   - GET /health/transport: breaker state and queue fill, 503 while the breaker is open
//   - GET /metrics: Prometheus exposition
type Server struct {
	addr    string
	logger  *slog.Logger
	ready   atomic.Bool
	breaker BreakerState
	queue   QueueState
	server  *http.Server

	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithBreaker exposes the breaker state on /health/transport.
func WithBreaker(b BreakerState) Option {
	return func(s *Server) { s.breaker = b }
}

// WithQueue exposes the delivery queue on /health/transport.
func WithQueue(q QueueState) Option {
	return func(s *Server) { s.queue = q }
}

// WithShutdownTimeout bounds graceful shutdown. Default 5s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

type healthResponse struct {
	Status string `json:"status"`
}

// TransportHealth is the body of /health/transport.
type TransportHealth struct {
	Status        string `json:"status"`
	Circuit       string `json:"circuit,omitempty"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

// NewServer creates the ops server. It starts not ready.
func NewServer(addr string, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:            addr,
		logger:          logger,
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the endpoint mux.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleLiveness)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/transport", s.handleTransport)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
// It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("ops server starting", slog.String("addr", s.addr))
		errChan <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("ops server shutting down")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("ops server shutdown failed", slog.Any("error", err))
			return err
		}
		s.logger.Info("ops server stopped")
		return nil

	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("ops server failed", slog.Any("error", err))
		return err
	}
}

// SetReady flips the readiness probe.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
	s.logger.Info("readiness changed", slog.Bool("ready", ready))
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		respond.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}
	respond.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleTransport reports degraded while the breaker is open. Events are
// still accepted then, they are just dropped until the endpoint recovers.
func (s *Server) handleTransport(w http.ResponseWriter, _ *http.Request) {
	resp := TransportHealth{Status: "ok"}
	if s.queue != nil {
		resp.QueueDepth = s.queue.QueueDepth()
		resp.QueueCapacity = s.queue.Capacity()
	}
	status := http.StatusOK
	if s.breaker != nil {
		resp.Circuit = s.breaker.State()
		if resp.Circuit == "open" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	respond.JSON(w, status, resp)
}
