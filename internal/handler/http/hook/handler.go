package hook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"wikinotify/internal/domain/entity"
	"wikinotify/internal/handler/http/requestid"
	"wikinotify/internal/handler/http/respond"
	"wikinotify/internal/observability/logging"
	"wikinotify/internal/observability/metrics"

	"github.com/go-playground/validator/v10"
)

// EventRouter is the consumer of decoded events.
type EventRouter interface {
	Route(ctx context.Context, ev entity.Event)
}

// Handler serves POST /v1/events.
type Handler struct {
	router   EventRouter
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates the ingest handler.
func NewHandler(router EventRouter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		router:   router,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ServeHTTP decodes one event and routes it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.logger)

	var req EventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.reject(w, logger, decodeStatus(err), err)
		return
	}
	if dec.More() {
		h.reject(w, logger, http.StatusBadRequest, errors.New("body must contain a single JSON object"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.reject(w, logger, http.StatusBadRequest, fmt.Errorf("invalid event: %w", err))
		return
	}

	kind, err := entity.ParseKind(req.Type)
	if err != nil {
		metrics.RecordEventRejected(metrics.RejectUnknownKind)
		logger.Warn("unknown event type", slog.String("type", req.Type))
		respond.JSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ev := req.ToEvent(kind)
	if err := ev.Validate(); err != nil {
		h.reject(w, logger, http.StatusBadRequest, err)
		return
	}

	metrics.RecordEventReceived(string(kind))
	h.router.Route(ctx, ev)

	respond.JSON(w, http.StatusAccepted, EventResponse{
		RequestID: requestid.FromContext(ctx),
		Kind:      string(kind),
	})
}

func (h *Handler) reject(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	reason := metrics.RejectInvalid
	switch status {
	case http.StatusRequestEntityTooLarge:
		reason = metrics.RejectTooLarge
	case http.StatusBadRequest:
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
			errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			reason = metrics.RejectMalformed
		}
	}
	metrics.RecordEventRejected(reason)

	logger.Warn("event rejected",
		slog.Int("status", status),
		slog.String("reason", reason),
		slog.Any("error", err))
	respond.JSON(w, status, ErrorResponse{Error: err.Error()})
}

func decodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
