// Package notify turns wiki events into webhook deliveries.
//
// The Router owns the event-kind to handler table and runs the pipeline
// guard -> format -> build -> send for each event. Every failure is logged and
// counted; none is returned to the caller. The Dispatcher moves the send step
// off the caller's goroutine.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"wikinotify/internal/domain/entity"
	"wikinotify/internal/handler/http/requestid"
	"wikinotify/internal/infra/notifier"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MessageFormatter renders an event as message text.
type MessageFormatter interface {
	Format(ev entity.Event) (string, error)
}

// asyncTransport is implemented by transports whose Send only enqueues.
// The delivery outcome is then recorded by the worker that delivers.
type asyncTransport interface {
	Async() bool
}

func isAsync(t notifier.Transport) bool {
	a, ok := t.(asyncTransport)
	return ok && a.Async()
}

// handler is the per-kind routing rule.
type handler struct {
	// skip reports events of this kind that must not produce a notification.
	skip     func(entity.Event) bool
	severity entity.Severity
}

// defaultHandlers returns one handler per supported kind.
func defaultHandlers() map[entity.Kind]handler {
	return map[entity.Kind]handler{
		// Page creation also raises a save; the created event reports it.
		entity.KindArticleSaved: {skip: isPageCreation, severity: entity.SeverityWarning},
		// Uploads create a file description page; the upload event reports it.
		entity.KindArticleCreated: {skip: isFileDescriptionPage, severity: entity.SeveritySuccess},
		entity.KindArticleDeleted: {severity: entity.SeverityDanger},
		entity.KindArticleMoved:   {severity: entity.SeveritySuccess},
		entity.KindAccountCreated: {severity: entity.SeveritySuccess},
		entity.KindUserBlocked:    {severity: entity.SeverityDanger},
		entity.KindFileUploaded:   {severity: entity.SeveritySuccess},
	}
}

func isPageCreation(ev entity.Event) bool {
	return ev.Saved != nil && ev.Saved.IsNew
}

func isFileDescriptionPage(ev entity.Event) bool {
	return ev.Created != nil && ev.Created.Article.InNamespace(entity.FileNamespace)
}

// Router dispatches events to the transport.
type Router struct {
	formatter MessageFormatter
	transport notifier.Transport
	config    entity.TransportConfig
	handlers  map[entity.Kind]handler
	logger    *slog.Logger
	tracer    trace.Tracer
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

// WithEnabledKinds restricts the router to the given kinds.
// Events of other kinds are counted as disabled and otherwise ignored.
func WithEnabledKinds(kinds []entity.Kind) RouterOption {
	return func(r *Router) {
		r.handlers = lo.PickByKeys(r.handlers, kinds)
	}
}

// WithLogger sets the router logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithTracer sets the tracer used for route spans.
func WithTracer(tracer trace.Tracer) RouterOption {
	return func(r *Router) {
		r.tracer = tracer
	}
}

// NewRouter creates a Router with a handler for every kind unless restricted
// by WithEnabledKinds. The table is fixed after construction.
func NewRouter(formatter MessageFormatter, transport notifier.Transport, cfg entity.TransportConfig, opts ...RouterOption) *Router {
	r := &Router{
		formatter: formatter,
		transport: transport,
		config:    cfg,
		handlers:  defaultHandlers(),
		logger:    slog.Default(),
		tracer:    otel.Tracer("wikinotify/notify"),
	}
	for _, opt := range opts {
		opt(r)
	}

	SetHandlersEnabled(len(r.handlers))
	r.logger.Info("notification router ready",
		slog.String("transport", transport.Name()),
		slog.Any("kinds", r.EnabledKinds()))

	return r
}

// EnabledKinds returns the kinds the router handles, sorted.
func (r *Router) EnabledKinds() []entity.Kind {
	kinds := lo.Keys(r.handlers)
	slices.Sort(kinds)
	return kinds
}

// Route runs the notification pipeline for ev. It never fails and never panics:
// filtered events, invalid events and delivery failures are logged and counted.
func (r *Router) Route(ctx context.Context, ev entity.Event) {
	kind := ev.Kind()
	h, ok := r.handlers[kind]
	if !ok {
		RecordRouted(kind, OutcomeDisabled)
		r.logger.DebugContext(ctx, "No handler for event kind", slog.String("kind", string(kind)))
		return
	}

	ctx, requestID := requestid.Ensure(ctx)

	ctx, span := r.tracer.Start(ctx, "notify.Route",
		trace.WithAttributes(
			attribute.String("event.kind", string(kind)),
			attribute.String("request_id", requestID),
		))
	defer span.End()

	logger := r.logger.With(
		slog.String("request_id", requestID),
		slog.String("kind", string(kind)),
		slog.String("actor", ev.Actor()))

	// Panic recovery
	defer func() {
		if rec := recover(); rec != nil {
			RecordRouted(kind, OutcomePanic)
			span.SetStatus(codes.Error, "panic")
			logger.ErrorContext(ctx, "Panic while routing event",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	if h.skip != nil && h.skip(ev) {
		RecordRouted(kind, OutcomeFiltered)
		logger.DebugContext(ctx, "Event filtered by guard")
		return
	}

	text, err := r.formatter.Format(ev)
	if err != nil {
		RecordRouted(kind, OutcomeInvalid)
		span.RecordError(err)
		span.SetStatus(codes.Error, "format failed")
		logger.WarnContext(ctx, "Event could not be formatted", slog.Any("error", err))
		return
	}

	payload := Build(text, h.severity, r.config)

	start := time.Now()
	err = r.transport.Send(ctx, payload)
	duration := time.Since(start)

	async := isAsync(r.transport)

	if err != nil {
		outcome := classifySendError(err)
		RecordRouted(kind, outcome)
		if !async {
			RecordFailure(r.transport.Name(), duration)
		}
		if errors.Is(err, notifier.ErrCircuitOpen) {
			RecordDropped("circuit_open")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger.WarnContext(ctx, "Notification not delivered",
			slog.String("outcome", outcome),
			slog.String("transport", r.transport.Name()),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}

	if async {
		RecordRouted(kind, OutcomeQueued)
		logger.DebugContext(ctx, "Notification queued",
			slog.String("transport", r.transport.Name()),
			slog.String("severity", h.severity.String()))
		return
	}

	RecordRouted(kind, OutcomeSent)
	RecordSuccess(r.transport.Name(), duration)
	logger.InfoContext(ctx, "Notification sent",
		slog.String("transport", r.transport.Name()),
		slog.String("severity", h.severity.String()),
		slog.Duration("send_duration", duration))
}

// classifySendError maps a transport error to a route outcome.
func classifySendError(err error) string {
	var encErr *notifier.EncodingError
	switch {
	case errors.As(err, &encErr):
		return OutcomeEncodingError
	case errors.Is(err, ErrQueueFull),
		errors.Is(err, ErrDispatcherClosed),
		errors.Is(err, notifier.ErrCircuitOpen):
		return OutcomeDropped
	default:
		return OutcomeFailed
	}
}
