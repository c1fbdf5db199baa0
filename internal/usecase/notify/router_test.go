package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wikinotify/internal/domain/entity"
	"wikinotify/internal/handler/http/requestid"
	"wikinotify/internal/infra/notifier"
	"wikinotify/internal/mocks"
	"wikinotify/internal/usecase/format"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

const wikiPrefix = "https://wiki.example.org/index.php?title="

var testTransportConfig = entity.TransportConfig{
	SenderName: "WikiBot",
	Timeout:    5 * time.Second,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFormatter() *format.Formatter {
	cfg := entity.DefaultLinkConfig()
	cfg.BaseURL = "https://wiki.example.org/"
	return format.New(entity.NewWikiLinker(cfg))
}

func newTestRouter(tr notifier.Transport, opts ...RouterOption) *Router {
	opts = append([]RouterOption{WithLogger(discardLogger())}, opts...)
	return NewRouter(testFormatter(), tr, testTransportConfig, opts...)
}

func newMockTransport(t *testing.T) *mocks.MockTransport {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Name().Return("mock").AnyTimes()
	return tr
}

func TestRouter_ArticleDeletedScenario(t *testing.T) {
	tr := newMockTransport(t)
	want := entity.Payload{
		Text:       "<" + wikiPrefix + "User:Alice|Alice> has deleted article <" + wikiPrefix + "Foo|Foo> Reason: spam",
		SenderName: "WikiBot",
		Severity:   entity.SeverityDanger,
	}
	tr.EXPECT().Send(gomock.Any(), want).Return(nil).Times(1)

	router := newTestRouter(tr)
	router.Route(context.Background(), entity.NewArticleDeleted(entity.ArticleDeleted{
		Actor:   entity.UserRef{Name: "Alice"},
		Article: entity.NewEntityRef("Foo", ""),
		Reason:  "spam",
	}))
}

func TestRouter_UserBlockedWithoutReason(t *testing.T) {
	tr := newMockTransport(t)
	var got entity.Payload
	tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p entity.Payload) error {
		got = p
		return nil
	}).Times(1)

	router := newTestRouter(tr)
	router.Route(context.Background(), entity.NewUserBlocked(entity.UserBlocked{
		Actor:  entity.UserRef{Name: "Admin"},
		Target: entity.UserRef{Name: "Bob"},
		Expiry: "indefinite",
	}))

	assert.Equal(t, entity.SeverityDanger, got.Severity)
	assert.NotContains(t, got.Text, "with reason")
	assert.Contains(t, got.Text, "Block expiration: indefinite.")
}

func TestRouter_Guards(t *testing.T) {
	alice := entity.UserRef{Name: "Alice"}

	tests := []struct {
		name      string
		event     entity.Event
		wantSends int
	}{
		{
			name:      "save of a new page is suppressed",
			event:     entity.NewArticleSaved(entity.ArticleSaved{Actor: alice, Article: entity.NewEntityRef("Foo", ""), IsNew: true}),
			wantSends: 0,
		},
		{
			name:      "save of an existing page is sent",
			event:     entity.NewArticleSaved(entity.ArticleSaved{Actor: alice, Article: entity.NewEntityRef("Foo", "")}),
			wantSends: 1,
		},
		{
			name:      "creation in the File namespace is suppressed",
			event:     entity.NewArticleCreated(entity.ArticleCreated{Actor: alice, Article: entity.NewEntityRef("File:Logo.png", "")}),
			wantSends: 0,
		},
		{
			name:      "creation in another namespace is sent",
			event:     entity.NewArticleCreated(entity.ArticleCreated{Actor: alice, Article: entity.NewEntityRef("Help:Logo", "")}),
			wantSends: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newMockTransport(t)
			tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(tt.wantSends)

			newTestRouter(tr).Route(context.Background(), tt.event)
		})
	}
}

func TestRouter_Severities(t *testing.T) {
	alice := entity.UserRef{Name: "Alice"}
	foo := entity.NewEntityRef("Foo", "")

	tests := []struct {
		event entity.Event
		want  entity.Severity
	}{
		{entity.NewArticleSaved(entity.ArticleSaved{Actor: alice, Article: foo}), entity.SeverityWarning},
		{entity.NewArticleCreated(entity.ArticleCreated{Actor: alice, Article: foo}), entity.SeveritySuccess},
		{entity.NewArticleDeleted(entity.ArticleDeleted{Actor: alice, Article: foo, Reason: "r"}), entity.SeverityDanger},
		{entity.NewArticleMoved(entity.ArticleMoved{Actor: alice, OldTitle: foo, NewTitle: entity.NewEntityRef("Bar", "")}), entity.SeveritySuccess},
		{entity.NewAccountCreated(entity.AccountCreated{Account: alice}), entity.SeveritySuccess},
		{entity.NewUserBlocked(entity.UserBlocked{Actor: alice, Target: entity.UserRef{Name: "Bob"}, Expiry: "1 day"}), entity.SeverityDanger},
		{entity.NewFileUploaded(entity.FileUploaded{Actor: alice, File: entity.NewEntityRef("File:A.png", "")}), entity.SeveritySuccess},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Kind()), func(t *testing.T) {
			tr := newMockTransport(t)
			tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p entity.Payload) error {
				assert.Equal(t, tt.want, p.Severity)
				return nil
			}).Times(1)

			newTestRouter(tr).Route(context.Background(), tt.event)
		})
	}
}

func TestRouter_SubstitutesDoubleQuotes(t *testing.T) {
	tr := newMockTransport(t)
	tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p entity.Payload) error {
		assert.NotContains(t, p.Text, `"`)
		assert.Contains(t, p.Text, `Summary: fixed 'quotes'`)
		return nil
	}).Times(1)

	newTestRouter(tr).Route(context.Background(), entity.NewArticleSaved(entity.ArticleSaved{
		Actor:   entity.UserRef{Name: "Alice"},
		Article: entity.NewEntityRef("Foo", ""),
		Summary: `fixed "quotes"`,
	}))
}

func TestRouter_MissingFieldIsNotSent(t *testing.T) {
	tr := newMockTransport(t)
	tr.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	before := testutil.ToFloat64(eventsRoutedTotal.WithLabelValues(string(entity.KindArticleDeleted), OutcomeInvalid))

	newTestRouter(tr).Route(context.Background(), entity.NewArticleDeleted(entity.ArticleDeleted{
		Actor:   entity.UserRef{Name: "Alice"},
		Article: entity.NewEntityRef("Foo", ""),
	}))

	after := testutil.ToFloat64(eventsRoutedTotal.WithLabelValues(string(entity.KindArticleDeleted), OutcomeInvalid))
	assert.Equal(t, before+1, after)
}

func TestRouter_DeliveryFailureIsSwallowed(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantOutcome string
	}{
		{
			name:        "network error",
			err:         &notifier.DeliveryError{Transport: "mock", Err: errors.New("connection refused")},
			wantOutcome: OutcomeFailed,
		},
		{
			name:        "circuit open",
			err:         notifier.ErrCircuitOpen,
			wantOutcome: OutcomeDropped,
		},
		{
			name:        "queue full",
			err:         ErrQueueFull,
			wantOutcome: OutcomeDropped,
		},
		{
			name:        "encoding error",
			err:         &notifier.EncodingError{Field: "username", Err: errors.New("unescaped double quote")},
			wantOutcome: OutcomeEncodingError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newMockTransport(t)
			tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(tt.err).Times(1)

			label := eventsRoutedTotal.WithLabelValues(string(entity.KindAccountCreated), tt.wantOutcome)
			before := testutil.ToFloat64(label)

			assert.NotPanics(t, func() {
				newTestRouter(tr).Route(context.Background(), entity.NewAccountCreated(entity.AccountCreated{
					Account: entity.UserRef{Name: "Newbie"},
				}))
			})

			assert.Equal(t, before+1, testutil.ToFloat64(label))
		})
	}
}

func TestRouter_RecoversFromTransportPanic(t *testing.T) {
	tr := newMockTransport(t)
	tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, entity.Payload) error {
		panic("boom")
	}).Times(1)

	label := eventsRoutedTotal.WithLabelValues(string(entity.KindUserBlocked), OutcomePanic)
	before := testutil.ToFloat64(label)

	assert.NotPanics(t, func() {
		newTestRouter(tr).Route(context.Background(), entity.NewUserBlocked(entity.UserBlocked{
			Actor:  entity.UserRef{Name: "Admin"},
			Target: entity.UserRef{Name: "Bob"},
			Expiry: "infinite",
		}))
	})
	assert.Equal(t, before+1, testutil.ToFloat64(label))
}

func TestRouter_EnabledKinds(t *testing.T) {
	tr := newMockTransport(t)
	tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	router := newTestRouter(tr, WithEnabledKinds([]entity.Kind{entity.KindUserBlocked, entity.KindArticleDeleted}))

	assert.Equal(t, []entity.Kind{entity.KindArticleDeleted, entity.KindUserBlocked}, router.EnabledKinds())

	alice := entity.UserRef{Name: "Alice"}
	router.Route(context.Background(), entity.NewArticleSaved(entity.ArticleSaved{Actor: alice, Article: entity.NewEntityRef("Foo", "")}))
	router.Route(context.Background(), entity.NewArticleDeleted(entity.ArticleDeleted{Actor: alice, Article: entity.NewEntityRef("Foo", ""), Reason: "dup"}))
}

func TestRouter_PropagatesRequestID(t *testing.T) {
	t.Run("keeps the caller's id", func(t *testing.T) {
		tr := newMockTransport(t)
		tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ entity.Payload) error {
			assert.Equal(t, "req-123", requestid.FromContext(ctx))
			return nil
		}).Times(1)

		ctx := requestid.WithRequestID(context.Background(), "req-123")
		newTestRouter(tr).Route(ctx, entity.NewAccountCreated(entity.AccountCreated{Account: entity.UserRef{Name: "Newbie"}}))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		tr := newMockTransport(t)
		tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ entity.Payload) error {
			assert.Len(t, requestid.FromContext(ctx), 36)
			return nil
		}).Times(1)

		newTestRouter(tr).Route(context.Background(), entity.NewAccountCreated(entity.AccountCreated{Account: entity.UserRef{Name: "Newbie"}}))
	})
}

func TestRouter_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tr := newMockTransport(t)
	tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	newTestRouter(tr, WithTracer(tp.Tracer("test"))).Route(context.Background(),
		entity.NewAccountCreated(entity.AccountCreated{Account: entity.UserRef{Name: "Newbie"}}))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "notify.Route", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("event.kind", string(entity.KindAccountCreated)))
}

// TestRouter_WireGolden runs format -> build -> send against a real webhook server.
func TestRouter_WireGolden(t *testing.T) {
	bodies := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := entity.TransportConfig{
		EndpointURL: server.URL,
		SenderName:  "WikiBot",
		Channel:     "#wiki",
		Kind:        entity.TransportDirectPost,
		Timeout:     5 * time.Second,
	}
	tr, err := notifier.New(cfg)
	require.NoError(t, err)

	router := NewRouter(testFormatter(), tr, cfg, WithLogger(discardLogger()))
	router.Route(context.Background(), entity.NewArticleDeleted(entity.ArticleDeleted{
		Actor:   entity.UserRef{Name: "Alice"},
		Article: entity.NewEntityRef("Foo", ""),
		Reason:  `"spam"`,
	}))

	want := `payload={"text": "%3Chttps%3A%2F%2Fwiki.example.org%2Findex.php%3Ftitle%3DUser%3AAlice%7CAlice%3E+has+deleted+article+%3Chttps%3A%2F%2Fwiki.example.org%2Findex.php%3Ftitle%3DFoo%7CFoo%3E+Reason%3A+%27spam%27", "username": "WikiBot", "channel": "%23wiki",  "attachments": [ { "color": "danger" } ]}`

	select {
	case got := <-bodies:
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("webhook body mismatch (-want +got):\n%s", diff)
		}
		assert.False(t, strings.Contains(got, `%22`), "double quotes must not reach the wire")
	case <-time.After(2 * time.Second):
		t.Fatal("webhook did not receive a request")
	}
}

func TestRouter_AsyncTransportCountsQueuedNotSent(t *testing.T) {
	inner := &recordingTransport{sendFn: func(context.Context, entity.Payload) error {
		return &notifier.DeliveryError{Transport: "recording", Err: errors.New("connection refused")}
	}}
	dispatcher := NewDispatcher(inner, DispatcherConfig{Workers: 1, QueueSize: 4, SendTimeout: time.Second}, discardLogger())

	kind := string(entity.KindArticleDeleted)
	queued := eventsRoutedTotal.WithLabelValues(kind, OutcomeQueued)
	sent := eventsRoutedTotal.WithLabelValues(kind, OutcomeSent)
	asyncSuccess := notificationSentTotal.WithLabelValues("async", "success")
	innerFailure := notificationSentTotal.WithLabelValues("recording", "failure")
	innerSuccess := notificationSentTotal.WithLabelValues("recording", "success")

	beforeQueued := testutil.ToFloat64(queued)
	beforeSent := testutil.ToFloat64(sent)
	beforeAsyncSuccess := testutil.ToFloat64(asyncSuccess)
	beforeInnerFailure := testutil.ToFloat64(innerFailure)
	beforeInnerSuccess := testutil.ToFloat64(innerSuccess)

	newTestRouter(dispatcher).Route(context.Background(), entity.NewArticleDeleted(entity.ArticleDeleted{
		Actor:   entity.UserRef{Name: "Alice"},
		Article: entity.NewEntityRef("Foo", ""),
		Reason:  "spam",
	}))
	require.NoError(t, dispatcher.Shutdown(context.Background()))

	assert.Equal(t, 1, inner.count())
	assert.Equal(t, beforeQueued+1, testutil.ToFloat64(queued))
	assert.Equal(t, beforeSent, testutil.ToFloat64(sent))
	assert.Equal(t, beforeAsyncSuccess, testutil.ToFloat64(asyncSuccess))
	assert.Equal(t, beforeInnerFailure+1, testutil.ToFloat64(innerFailure))
	assert.Equal(t, beforeInnerSuccess, testutil.ToFloat64(innerSuccess))
}

func TestRouter_AsyncQueueFullIsDroppedNotFailed(t *testing.T) {
	inner := &recordingTransport{started: make(chan struct{}, 1), release: make(chan struct{})}
	dispatcher := NewDispatcher(inner, DispatcherConfig{Workers: 1, QueueSize: 1, SendTimeout: time.Second}, discardLogger())
	defer func() {
		close(inner.release)
		_ = dispatcher.Shutdown(context.Background())
	}()

	// Occupy the worker, then fill the single queue slot.
	require.NoError(t, dispatcher.Send(context.Background(), textPayload("busy")))
	<-inner.started
	require.NoError(t, dispatcher.Send(context.Background(), textPayload("waiting")))

	kind := string(entity.KindAccountCreated)
	dropped := eventsRoutedTotal.WithLabelValues(kind, OutcomeDropped)
	asyncFailure := notificationSentTotal.WithLabelValues("async", "failure")
	beforeDropped := testutil.ToFloat64(dropped)
	beforeAsyncFailure := testutil.ToFloat64(asyncFailure)

	newTestRouter(dispatcher).Route(context.Background(), entity.NewAccountCreated(entity.AccountCreated{
		Account: entity.UserRef{Name: "Newbie"},
	}))

	assert.Equal(t, beforeDropped+1, testutil.ToFloat64(dropped))
	assert.Equal(t, beforeAsyncFailure, testutil.ToFloat64(asyncFailure))
}
