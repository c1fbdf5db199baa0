// Command wikinotify receives wiki events over HTTP and posts them to a
// Slack-compatible incoming webhook.
//
// Usage:
//
//	wikinotify              run the service
//	wikinotify token NAME   print an ingest token for NAME (needs WIKINOTIFY_SERVER_INGEST_SECRET)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wikinotify/internal/config"
	"wikinotify/internal/domain/entity"
	ingest "wikinotify/internal/handler/http"
	"wikinotify/internal/handler/http/hook"
	"wikinotify/internal/handler/http/ops"
	"wikinotify/internal/infra/notifier"
	"wikinotify/internal/observability/logging"
	"wikinotify/internal/observability/tracing"
	"wikinotify/internal/usecase/format"
	"wikinotify/internal/usecase/notify"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("wikinotify stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}

	transport, err := newTransport(cfg, logger)
	if err != nil {
		return err
	}
	breaker := notifier.WithCircuitBreaker(transport, cfg.Breaker)
	dispatcher := notify.NewDispatcher(breaker, cfg.Dispatch, logger)

	router := notify.NewRouter(
		format.New(entity.NewWikiLinker(cfg.Wiki)),
		dispatcher,
		cfg.TransportConfig(),
		notify.WithEnabledKinds(cfg.EnabledKinds()),
		notify.WithLogger(logger),
	)

	ingestServer := &http.Server{
		Addr: cfg.Server.IngestAddr,
		Handler: ingest.NewIngestRouter(router, ingest.IngestConfig{
			Secret:       []byte(cfg.Server.IngestSecret),
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
		}, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if cfg.Server.IngestSecret == "" {
		logger.Warn("ingest endpoint is unauthenticated; set WIKINOTIFY_SERVER_INGEST_SECRET")
	}

	opsServer := ops.NewServer(cfg.Server.MetricsAddr, logger,
		ops.WithBreaker(breaker),
		ops.WithQueue(dispatcher),
		ops.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return opsServer.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("ingest server starting", slog.String("addr", ingestServer.Addr))
		if err := ingestServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ingest server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		opsServer.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop intake first so nothing is queued after the dispatcher closes.
		if err := ingestServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("ingest server shutdown failed", slog.Any("error", err))
		}
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			logger.Error("dispatcher shutdown incomplete", slog.Any("error", err))
		}
		return nil
	})

	opsServer.SetReady(true)
	logger.Info("wikinotify started",
		slog.String("transport", transport.Name()),
		slog.Bool("dry_run", cfg.Webhook.DryRun),
		slog.Any("kinds", router.EnabledKinds()))

	err = g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if terr := shutdownTracing(flushCtx); terr != nil {
		logger.Warn("tracing shutdown failed", slog.Any("error", terr))
	}

	logger.Info("wikinotify stopped")
	return err
}

// newTransport builds the innermost transport, rate limited when configured.
func newTransport(cfg *config.Config, logger *slog.Logger) (notifier.Transport, error) {
	var transport notifier.Transport
	if cfg.Webhook.DryRun {
		transport = notifier.NewDryRun(logger)
	} else {
		t, err := notifier.New(cfg.TransportConfig())
		if err != nil {
			return nil, err
		}
		transport = t
	}

	if cfg.Webhook.RatePerSecond > 0 {
		transport = notifier.WithRateLimit(transport,
			notifier.NewRateLimiter(cfg.Webhook.RatePerSecond, cfg.Webhook.Burst))
	}
	return transport, nil
}

func issueToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 365*24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: wikinotify token [-ttl DURATION] NAME")
	}

	secret := os.Getenv(config.EnvPrefix + "_SERVER_INGEST_SECRET")
	if len(secret) < 32 {
		return errors.New("WIKINOTIFY_SERVER_INGEST_SECRET must hold at least 32 bytes")
	}

	token, err := hook.IssueToken([]byte(secret), fs.Arg(0), *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
