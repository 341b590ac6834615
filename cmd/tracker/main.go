package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/eonet-event-tracker/internal/adapter/http"
	"github.com/couchcryptid/eonet-event-tracker/internal/adapter/eonet"
	"github.com/couchcryptid/eonet-event-tracker/internal/config"
	"github.com/couchcryptid/eonet-event-tracker/internal/observability"
	"github.com/couchcryptid/eonet-event-tracker/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fetcher := eonet.NewFetcher(cfg, metrics, logger)
	svc := pipeline.NewService(fetcher, cfg.EONETBaseURL, logger, metrics)

	streamOpts := pipeline.EmitterOptions{
		Interval:          cfg.StreamInterval,
		RewriteTimestamps: cfg.StreamRewriteTimestamps,
		Metrics:           metrics,
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, streamOpts, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Warm the provider connection so /readyz flips without waiting for traffic.
	go func() {
		if _, err := svc.Categories(ctx); err != nil {
			logger.Warn("provider warm-up failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
