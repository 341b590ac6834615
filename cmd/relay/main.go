// Command relay fetches one batch of EONET events and replays it as a paced
// live feed into a Kafka topic until interrupted.
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
	kafkaadapter "github.com/couchcryptid/eonet-event-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/eonet-event-tracker/internal/config"
	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := pipeline.NewService(eonet.NewFetcher(cfg, metrics, logger), cfg.EONETBaseURL, logger, metrics)
	events, err := fetchBatch(ctx, svc, cfg)
	if err != nil {
		logger.Error("failed to fetch relay batch", "error", err)
		os.Exit(1)
	}
	logger.Info("relay batch fetched",
		"events", len(events),
		"status", cfg.RelayStatus,
		"category", cfg.RelayCategory,
	)

	writer := kafkaadapter.NewWriter(cfg, logger)
	emitter := pipeline.NewEmitter(events, pipeline.EmitterOptions{
		Interval:          cfg.StreamInterval,
		RewriteTimestamps: cfg.StreamRewriteTimestamps,
		Metrics:           metrics,
	})
	relay := pipeline.NewRelay(emitter, writer, logger, metrics)

	srv := httpadapter.NewStatusServer(cfg.HTTPAddr, svc, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := relay.Run(ctx); err != nil {
		logger.Error("relay error", "error", err)
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func fetchBatch(ctx context.Context, svc *pipeline.Service, cfg *config.Config) ([]domain.Event, error) {
	q := pipeline.EventQuery{
		Status:            domain.EventStatus(cfg.RelayStatus),
		PriorDays:         cfg.RelayDays,
		MinAffectedPlaces: cfg.RelayMinPlaces,
	}
	if cfg.RelayCategory > 0 {
		return svc.CategoryEvents(ctx, cfg.RelayCategory, q)
	}
	return svc.Events(ctx, q)
}
