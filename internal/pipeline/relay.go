package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/observability"
)

// Publisher writes an emitted event to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Relay forwards a live feed to a Publisher, one event per tick.
type Relay struct {
	emitter   *Emitter
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRelay creates a Relay draining emitter into publisher.
func NewRelay(emitter *Emitter, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Relay {
	return &Relay{
		emitter:   emitter,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run relays events until ctx is cancelled. A failed publish is logged and
// the feed moves on to the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("relay started")
	defer r.logger.Info("relay stopped")

	return r.emitter.Run(ctx, func(ev domain.Event) error {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.metrics.RelayPublished.WithLabelValues("error").Inc()
			r.logger.Warn("publish failed, skipping event", "event_id", ev.ID, "error", err)
			return nil
		}
		r.metrics.RelayPublished.WithLabelValues("success").Inc()
		return nil
	})
}
