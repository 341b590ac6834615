package eonet

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/eonet-event-tracker/internal/config"
	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/observability"
)

// NewFetcher builds the provider fetcher described by cfg: a Client, wrapped
// in a CachedFetcher when EONETCacheSize is positive.
func NewFetcher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Fetcher {
	client := NewClient(cfg.EONETTimeout, metrics, logger)
	if cfg.EONETCacheSize <= 0 {
		logger.Info("eonet response cache disabled")
		return client
	}
	logger.Info("eonet response cache enabled", "size", cfg.EONETCacheSize, "ttl", cfg.EONETCacheTTL)
	return NewCachedFetcher(client, cfg.EONETCacheSize, cfg.EONETCacheTTL, clockwork.NewRealClock(), metrics)
}
