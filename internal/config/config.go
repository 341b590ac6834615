package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// EONET provider configuration.
	EONETBaseURL   string
	EONETTimeout   time.Duration
	EONETCacheSize int
	EONETCacheTTL  time.Duration

	// Live feed configuration.
	StreamInterval          time.Duration
	StreamRewriteTimestamps bool

	// Relay configuration.
	KafkaBrokers   []string
	KafkaTopic     string
	RelayStatus    string
	RelayDays      int
	RelayMinPlaces int
	RelayCategory  int
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	eonetTimeout, err := parsePositiveDuration("EONET_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("EONET_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	streamInterval, err := parsePositiveDuration("STREAM_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseNonNegativeInt("EONET_CACHE_SIZE", "0")
	if err != nil {
		return nil, err
	}
	relayDays, err := parseNonNegativeInt("RELAY_DAYS", "0")
	if err != nil {
		return nil, err
	}
	relayMinPlaces, err := parseNonNegativeInt("RELAY_MIN_PLACES", "0")
	if err != nil {
		return nil, err
	}
	relayCategory, err := parseNonNegativeInt("RELAY_CATEGORY", "0")
	if err != nil {
		return nil, err
	}

	rewrite, err := strconv.ParseBool(sharedcfg.EnvOrDefault("STREAM_REWRITE_TIMESTAMPS", "false"))
	if err != nil {
		return nil, errors.New("invalid STREAM_REWRITE_TIMESTAMPS")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		EONETBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("EONET_BASE_URL", "https://eonet.sci.gsfc.nasa.gov/api/v2.1"), "/"),
		EONETTimeout:   eonetTimeout,
		EONETCacheSize: cacheSize,
		EONETCacheTTL:  cacheTTL,

		StreamInterval:          streamInterval,
		StreamRewriteTimestamps: rewrite,

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", "eonet-live-events"),
		RelayStatus:    sharedcfg.EnvOrDefault("RELAY_STATUS", "open"),
		RelayDays:      relayDays,
		RelayMinPlaces: relayMinPlaces,
		RelayCategory:  relayCategory,
	}

	if cfg.EONETBaseURL == "" {
		return nil, errors.New("EONET_BASE_URL is required")
	}
	switch cfg.RelayStatus {
	case "open", "closed", "all":
	default:
		return nil, fmt.Errorf("invalid RELAY_STATUS %q", cfg.RelayStatus)
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key, def string) (int, error) {
	s := def
	if v := os.Getenv(key); v != "" {
		s = v
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
