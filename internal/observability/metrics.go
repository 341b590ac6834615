package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eonet_tracker"

// Metrics holds the Prometheus collectors for provider calls, decoding, and live feeds.
type Metrics struct {
	// Provider metrics.
	ProviderRequests        *prometheus.CounterVec   // labels: endpoint={events,categories,category_events}, outcome={success,error}
	ProviderRequestDuration *prometheus.HistogramVec // labels: endpoint
	ProviderCache           *prometheus.CounterVec   // labels: result={hit,miss}
	DecodeErrors            *prometheus.CounterVec   // labels: kind
	DegradedRetrievals      prometheus.Counter

	EventsReturned prometheus.Histogram

	// Live feed metrics.
	ActiveStreams       prometheus.Gauge
	StreamEventsEmitted prometheus.Counter
	RelayPublished      *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderRequestDuration,
		m.ProviderCache,
		m.DecodeErrors,
		m.DegradedRetrievals,
		m.EventsReturned,
		m.ActiveStreams,
		m.StreamEventsEmitted,
		m.RelayPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewUnregisteredMetrics creates Metrics for short-lived tools that never
// serve /metrics.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "EONET API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "EONET API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		ProviderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Provider response cache lookups by result.",
		}, []string{"result"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Provider documents rejected by the decoder, by error kind.",
		}, []string{"kind"}),
		DegradedRetrievals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_retrievals_total",
			Help:      "Retrievals that failed and contributed an empty list.",
		}),
		EventsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "events_returned",
			Help:      "Number of events returned per query after filtering.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Live feeds currently emitting.",
		}),
		StreamEventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_emitted_total",
			Help:      "Events delivered by live feeds.",
		}),
		RelayPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_published_total",
			Help:      "Live feed events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
