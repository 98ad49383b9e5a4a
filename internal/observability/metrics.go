package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// event ingestion pipeline.
type Metrics struct {
	FetchRuns     prometheus.Counter
	EventsStored  prometheus.Counter
	FetchRunning  prometheus.Gauge
	LastFetchTime prometheus.Gauge

	// Per-source fetch metrics.
	SourceEvents   *prometheus.CounterVec   // labels: source={eonet,gdacs,reliefweb}
	SourceErrors   *prometheus.CounterVec   // labels: source
	SourceDuration *prometheus.HistogramVec // labels: source

	// Aggregation metrics.
	ZonesComputed prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRuns,
		m.EventsStored,
		m.FetchRunning,
		m.LastFetchTime,
		m.SourceEvents,
		m.SourceErrors,
		m.SourceDuration,
		m.ZonesComputed,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riskmap",
			Name:      "fetch_runs_total",
			Help:      "Total completed fetch cycles across all sources.",
		}),
		EventsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riskmap",
			Name:      "events_stored_total",
			Help:      "Total events upserted into the store.",
		}),
		FetchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "riskmap",
			Name:      "fetch_running",
			Help:      "1 while a fetch cycle is in progress, 0 otherwise.",
		}),
		LastFetchTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "riskmap",
			Name:      "last_fetch_timestamp_seconds",
			Help:      "Unix time of the last successful fetch cycle.",
		}),
		SourceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskmap",
			Name:      "source_events_total",
			Help:      "Events returned per upstream source.",
		}, []string{"source"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskmap",
			Name:      "source_errors_total",
			Help:      "Fetch failures per upstream source.",
		}, []string{"source"}),
		SourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "riskmap",
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of a single source fetch.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		ZonesComputed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "riskmap",
			Name:      "zones_computed",
			Help:      "Number of danger zones produced per aggregation.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
}
