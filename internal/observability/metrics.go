package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wildlife_hotspot"

// Metrics holds the Prometheus counters, histograms, and gauges for the monitor.
type Metrics struct {
	PositionsConsumed   prometheus.Counter
	PositionParseErrors prometheus.Counter
	AlertsRaised        *prometheus.CounterVec // labels: tier={extreme,high}
	AlertsPublished     prometheus.Counter
	TrackerRunning      prometheus.Gauge
	VehiclesTracked     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Hotspot refresh metrics.
	Hotspots        prometheus.Gauge
	Reloads         *prometheus.CounterVec // labels: outcome={success,error}
	ReloadDuration  prometheus.Histogram
	SegmentsSkipped prometheus.Counter
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PositionsConsumed,
		m.PositionParseErrors,
		m.AlertsRaised,
		m.AlertsPublished,
		m.TrackerRunning,
		m.VehiclesTracked,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Hotspots,
		m.Reloads,
		m.ReloadDuration,
		m.SegmentsSkipped,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PositionsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_consumed_total",
			Help:      "Total position updates evaluated against the hotspot registry.",
		}),
		PositionParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "position_parse_errors_total",
			Help:      "Total position messages skipped because they could not be decoded.",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Proximity alerts raised by tier.",
		}, []string{"tier"}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Total alert events written to the alert sink.",
		}),
		TrackerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracker_running",
			Help:      "1 when the position tracker is active, 0 when shut down.",
		}),
		VehiclesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicles_tracked",
			Help:      "Distinct vehicles with their own hotspot latches.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of position messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-evaluate-publish cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Hotspots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hotspots",
			Help:      "Number of hotspots in the active registry.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Hotspot registry reloads by outcome.",
		}, []string{"outcome"}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Duration of a segment fetch and registry rebuild.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SegmentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_skipped_total",
			Help:      "Segment records dropped because they were not decodable objects.",
		}),
	}
}
