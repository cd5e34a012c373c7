// Package httpapi exposes the engine's operational surface: a liveness
// check and a Prometheus scrape endpoint. No dashboard rendering and no
// interactive menu live here — those are explicitly out of scope.
// Grounded on cryptorun's internal/interfaces/http package: a
// prometheus.NewXVec-per-concern MetricsRegistry registered once at
// construction, a gorilla/mux router with logging/recovery middleware, and
// a JSON health handler.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds every Prometheus series the engine emits.
type MetricsRegistry struct {
	registry *prometheus.Registry

	SignalsEmitted   *prometheus.CounterVec
	RejectionsByReason *prometheus.CounterVec
	CalibrationRuns  prometheus.Counter
	MLRetrainRuns    prometheus.Counter
	MLRetrainSeconds prometheus.Histogram
	QueueDepth       *prometheus.GaugeVec
	FilterLatency    *prometheus.HistogramVec
}

// NewMetricsRegistry constructs and registers the engine's metric series
// against a fresh prometheus.Registry (not the global DefaultRegisterer),
// so multiple engine instances in one test process don't collide.
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()

	m := &MetricsRegistry{
		registry: reg,

		SignalsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalengine_signals_emitted_total",
				Help: "Total signals emitted, by asset and timeframe.",
			},
			[]string{"asset", "timeframe"},
		),

		RejectionsByReason: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalengine_rejections_total",
				Help: "Total signal rejections, by reason vocabulary entry.",
			},
			[]string{"reason"},
		),

		CalibrationRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalengine_calibration_runs_total",
				Help: "Total calibrator recalibration passes.",
			},
		),

		MLRetrainRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalengine_ml_retrain_runs_total",
				Help: "Total ML predictor retraining cycles.",
			},
		),

		MLRetrainSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signalengine_ml_retrain_duration_seconds",
				Help:    "Wall-clock duration of each ML retraining cycle.",
				Buckets: prometheus.DefBuckets,
			},
		),

		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalengine_queue_depth",
				Help: "Current depth of each ingestion queue.",
			},
			[]string{"stream"},
		),

		FilterLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalengine_filter_chain_seconds",
				Help:    "Duration of a full smart-filter chain evaluation.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
			[]string{"asset"},
		),
	}

	reg.MustRegister(
		m.SignalsEmitted,
		m.RejectionsByReason,
		m.CalibrationRuns,
		m.MLRetrainRuns,
		m.MLRetrainSeconds,
		m.QueueDepth,
		m.FilterLatency,
	)

	return m
}

// RecordSignal increments the emitted-signal counter for (asset, timeframe).
func (m *MetricsRegistry) RecordSignal(asset, timeframe string) {
	m.SignalsEmitted.WithLabelValues(asset, timeframe).Inc()
}

// RecordRejection increments the rejection counter for reason.
func (m *MetricsRegistry) RecordRejection(reason string) {
	m.RejectionsByReason.WithLabelValues(reason).Inc()
}

// SetQueueDepth records stream's current queue depth.
func (m *MetricsRegistry) SetQueueDepth(stream string, depth int) {
	m.QueueDepth.WithLabelValues(stream).Set(float64(depth))
}

// Handler returns the promhttp scrape handler bound to this registry.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
