// Package metrics provides Prometheus metrics for the scoring engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Scoring metrics
	propositionsScored prometheus.Counter
	noSignal           prometheus.Counter
	scoringLatency     prometheus.Histogram
	evaluatorAbstains  *prometheus.CounterVec
	evaluatorFailures  *prometheus.CounterVec

	// Worker pool metrics
	poolWorkers prometheus.Gauge

	// Bundle metrics
	bundlesBuilt       prometheus.Counter
	correlationPenalty prometheus.Histogram

	// Calibration metrics
	calibrationRuns  prometheus.Counter
	calibrationSkips *prometheus.CounterVec
	evaluatorWeight  *prometheus.GaugeVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "propedge",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.build()
	return m
}

func (m *Manager) build() {
	factory := promauto.With(m.registry)

	m.propositionsScored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "propositions_scored_total",
		Help: "Propositions scored with at least one contributing evaluator.",
	})
	m.noSignal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "propositions_no_signal_total",
		Help: "Propositions scored with zero contributing evaluators.",
	})
	m.scoringLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "scoring_latency_ms",
		Help:    "Latency of one proposition scoring pass in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.evaluatorAbstains = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "evaluator_abstains_total",
		Help: "Explicit abstentions per evaluator.",
	}, []string{"evaluator"})
	m.evaluatorFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "evaluator_failures_total",
		Help: "Recovered evaluator panics per evaluator.",
	}, []string{"evaluator"})

	m.poolWorkers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "pool_workers",
		Help: "Workers in the scoring pool.",
	})

	m.bundlesBuilt = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "bundles_built_total",
		Help: "Bundles assembled from the scored pool.",
	})
	m.correlationPenalty = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "correlation_penalty",
		Help:    "Magnitude of correlation penalties applied to bundles.",
		Buckets: []float64{2.5, 5, 7.5, 10, 15, 20},
	})

	m.calibrationRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "calibration_runs_total",
		Help: "Committed calibration runs.",
	})
	m.calibrationSkips = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "calibration_skips_total",
		Help: "Skipped evaluator adjustments by audit reason.",
	}, []string{"reason"})
	m.evaluatorWeight = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "evaluator_weight",
		Help: "Current weight per evaluator.",
	}, []string{"evaluator"})
}

// Registry returns the registry all engine metrics are registered on.
func Registry() *prometheus.Registry {
	return customRegistry
}

// Package-level recording helpers on the global manager.

// RecordPropositionScored counts one scored proposition.
func RecordPropositionScored() {
	if globalManager.enabled {
		globalManager.propositionsScored.Inc()
	}
}

// RecordNoSignal counts one no-signal proposition.
func RecordNoSignal() {
	if globalManager.enabled {
		globalManager.noSignal.Inc()
	}
}

// RecordScoringLatency observes one scoring pass latency in milliseconds.
func RecordScoringLatency(ms float64) {
	if globalManager.enabled {
		globalManager.scoringLatency.Observe(ms)
	}
}

// RecordEvaluatorAbstain counts one abstention for an evaluator.
func RecordEvaluatorAbstain(evaluator string) {
	if globalManager.enabled {
		globalManager.evaluatorAbstains.WithLabelValues(evaluator).Inc()
	}
}

// RecordEvaluatorFailure counts one recovered panic for an evaluator.
func RecordEvaluatorFailure(evaluator string) {
	if globalManager.enabled {
		globalManager.evaluatorFailures.WithLabelValues(evaluator).Inc()
	}
}

// UpdatePoolWorkers sets the scoring pool worker gauge.
func UpdatePoolWorkers(n int) {
	if globalManager.enabled {
		globalManager.poolWorkers.Set(float64(n))
	}
}

// RecordBundleBuilt counts one assembled bundle.
func RecordBundleBuilt() {
	if globalManager.enabled {
		globalManager.bundlesBuilt.Inc()
	}
}

// RecordCorrelationPenalty observes one applied penalty magnitude.
func RecordCorrelationPenalty(magnitude float64) {
	if globalManager.enabled {
		globalManager.correlationPenalty.Observe(magnitude)
	}
}

// RecordCalibrationRun counts one committed calibration run.
func RecordCalibrationRun() {
	if globalManager.enabled {
		globalManager.calibrationRuns.Inc()
	}
}

// RecordCalibrationSkip counts one skipped adjustment by reason.
func RecordCalibrationSkip(reason string) {
	if globalManager.enabled {
		globalManager.calibrationSkips.WithLabelValues(reason).Inc()
	}
}

// UpdateEvaluatorWeight sets the weight gauge for an evaluator.
func UpdateEvaluatorWeight(evaluator string, weight float64) {
	if globalManager.enabled {
		globalManager.evaluatorWeight.WithLabelValues(evaluator).Set(weight)
	}
}
