package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
)

const (
	namespace = "shannon"
	subsystem = "goal_analyzer"
)

// Decision labels
const (
	DecisionSimple    = "simple"
	DecisionDecompose = "decompose"
)

// Metrics holds the Prometheus collectors for goal analysis
type Metrics struct {
	// Analysis
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	Confidence       *prometheus.HistogramVec
	SubTasks         *prometheus.HistogramVec
	ToolCategories   *prometheus.CounterVec

	// Requests
	RejectedRequests *prometheus.CounterVec
	InFlight         prometheus.Gauge

	// Configuration
	ConfigReloads *prometheus.CounterVec

	// Dependencies
	BreakerState *prometheus.GaugeVec
}

// NewMetrics registers the collectors on reg. A nil reg gets a private
// registry, which keeps tests and multiple instances from colliding.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "analyses_total",
				Help:      "Total number of goal analyses",
			},
			[]string{"analyzer", "decision"},
		),

		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of a single goal analysis in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
			[]string{"analyzer"},
		),

		Confidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "confidence",
				Help:      "Distribution of complexity confidence scores",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"analyzer"},
		),

		SubTasks: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "estimated_subtasks",
				Help:      "Distribution of estimated sub-task counts",
				Buckets:   []float64{1, 2, 3, 5, 8, 12, 15},
			},
			[]string{"analyzer"},
		),

		ToolCategories: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tool_categories_total",
				Help:      "Tool categories detected across analyses",
			},
			[]string{"category"},
		),

		RejectedRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rejected_requests_total",
				Help:      "Requests rejected before analysis",
			},
			[]string{"reason"},
		),

		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "in_flight_requests",
			Help:      "Analysis requests currently being served",
		}),

		ConfigReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "config_reloads_total",
				Help:      "Configuration reload attempts",
			},
			[]string{"status"},
		),

		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state per dependency (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}
}

// RecordAnalysis records one completed analysis
func (m *Metrics) RecordAnalysis(analyzer string, r *complexity.ComplexityResult, duration time.Duration) {
	if m == nil || r == nil {
		return
	}
	decision := DecisionSimple
	if r.RequiresDecomposition {
		decision = DecisionDecompose
	}
	m.AnalysesTotal.WithLabelValues(analyzer, decision).Inc()
	m.AnalysisDuration.WithLabelValues(analyzer).Observe(duration.Seconds())
	m.Confidence.WithLabelValues(analyzer).Observe(r.Confidence)
	m.SubTasks.WithLabelValues(analyzer).Observe(float64(r.EstimatedSubTasks))
	for _, t := range r.Tools {
		m.ToolCategories.WithLabelValues(t.Category).Inc()
	}
}

// RecordRejection records a request refused before analysis
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.RejectedRequests.WithLabelValues(reason).Inc()
}

// RecordConfigReload records a reload attempt
func (m *Metrics) RecordConfigReload(success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.ConfigReloads.WithLabelValues(status).Inc()
}

// RecordBreakerState sets the gauge for a breaker. state follows the
// circuitbreaker.State numbering.
func (m *Metrics) RecordBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
