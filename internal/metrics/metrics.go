// Package metrics provides the centralized Prometheus metrics registry for the engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	UpdateRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "update_runs_total",
		Help:      "Total number of update runs by result",
	}, []string{"result"})
	OpportunitiesScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "opportunities_scored_total",
		Help:      "Total number of opportunities scored by sport and kind",
	}, []string{"sport", "kind"})
	OpportunitiesSelectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "opportunities_selected_total",
		Help:      "Total number of opportunities accepted into the candidate pool",
	})
	ParlaysComposedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "parlays_composed_total",
		Help:      "Total number of parlays composed",
	})
	ParlaysSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "parlays_settled_total",
		Help:      "Total number of parlays settled by status",
	}, []string{"status"})
	DataSourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "datasource_errors_total",
		Help:      "Total number of data source errors by source",
	}, []string{"source"})
)

// Gauge metrics
var (
	ProposedParlays = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "proposed_parlays",
		Help:      "Number of parlays currently awaiting settlement",
	})
	LastUpdateTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "last_update_timestamp_seconds",
		Help:      "Unix timestamp of the last successful update run",
	})
	CumulativeROI = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "cumulative_roi",
		Help:      "Return on investment across all settled parlays",
	})
)

// Histogram metrics
var (
	UpdateRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "update_run_duration_seconds",
		Help:      "Duration of update runs in seconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	SettlementPassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "settlement_pass_duration_seconds",
		Help:      "Duration of settlement passes in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ConfidenceScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "confidence_score",
		Help:      "Distribution of confidence scores across scored opportunities",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.65, 0.7, 0.8, 0.9, 0.99},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(UpdateRunsTotal)
		registry.MustRegister(OpportunitiesScoredTotal)
		registry.MustRegister(OpportunitiesSelectedTotal)
		registry.MustRegister(ParlaysComposedTotal)
		registry.MustRegister(ParlaysSettledTotal)
		registry.MustRegister(DataSourceErrorsTotal)

		registry.MustRegister(ProposedParlays)
		registry.MustRegister(LastUpdateTimestamp)
		registry.MustRegister(CumulativeROI)

		registry.MustRegister(UpdateRunDuration)
		registry.MustRegister(SettlementPassDuration)
		registry.MustRegister(ConfidenceScore)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordUpdateRun records a completed update run with its result and duration.
func RecordUpdateRun(result string, durationSeconds float64) {
	UpdateRunsTotal.WithLabelValues(result).Inc()
	UpdateRunDuration.Observe(durationSeconds)
}

// RecordOpportunityScored records a scored opportunity.
func RecordOpportunityScored(sport, kind string, confidence float64) {
	OpportunitiesScoredTotal.WithLabelValues(sport, kind).Inc()
	ConfidenceScore.Observe(confidence)
}

// RecordParlaySettled records a parlay reaching a terminal status.
func RecordParlaySettled(status string) {
	ParlaysSettledTotal.WithLabelValues(status).Inc()
}

// RecordDataSourceError records a data source failure.
func RecordDataSourceError(source string) {
	DataSourceErrorsTotal.WithLabelValues(source).Inc()
}
