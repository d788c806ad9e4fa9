// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Forecast metrics
	ForecastRunsTotal    *prometheus.CounterVec
	ForecastDuration     prometheus.Histogram
	SegmentsGenerated    prometheus.Counter
	SegmentsSkipped      *prometheus.CounterVec
	ExplanationsStored   prometheus.Counter
	ExplanationFallbacks prometheus.Counter

	// LLM metrics
	LLMRequestLatency prometheus.Histogram
	LLMRequestErrors  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
	UptimeSeconds     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "revenue_forecast_lab"
	}

	return &Metrics{
		// Forecast metrics
		ForecastRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "runs_total",
			Help:      "Total number of forecast runs by status",
		}, []string{"status"}),
		ForecastDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "duration_seconds",
			Help:      "Forecast run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		SegmentsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "segments_generated_total",
			Help:      "Total number of forecast segments generated",
		}),
		SegmentsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "segments_skipped_total",
			Help:      "Total number of segments skipped by reason",
		}, []string{"reason"}),
		ExplanationsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "explanations_stored_total",
			Help:      "Total number of deal explanations stored",
		}),
		ExplanationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "explanation_fallbacks_total",
			Help:      "Total number of runs that used template explanations",
		}),

		// LLM metrics
		LLMRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		LLMRequestErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_errors_total",
			Help:      "Total number of failed LLM requests",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful forecast run",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordForecastRun records a forecast run outcome.
func RecordForecastRun(status string, durationSeconds float64) {
	DefaultMetrics.ForecastRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ForecastDuration.Observe(durationSeconds)
}

// RecordSegmentsGenerated adds to the segments generated counter.
func RecordSegmentsGenerated(n int) {
	DefaultMetrics.SegmentsGenerated.Add(float64(n))
}

// RecordSegmentSkipped records a skipped segment.
func RecordSegmentSkipped(reason string) {
	DefaultMetrics.SegmentsSkipped.WithLabelValues(reason).Inc()
}

// RecordExplanationsStored adds to the explanations stored counter.
func RecordExplanationsStored(n int) {
	DefaultMetrics.ExplanationsStored.Add(float64(n))
}

// RecordExplanationFallback increments the fallback counter.
func RecordExplanationFallback() {
	DefaultMetrics.ExplanationFallbacks.Inc()
}

// RecordLLMRequest records LLM request metrics.
func RecordLLMRequest(seconds float64, err error) {
	DefaultMetrics.LLMRequestLatency.Observe(seconds)
	if err != nil {
		DefaultMetrics.LLMRequestErrors.Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
