// Package middleware provides cross-cutting concerns for the panel service.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-tribunal/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks LLM request traffic, token consumption, and the
// latency of panel evaluations end to end.
type PrometheusMetrics struct {
	llmRequests      *prometheus.CounterVec
	llmTokens        *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance registered with
// the given registerer. Passing nil uses the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of requests sent to LLM providers.",
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens consumed across LLM interactions.",
			},
			[]string{"provider", "model", "token_type"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "Latency of individual LLM provider requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_operations_total",
				Help: "Total number of panel service operations.",
			},
			[]string{"operation", "status"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panel_operation_duration_seconds",
				Help:    "Execution time of panel service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordLatency records operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, statusLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter increments the Prometheus counter matching the metric name.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(
			labels["provider"], labels["model"], statusLabel(labels),
		).Add(value)
	case "llm_tokens_total":
		pm.llmTokens.WithLabelValues(
			labels["provider"], labels["model"], labels["token_type"],
		).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, statusLabel(labels)).Add(value)
	}
}

// RecordHistogram records a value in the histogram matching the metric name.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_latency_seconds":
		pm.llmLatency.WithLabelValues(
			labels["provider"], labels["model"], statusLabel(labels),
		).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric, statusLabel(labels)).Observe(value)
	}
}

func statusLabel(labels map[string]string) string {
	if status, ok := labels["status"]; ok {
		return status
	}
	return "success"
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
