// Package middleware provides cross-cutting concerns for the evaluation
// engine, currently the Prometheus-backed metrics collector.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sheetwise/evalengine/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector on the Prometheus
// client. It exposes evaluation throughput, judge latency and token usage,
// and plagiarism flag rates for operational dashboards.
type PrometheusMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	judgeTokensTotal   *prometheus.CounterVec
	judgeRequestsTotal *prometheus.CounterVec
	judgeLatency       *prometheus.HistogramVec
	operationLatency   *prometheus.HistogramVec
	operationCounter   *prometheus.CounterVec
	stateGauges        *prometheus.GaugeVec
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its metrics in the given registerer. Pass prometheus.DefaultRegisterer
// for the global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		evaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalengine_evaluations_total",
				Help: "Total answers evaluated, labeled by outcome and flags.",
			},
			[]string{"status", "degraded", "plagiarism"},
		),
		judgeTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalengine_judge_tokens_total",
				Help: "Total tokens exchanged with the external judge.",
			},
			[]string{"provider", "model", "token_type"},
		),
		judgeRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalengine_judge_requests_total",
				Help: "Total judge requests, labeled by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		judgeLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evalengine_judge_latency_seconds",
				Help:    "Latency of external judge requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evalengine_operation_duration_seconds",
				Help:    "Latency of evaluation engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalengine_operations_total",
				Help: "Total operations performed by the evaluation engine.",
			},
			[]string{"operation", "status"},
		),
		stateGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evalengine_state",
				Help: "Current state values for the evaluation engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records operation latency in the operations histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter routes counter increments to the matching metric family.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "evaluations_total":
		pm.evaluationsTotal.WithLabelValues(
			labelOr(labels, "status", "success"),
			labelOr(labels, "degraded", "false"),
			labelOr(labels, "plagiarism", "false"),
		).Add(value)
	case "judge_tokens_total":
		pm.judgeTokensTotal.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "model", "unknown"),
			labelOr(labels, "token_type", "unknown"),
		).Add(value)
	case "judge_requests_total":
		pm.judgeRequestsTotal.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "model", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, labelOr(labels, "status", "success")).Add(value)
	}
}

// RecordGauge sets the named state gauge.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.stateGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a raw histogram observation. Judge latency
// arrives here from the LLM metrics middleware and keeps its provider,
// model, and status labels; anything else lands in the operations
// histogram under the metric name.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "judge_latency_seconds" {
		pm.judgeLatency.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "model", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Observe(value)
		return
	}
	pm.operationLatency.WithLabelValues(metric).Observe(value)
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}
