package ports

import (
	"context"
	"time"
)

// LLMClient defines the interface for talking to the external language-model
// judge. Implementations handle provider-specific details like
// authentication, request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request to the judge provider and returns
	// the generated text. The implementation should handle rate limiting,
	// retries, and timeouts; on timeout it must fail rather than block the
	// pipeline indefinitely.
	//
	// The options map allows provider flexibility without changing the
	// interface. Common options:
	//   - "temperature": float64 (0.0-1.0)
	//   - "max_tokens": int
	//   - "system": string (system prompt)
	//   - "response_format": provider-specific JSON-mode hint
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens returns an approximate token count for the given text,
	// used for cost estimation and rate limiting.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier this client targets.
	GetModel() string
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations integrate with observability platforms such as Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, useful for tracking
	// distributions like scores or response sizes.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
