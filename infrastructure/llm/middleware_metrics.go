package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sheetwise/evalengine/internal/ports"
)

// metricsLLM records latency, request counts, and token usage for every
// judge call.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware records judge request metrics through the given
// collector: latency, outcome-labeled request counts, and token usage per
// direction.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, collector: collector}
	}
}

func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.providerLabel(),
		"model":    m.next.GetModel(),
		"status":   "success",
	}
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrTimeout) || ctx.Err() == context.DeadlineExceeded:
			labels["status"] = "timeout"
		case errors.Is(err, ports.ErrRateLimited):
			labels["status"] = "rate_limited"
		default:
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("judge_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("judge_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("judge_tokens_total", float64(tokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("judge_tokens_total", float64(tokensOut), labels)
		}
	}

	return response, tokensIn, tokensOut, err
}

// providerLabel infers the provider from the model name for metric labels.
func (m *metricsLLM) providerLabel() string {
	model := strings.ToLower(m.next.GetModel())
	switch {
	case strings.Contains(model, "gpt"):
		return "openai"
	case strings.Contains(model, "claude"):
		return "anthropic"
	case strings.Contains(model, "gemini"):
		return "google"
	default:
		return "unknown"
	}
}

func (m *metricsLLM) GetModel() string  { return m.next.GetModel() }
func (m *metricsLLM) SetModel(s string) { m.next.SetModel(s) }
