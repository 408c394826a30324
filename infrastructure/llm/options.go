package llm

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// Parameter bounds shared across providers.
const (
	// DefaultMaxTokens bounds the judge's response when the caller does
	// not say otherwise.
	DefaultMaxTokens = 1024

	// MinTimeout and MaxTimeout bracket the transport timeout.
	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

// BaseProvider carries the model name with thread-safe access. Providers
// embed it to satisfy the GetModel/SetModel half of CoreLLM.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name. Safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name. Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized option set parsed out of the untyped
// options map the extractor passes through.
type RequestOptions struct {
	// MaxTokens caps the generated response length.
	MaxTokens int
	// Model overrides the client's default model for this request.
	Model string
	// Temperature controls sampling randomness. Nil uses the provider
	// default.
	Temperature *float64
	// System is an optional system prompt.
	System string
	// ResponseFormat carries a structured-output hint, such as JSON mode,
	// for providers that support it.
	ResponseFormat map[string]string
	// Extra holds provider-specific options not covered above.
	Extra map[string]any
}

// ParseRequestOptions extracts standardized request parameters from the
// options map, falling back to defaults for missing or invalid entries.
// Unrecognized keys land in Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: DefaultMaxTokens,
		Model:     defaultModel,
		Extra:     make(map[string]any),
	}

	for key, value := range opts {
		switch key {
		case "max_tokens":
			if n, ok := toInt(value); ok && n > 0 {
				options.MaxTokens = n
			}
		case "model":
			if s, ok := value.(string); ok && s != "" {
				options.Model = s
			}
		case "system":
			if s, ok := value.(string); ok {
				options.System = s
			}
		case "temperature":
			if f, ok := toFloat64(value); ok && f >= 0 && f <= 2 {
				temp := f
				options.Temperature = &temp
			}
		case "response_format":
			if m, ok := value.(map[string]string); ok {
				options.ResponseFormat = m
			}
		default:
			options.Extra[key] = value
		}
	}

	return options
}

// ValidateBaseURL checks that a base URL override is an http(s) URL with a
// host. Empty means "use the provider default" and is valid.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsed.String(), nil
}

// ValidateTimeout clamps a transport timeout into [MinTimeout, MaxTimeout].
// Zero or negative means "no transport timeout" and passes through as zero.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		if int64(int(v)) != v {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != v {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func clampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
