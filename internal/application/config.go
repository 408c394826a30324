// Package application wires the evaluation pipeline together: configuration
// loading, judge client assembly, and the evaluator that orchestrates
// extraction, combination, aggregation, and ranking.
package application

import (
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/sheetwise/evalengine/infrastructure/extractors"
	"github.com/sheetwise/evalengine/infrastructure/llm"
	"github.com/sheetwise/evalengine/infrastructure/scoring"
	"github.com/sheetwise/evalengine/internal/ports"
)

// Package-level validator for configuration structs.
var validate = validator.New()

// JudgeConfig configures the external AI judge: which provider and model
// to call and how the middleware chain paces and retries requests.
type JudgeConfig struct {
	// Provider selects the judge backend.
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic google"`

	// Model names the judge model. Empty uses the provider default.
	Model string `yaml:"model"`

	// APIKey authenticates with the provider. Usually injected from the
	// environment rather than written in the config file.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint, for proxies and test stubs.
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds bounds each judge request attempt. Retries get a
	// fresh deadline.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"min=1,max=600"`

	// MaxRetries is the number of retry attempts for transient judge
	// failures, not counting the initial request.
	MaxRetries int `yaml:"max_retries" validate:"min=0,max=10"`

	// RetryBaseDelayMS and RetryMaxDelayMS bracket the exponential backoff
	// between retries, in milliseconds.
	RetryBaseDelayMS int `yaml:"retry_base_delay_ms" validate:"min=0,max=60000"`
	RetryMaxDelayMS  int `yaml:"retry_max_delay_ms" validate:"min=0,max=300000"`

	// RateLimitPerSecond paces judge requests; zero disables rate limiting.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second" validate:"min=0"`

	// RateLimitBurst allows short spikes above the sustained rate.
	RateLimitBurst int `yaml:"rate_limit_burst" validate:"min=0"`
}

// EngineConfig is the root configuration for the evaluation engine. Every
// stage carries its own section with its own defaults, so a config file
// only needs to state what it changes.
type EngineConfig struct {
	Judge       JudgeConfig                  `yaml:"judge"`
	Keyword     extractors.KeywordConfig     `yaml:"keyword"`
	Similarity  extractors.SimilarityConfig  `yaml:"similarity"`
	RubricJudge extractors.RubricJudgeConfig `yaml:"rubric_judge"`
	Combiner    scoring.CombinerConfig       `yaml:"combiner"`
	Aggregator  scoring.AggregatorConfig     `yaml:"aggregator"`
	Ranking     scoring.RankingConfig        `yaml:"ranking"`

	// Concurrency bounds the number of answers evaluated in parallel
	// during batch evaluation.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=256"`
}

// DefaultEngineConfig returns the engine defaults: keyword 0.2 / rubric 0.6
// / similarity 0.2 weighting, 0.85 plagiarism threshold, strengths at 75
// and weaknesses at 40.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Judge: JudgeConfig{
			Provider:           "openai",
			TimeoutSeconds:     30,
			MaxRetries:         2,
			RetryBaseDelayMS:   500,
			RetryMaxDelayMS:    10000,
			RateLimitPerSecond: 10,
			RateLimitBurst:     20,
		},
		Keyword:     extractors.DefaultKeywordConfig(),
		Similarity:  extractors.DefaultSimilarityConfig(),
		RubricJudge: extractors.DefaultRubricJudgeConfig(),
		Combiner:    scoring.DefaultCombinerConfig(),
		Aggregator:  scoring.DefaultAggregatorConfig(),
		Ranking:     scoring.DefaultRankingConfig(),
		Concurrency: 8,
	}
}

// LoadEngineConfig reads a YAML config, overlays it on the defaults, and
// validates the result. Unknown fields are rejected so typos fail loudly
// instead of silently reverting to defaults.
func LoadEngineConfig(r io.Reader) (EngineConfig, error) {
	config := DefaultEngineConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		if err == io.EOF {
			// An empty config means "all defaults".
			return config, nil
		}
		return EngineConfig{}, fmt.Errorf("failed to parse engine config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return config, nil
}

// Validate checks the full configuration tree.
func (c EngineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	return nil
}

// BuildJudgeClient assembles the judge client with the standard middleware
// chain: retry outermost, then rate limiting, then the per-attempt timeout,
// with metrics recording closest to the provider so it observes every
// attempt. Retried attempts re-enter the rate limiter, and TimeoutSeconds
// bounds each attempt rather than the whole retry sequence.
func (c JudgeConfig) BuildJudgeClient(metrics ports.MetricsCollector) (ports.LLMClient, error) {
	var middleware []llm.Middleware
	if c.MaxRetries > 0 {
		middleware = append(middleware, llm.RetryMiddleware(
			c.MaxRetries,
			time.Duration(c.RetryBaseDelayMS)*time.Millisecond,
			time.Duration(c.RetryMaxDelayMS)*time.Millisecond,
		))
	}
	if c.RateLimitPerSecond > 0 {
		middleware = append(middleware, llm.RateLimitMiddleware(rate.Limit(c.RateLimitPerSecond), c.RateLimitBurst))
	}
	middleware = append(middleware, llm.TimeoutMiddleware(time.Duration(c.TimeoutSeconds)*time.Second))
	if metrics != nil {
		middleware = append(middleware, llm.MetricsMiddleware(metrics))
	}

	model := c.Model
	if model == "" {
		switch c.Provider {
		case "openai":
			model = llm.OpenAIDefaultModel
		case "anthropic":
			model = llm.AnthropicDefaultModel
		case "google":
			model = llm.GoogleDefaultModel
		}
	}

	return llm.NewClient(c.Provider, llm.ClientConfig{
		APIKey:     c.APIKey,
		Model:      model,
		BaseURL:    c.BaseURL,
		Middleware: middleware,
	})
}
