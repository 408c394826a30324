// Package llm provides the external judge client used by the AI rubric
// extractor. It abstracts multiple model providers (OpenAI, Anthropic,
// Google) behind one interface and layers cross-cutting concerns such as
// timeouts, retries, rate limiting, and metrics through a middleware chain,
// so the evaluation pipeline never talks to a provider SDK directly.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o",
//	})
//	verdict, err := client.Complete(ctx, prompt, nil)
//
// With middleware:
//
//	client, err := llm.NewClient("anthropic", llm.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Model:  "claude-sonnet-4-20250514",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(2, 500*time.Millisecond, 10*time.Second),
//	        llm.RateLimitMiddleware(10, 20),
//	        llm.TimeoutMiddleware(20 * time.Second),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sheetwise/evalengine/internal/ports"
)

// CoreLLM is the minimal surface a judge provider must implement. The
// middleware chain wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response
	// text plus input and output token counts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// TokenEstimator approximates token counts before a request is made, for
// cost accounting and rate limiting.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// Middleware wraps a CoreLLM to add cross-cutting behavior. Middleware
// composes without the providers knowing about it.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds everything needed to build a judge client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model names the judge model to use.
	Model string

	// BaseURL overrides the provider's default endpoint. Empty uses the
	// default.
	BaseURL string

	// Timeout bounds individual requests at the transport level. Zero
	// means no transport timeout; use TimeoutMiddleware for a per-request
	// deadline instead.
	Timeout time.Duration

	// TokenEstimator supplies custom token counting. Nil falls back to a
	// character-based estimate.
	TokenEstimator TokenEstimator

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.LLMClient on top of a provider CoreLLM wrapped
// in the configured middleware chain.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient builds a judge client for the named provider and wraps it in
// the configured middleware chain.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown judge provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse so the first entry is the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = &SimpleTokenEstimator{}
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt to the judge and returns the response text,
// discarding token usage.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt to the judge and returns the response
// along with input and output token counts.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens approximates the token count of text using the configured
// estimator.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the configured judge model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SimpleTokenEstimator approximates tokens at four characters per token,
// which is close enough for English prose and rate-limit budgeting.
type SimpleTokenEstimator struct{}

// EstimateTokens returns a character-based token approximation.
func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a judge provider under a name, allowing
// custom providers without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
