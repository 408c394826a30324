package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sheetwise/evalengine/internal/ports"
)

// Common errors returned by the client and providers.
var (
	// ErrEmptyAPIKey indicates an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates the provider returned an empty response body.
	ErrEmptyResponse = errors.New("empty response from judge API")
	// ErrNoResponseChoice indicates the provider response contained no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// errorClassifier maps provider failures onto the engine's judge error
// taxonomy. Every provider error surfaces as a *ports.ExternalJudgeError
// wrapping one of the ports sentinels, so the retry middleware and the
// evaluation pipeline can branch on errors.Is without knowing which SDK
// produced the failure.
type errorClassifier struct {
	// provider names the judge provider for error messages and metrics.
	provider string
}

// classifyHTTP converts an HTTP-status failure into an ExternalJudgeError
// with the matching sentinel. retryAfter is recorded for rate-limit errors
// when the provider reports one; zero means unknown.
func (ec *errorClassifier) classifyHTTP(model string, statusCode int, message string, err error, retryAfter time.Duration) *ports.ExternalJudgeError {
	var sentinel error
	switch {
	case statusCode == 401 || statusCode == 403:
		sentinel = ports.ErrAuthenticationFailed
	case statusCode == 429:
		sentinel = ports.ErrRateLimited
	case statusCode == 404:
		sentinel = ports.ErrNotFound
	case statusCode >= 500:
		sentinel = ports.ErrJudgeUnavailable
	default:
		sentinel = ports.ErrInvalidResponse
	}

	if message == "" {
		message = "unknown error"
	}

	judgeErr := ports.NewExternalJudgeError(model, "complete",
		fmt.Errorf("%w: %s (%s HTTP %d): %v", sentinel, message, ec.provider, statusCode, err))
	if retryAfter > 0 {
		judgeErr.RetryAfter = &retryAfter
	}
	return judgeErr
}

// classifyContext converts context cancellation and deadline errors into
// the timeout sentinel.
func (ec *errorClassifier) classifyContext(model string, err error) *ports.ExternalJudgeError {
	if errors.Is(err, context.DeadlineExceeded) {
		return ports.NewExternalJudgeError(model, "complete",
			fmt.Errorf("%w: %s request deadline exceeded: %v", ports.ErrTimeout, ec.provider, err))
	}
	return ports.NewExternalJudgeError(model, "complete",
		fmt.Errorf("%s request canceled: %w", ec.provider, err))
}

// classifyUnknown wraps a failure that matched no known category. Unknown
// failures map onto the unavailable sentinel so callers treat them as
// transient judge outages.
func (ec *errorClassifier) classifyUnknown(model string, err error) *ports.ExternalJudgeError {
	return ports.NewExternalJudgeError(model, "complete",
		fmt.Errorf("%w: %s request failed: %v", ports.ErrJudgeUnavailable, ec.provider, err))
}
