package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sheetwise/evalengine/internal/ports"
)

// retryLLM retries transient judge failures with exponential backoff.
// Schema violations and authentication failures are not retried; a judge
// that returns garbage will keep returning garbage.
type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware retries failed judge requests up to maxRetries times
// with exponential backoff and jitter. Only failures the error classifier
// marked retryable (rate limits, outages, timeouts) are retried, and a
// provider-supplied Retry-After overrides the computed backoff.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		response, tokensIn, tokensOut, err := r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return response, tokensIn, tokensOut, nil
		}

		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		delay := r.calculateDelay(attempt)
		if after := retryAfterHint(err); after > 0 && after > delay {
			delay = after
		}

		select {
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", 0, 0, fmt.Errorf("judge request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retryLLM) calculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	delay := time.Duration(float64(r.baseDelay) * float64(int64(1)<<uint(attempt)))

	// Jitter of up to +-25% keeps concurrent evaluations from retrying in
	// lockstep.
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - delay/4

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

func isRetryable(err error) bool {
	var judgeErr *ports.ExternalJudgeError
	if errors.As(err, &judgeErr) {
		return judgeErr.IsRetryable()
	}
	return false
}

func retryAfterHint(err error) time.Duration {
	var judgeErr *ports.ExternalJudgeError
	if errors.As(err, &judgeErr) && judgeErr.RetryAfter != nil {
		return *judgeErr.RetryAfter
	}
	return 0
}

func (r *retryLLM) GetModel() string  { return r.next.GetModel() }
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }
