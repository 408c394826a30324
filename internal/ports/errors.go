package ports

import (
	"errors"
	"fmt"
	"time"
)

// Common infrastructure errors raised during external service interactions.
var (
	// ErrJudgeUnavailable indicates the external judge service is
	// unreachable.
	ErrJudgeUnavailable = errors.New("judge service unavailable")

	// ErrRateLimited indicates the judge provider rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates the judge returned a response that could
	// not be parsed into the expected structure. Malformed responses are
	// never silently coerced.
	ErrInvalidResponse = errors.New("invalid judge response")

	// ErrAuthenticationFailed indicates authentication with the judge
	// provider failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNotFound indicates a requested record does not exist in the store.
	ErrNotFound = errors.New("not found")
)

// ExternalJudgeError reports a failure of the AI judge collaborator:
// unreachable, timed out, or an unparseable response. Judge failures must
// never abort a whole evaluation; the combiner degrades to the remaining
// signals and flags the score.
type ExternalJudgeError struct {
	// Model is the judge model that produced the error.
	Model string

	// Operation names the operation that failed.
	Operation string

	// Err is the underlying error.
	Err error

	// RetryAfter indicates how long to wait before retrying, if the
	// provider said so.
	RetryAfter *time.Duration
}

// Error implements the error interface for ExternalJudgeError.
func (e *ExternalJudgeError) Error() string {
	msg := fmt.Sprintf("external judge error: model=%s, operation=%s, err=%v", e.Model, e.Operation, e.Err)
	if e.RetryAfter != nil {
		msg += fmt.Sprintf(", retry_after=%v", *e.RetryAfter)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ExternalJudgeError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failure is transient. Only network and
// service-level errors are retryable; schema violations are not.
func (e *ExternalJudgeError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrJudgeUnavailable) ||
		errors.Is(e.Err, ErrTimeout)
}

// NewExternalJudgeError creates an ExternalJudgeError with the given details.
func NewExternalJudgeError(model, operation string, err error) *ExternalJudgeError {
	return &ExternalJudgeError{Model: model, Operation: operation, Err: err}
}
