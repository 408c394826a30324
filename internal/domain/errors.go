package domain

import (
	"errors"
	"fmt"
)

// Common domain errors raised during evaluation and aggregation.
var (
	// ErrNoAnswerScores indicates an attempt to aggregate an empty
	// AnswerScore set. A summary over zero answers is meaningless and must
	// be reported as "not yet evaluated", never shown as a score of 0.
	ErrNoAnswerScores = errors.New("no answer scores to aggregate")

	// ErrNoSignals indicates the combiner received no usable signals at all.
	ErrNoSignals = errors.New("no signals available for combination")

	// ErrEmptyAnswer indicates an answer with no content was submitted for
	// extraction.
	ErrEmptyAnswer = errors.New("answer content is empty")

	// ErrInvalidConfiguration indicates configuration that is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ExtractionError reports that one signal extractor could not produce a
// result. Extraction failures degrade gracefully: the combiner proceeds
// with the remaining signals and marks the score reduced-confidence.
type ExtractionError struct {
	// Kind is the signal the failing extractor was producing.
	Kind SignalKind

	// QuestionID is the question whose answer was being evaluated.
	QuestionID string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface for ExtractionError.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: signal=%s, question=%s, err=%v", e.Kind, e.QuestionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError creates an ExtractionError with the given details.
func NewExtractionError(kind SignalKind, questionID string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, QuestionID: questionID, Err: err}
}

// AggregationError reports that a candidate's scores could not be
// aggregated. Unlike extraction failures it is surfaced to the caller
// rather than silently defaulted.
type AggregationError struct {
	// CandidateID is the candidate whose aggregation failed.
	CandidateID string

	// Err is the underlying failure, typically ErrNoAnswerScores.
	Err error
}

// Error implements the error interface for AggregationError.
func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation error: candidate=%s, err=%v", e.CandidateID, e.Err)
}

// Unwrap returns the underlying error.
func (e *AggregationError) Unwrap() error { return e.Err }

// NewAggregationError creates an AggregationError with the given details.
func NewAggregationError(candidateID string, err error) *AggregationError {
	return &AggregationError{CandidateID: candidateID, Err: err}
}
