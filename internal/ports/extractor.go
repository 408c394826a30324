// Package ports defines the interfaces that form the contract between the
// domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the engine testable.
package ports

import (
	"context"

	"github.com/sheetwise/evalengine/internal/domain"
)

// ExtractionInput carries everything an extractor may read for one answer.
// Inputs are immutable; extractors must not retain or modify them.
type ExtractionInput struct {
	// Question is the question being answered, including its grading key.
	Question domain.Question

	// Answer is the candidate answer under evaluation.
	Answer domain.Answer

	// Peers holds the other candidates' answers to the same question within
	// the active session window. Only the similarity extractor reads it;
	// it is a snapshot passed explicitly rather than a hidden shared store,
	// preserving the pure-function contract of the other extractors.
	Peers []domain.Answer
}

// SignalExtractor produces one independent evaluation signal for an answer.
// All extractors expose the same contract and differ only in algorithm.
// Implementations must be stateless and safe for concurrent use; the
// evaluation pipeline fans extractors out in parallel per answer.
type SignalExtractor interface {
	// Kind identifies the signal this extractor produces.
	Kind() domain.SignalKind

	// Extract computes the signal for the given input. It must respect
	// context cancellation and return promptly. Failures are returned as
	// errors, never panics; the pipeline degrades gracefully on error.
	Extract(ctx context.Context, input ExtractionInput) (domain.SignalResult, error)

	// Validate checks the extractor is properly configured and ready for
	// execution. It is typically called during engine construction.
	Validate() error
}
