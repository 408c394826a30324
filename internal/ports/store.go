package ports

import (
	"context"

	"github.com/sheetwise/evalengine/internal/domain"
)

// EvaluationStore is the persistence contract the engine depends on.
// The engine never depends on a storage technology, only on this load/save
// contract keyed by question id, candidate id, and session id.
//
// Implementations must return defensive copies: the engine treats
// everything it reads as an immutable snapshot, and the similarity
// extractor in particular relies on AnswersForQuestion returning a
// consistent snapshot of the per-question answer set.
type EvaluationStore interface {
	// Question loads a question by id. Returns ErrNotFound when absent.
	Question(ctx context.Context, questionID string) (domain.Question, error)

	// SaveAnswer records a submitted answer.
	SaveAnswer(ctx context.Context, answer domain.Answer) error

	// AnswersForQuestion returns a snapshot of every answer submitted for
	// the given question within the given session.
	AnswersForQuestion(ctx context.Context, sessionID, questionID string) ([]domain.Answer, error)

	// SaveAnswerScore records a combiner output.
	SaveAnswerScore(ctx context.Context, score domain.AnswerScore) error

	// AnswerScores returns every score recorded for a candidate within a
	// session, in submission order.
	AnswerScores(ctx context.Context, sessionID, candidateID string) ([]domain.AnswerScore, error)

	// SaveSummary records a candidate summary, replacing any previous one
	// for the same candidate and session.
	SaveSummary(ctx context.Context, sessionID string, summary domain.CandidateSummary) error

	// Summaries returns the summaries of every candidate in a session.
	Summaries(ctx context.Context, sessionID string) ([]domain.CandidateSummary, error)
}
