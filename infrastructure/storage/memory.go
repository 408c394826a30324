// Package storage provides EvaluationStore implementations. The in-memory
// store backs tests and single-process deployments; the contract it
// implements is what a database-backed store would honor in production.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/sheetwise/evalengine/internal/domain"
	"github.com/sheetwise/evalengine/internal/ports"
)

// MemoryStore is a thread-safe, map-backed EvaluationStore. Every read
// returns a defensive copy so callers can treat results as immutable
// snapshots; every write copies its input so later caller mutations never
// leak into the store.
type MemoryStore struct {
	mu sync.RWMutex

	questions map[string]domain.Question
	// answers and scores are keyed by session id and kept in insertion
	// order, which preserves submission order for AnswerScores.
	answers   map[string][]domain.Answer
	scores    map[string][]domain.AnswerScore
	summaries map[string]map[string]domain.CandidateSummary
}

var _ ports.EvaluationStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: make(map[string]domain.Question),
		answers:   make(map[string][]domain.Answer),
		scores:    make(map[string][]domain.AnswerScore),
		summaries: make(map[string]map[string]domain.CandidateSummary),
	}
}

// SaveQuestion seeds or replaces a question. Questions live outside the
// EvaluationStore interface because the engine only reads them; seeding is
// a concern of the embedding application.
func (ms *MemoryStore) SaveQuestion(ctx context.Context, question domain.Question) error {
	if question.ID == "" {
		return fmt.Errorf("question id cannot be empty")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.questions[question.ID] = copyQuestion(question)
	return nil
}

// Question loads a question by id.
func (ms *MemoryStore) Question(ctx context.Context, questionID string) (domain.Question, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	question, ok := ms.questions[questionID]
	if !ok {
		return domain.Question{}, fmt.Errorf("question %q: %w", questionID, ports.ErrNotFound)
	}
	return copyQuestion(question), nil
}

// SaveAnswer records a submitted answer in session submission order.
func (ms *MemoryStore) SaveAnswer(ctx context.Context, answer domain.Answer) error {
	if answer.SessionID == "" || answer.QuestionID == "" || answer.CandidateID == "" {
		return fmt.Errorf("answer requires session, question, and candidate ids")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.answers[answer.SessionID] = append(ms.answers[answer.SessionID], answer)
	return nil
}

// AnswersForQuestion returns a snapshot of every answer submitted for the
// question within the session.
func (ms *MemoryStore) AnswersForQuestion(ctx context.Context, sessionID, questionID string) ([]domain.Answer, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var snapshot []domain.Answer
	for _, answer := range ms.answers[sessionID] {
		if answer.QuestionID == questionID {
			snapshot = append(snapshot, answer)
		}
	}
	return snapshot, nil
}

// SaveAnswerScore records a combiner output.
func (ms *MemoryStore) SaveAnswerScore(ctx context.Context, score domain.AnswerScore) error {
	if score.SessionID == "" || score.QuestionID == "" || score.CandidateID == "" {
		return fmt.Errorf("score requires session, question, and candidate ids")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.scores[score.SessionID] = append(ms.scores[score.SessionID], copyScore(score))
	return nil
}

// AnswerScores returns the candidate's scores within a session, in the
// order they were recorded.
func (ms *MemoryStore) AnswerScores(ctx context.Context, sessionID, candidateID string) ([]domain.AnswerScore, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var snapshot []domain.AnswerScore
	for _, score := range ms.scores[sessionID] {
		if score.CandidateID == candidateID {
			snapshot = append(snapshot, copyScore(score))
		}
	}
	return snapshot, nil
}

// SaveSummary records a candidate summary, replacing any previous one for
// the same candidate and session.
func (ms *MemoryStore) SaveSummary(ctx context.Context, sessionID string, summary domain.CandidateSummary) error {
	if sessionID == "" || summary.CandidateID == "" {
		return fmt.Errorf("summary requires session and candidate ids")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.summaries[sessionID] == nil {
		ms.summaries[sessionID] = make(map[string]domain.CandidateSummary)
	}
	ms.summaries[sessionID][summary.CandidateID] = copySummary(summary)
	return nil
}

// Summaries returns the summaries of every candidate in a session. Order is
// unspecified; the ranking engine imposes its own total order.
func (ms *MemoryStore) Summaries(ctx context.Context, sessionID string) ([]domain.CandidateSummary, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var snapshot []domain.CandidateSummary
	for _, summary := range ms.summaries[sessionID] {
		snapshot = append(snapshot, copySummary(summary))
	}
	return snapshot, nil
}

func copyQuestion(q domain.Question) domain.Question {
	out := q
	out.ExpectedKeywords = append([]string(nil), q.ExpectedKeywords...)
	return out
}

func copyScore(s domain.AnswerScore) domain.AnswerScore {
	out := s
	if s.Breakdown != nil {
		out.Breakdown = make(map[domain.SignalKind]float64, len(s.Breakdown))
		for k, v := range s.Breakdown {
			out.Breakdown[k] = v
		}
	}
	out.Flags = append([]domain.Flag(nil), s.Flags...)
	out.Suggestions = append([]string(nil), s.Suggestions...)
	return out
}

func copySummary(s domain.CandidateSummary) domain.CandidateSummary {
	out := s
	if s.TopicScores != nil {
		out.TopicScores = make(map[string]domain.TopicScore, len(s.TopicScores))
		for k, v := range s.TopicScores {
			out.TopicScores[k] = v
		}
	}
	if s.DifficultyScores != nil {
		out.DifficultyScores = make(map[domain.Difficulty]float64, len(s.DifficultyScores))
		for k, v := range s.DifficultyScores {
			out.DifficultyScores[k] = v
		}
	}
	out.Strengths = append([]string(nil), s.Strengths...)
	out.Weaknesses = append([]string(nil), s.Weaknesses...)
	out.AnswerRefs = append([]domain.AnswerRef(nil), s.AnswerRefs...)
	return out
}
