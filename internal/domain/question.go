// Package domain contains pure, dependency-free domain models and types
// for the answer evaluation engine.
package domain

import "time"

// Difficulty classifies how demanding a question is. Difficulty feeds the
// optional difficulty-weighted aggregation and the per-difficulty summary.
type Difficulty string

// Supported question difficulty levels, from easiest to hardest.
const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
	DifficultyExpert   Difficulty = "expert"
)

// Rubric holds the weighted grading criteria handed to the AI judge.
// Weights are relative; WeightedScore normalizes by their sum, so a rubric
// of {1, 1, 1} behaves the same as {0.33, 0.33, 0.33}.
type Rubric struct {
	// Correctness weighs whether the answer is factually right.
	Correctness float64 `json:"correctness" yaml:"correctness" validate:"min=0,max=1"`

	// Completeness weighs whether the answer covers every part of the question.
	Completeness float64 `json:"completeness" yaml:"completeness" validate:"min=0,max=1"`

	// Relevance weighs whether the answer stays on topic.
	Relevance float64 `json:"relevance" yaml:"relevance" validate:"min=0,max=1"`
}

// DefaultRubric returns an evenly weighted rubric.
func DefaultRubric() Rubric {
	return Rubric{Correctness: 1.0 / 3, Completeness: 1.0 / 3, Relevance: 1.0 / 3}
}

// WeightedScore combines per-criterion scores in [0,1] into a single score
// in [0,1] using the rubric weights. A zero-weight rubric falls back to the
// arithmetic mean of the criteria.
func (r Rubric) WeightedScore(correctness, completeness, relevance float64) float64 {
	total := r.Correctness + r.Completeness + r.Relevance
	if total <= 0 {
		return (correctness + completeness + relevance) / 3
	}
	return (r.Correctness*correctness + r.Completeness*completeness + r.Relevance*relevance) / total
}

// Question is an immutable interview question together with its grading key.
// Questions are created at question-generation time and shared read-only by
// every Answer that references them.
type Question struct {
	// ID uniquely identifies this question.
	ID string `json:"id"`

	// Prompt is the question text shown to the candidate.
	Prompt string `json:"prompt"`

	// Topic tags the question for per-topic aggregation (e.g. "formulas",
	// "pivot_tables").
	Topic string `json:"topic"`

	// Difficulty is the generation-time difficulty estimate.
	Difficulty Difficulty `json:"difficulty"`

	// ReferenceAnswer is the answer key the extractors compare against.
	ReferenceAnswer string `json:"reference_answer"`

	// ExpectedKeywords lists the terms a complete answer should mention.
	// May be empty for open-ended questions.
	ExpectedKeywords []string `json:"expected_keywords"`

	// Rubric carries the criterion weights given to the AI judge.
	Rubric Rubric `json:"rubric"`
}

// Answer is one candidate's raw response to one Question.
// It is created on submission and never mutated afterwards.
type Answer struct {
	// QuestionID references the Question being answered.
	QuestionID string `json:"question_id"`

	// CandidateID identifies the candidate who submitted the answer.
	CandidateID string `json:"candidate_id"`

	// SessionID identifies the interview session the answer belongs to.
	SessionID string `json:"session_id"`

	// Content is the raw answer text.
	Content string `json:"content"`

	// SubmittedAt records when the candidate submitted the answer.
	SubmittedAt time.Time `json:"submitted_at"`
}
