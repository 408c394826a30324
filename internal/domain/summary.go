package domain

import "time"

// TopicScore is the per-topic aggregate for one candidate.
type TopicScore struct {
	// Mean is the arithmetic mean of the topic's answer scores, in [0,100].
	Mean float64 `json:"mean"`

	// Samples counts the answers that contributed to the mean.
	Samples int `json:"samples"`

	// LowSample is true when Samples is below the configured minimum.
	// Low-sample topics are still reported, never hidden.
	LowSample bool `json:"low_sample,omitempty"`
}

// AnswerRef identifies an AnswerScore that contributed to a summary.
// It is a back-reference for lookup and audit, never a lifetime dependency:
// the summary owns its aggregated numbers by value.
type AnswerRef struct {
	QuestionID string `json:"question_id"`
	SessionID  string `json:"session_id"`
}

// CandidateSummary aggregates all AnswerScores for one candidate.
// It is a pure function of the underlying score set: re-running aggregation
// over the same scores always yields the same summary.
type CandidateSummary struct {
	// CandidateID identifies the candidate.
	CandidateID string `json:"candidate_id"`

	// Overall is the aggregate score in [0,100]. By default it is the
	// arithmetic mean of the answer scores; difficulty weighting is an
	// explicit configuration option, never a hidden default.
	Overall float64 `json:"overall"`

	// TopicScores maps each topic to its aggregate.
	TopicScores map[string]TopicScore `json:"topic_scores"`

	// DifficultyScores maps each difficulty level to its mean score.
	DifficultyScores map[Difficulty]float64 `json:"difficulty_scores,omitempty"`

	// Strengths lists topics whose mean is at or above the strength
	// threshold, sorted for deterministic output.
	Strengths []string `json:"strengths,omitempty"`

	// Weaknesses lists topics whose mean is at or below the weakness
	// threshold, sorted for deterministic output.
	Weaknesses []string `json:"weaknesses,omitempty"`

	// AnswersEvaluated counts the AnswerScores behind this summary.
	AnswersEvaluated int `json:"answers_evaluated"`

	// PlagiarismFlagged counts answers carrying the suspected-plagiarism flag.
	PlagiarismFlagged int `json:"plagiarism_flagged,omitempty"`

	// ReducedConfidence counts answers scored on a degraded signal set.
	ReducedConfidence int `json:"reduced_confidence,omitempty"`

	// Recommendation is a short hiring hint derived from Overall.
	Recommendation string `json:"recommendation"`

	// AnswerRefs points back at the contributing AnswerScores for audit.
	AnswerRefs []AnswerRef `json:"answer_refs,omitempty"`

	// GeneratedAt records when the aggregation ran.
	GeneratedAt time.Time `json:"generated_at"`
}
