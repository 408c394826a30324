package domain

import "time"

// AnswerScore is the combiner output for one Answer: a final score in
// [0,100] together with the weighted per-signal breakdown and any flags
// raised along the way. Once produced an AnswerScore is immutable and
// self-contained; abandoned sessions leave valid scores behind that are
// simply excluded from later aggregation.
type AnswerScore struct {
	// QuestionID references the evaluated Answer's question.
	QuestionID string `json:"question_id"`

	// CandidateID identifies the candidate whose answer was scored.
	CandidateID string `json:"candidate_id"`

	// SessionID identifies the interview session.
	SessionID string `json:"session_id"`

	// Topic is copied from the Question so aggregation does not need a
	// question lookup.
	Topic string `json:"topic"`

	// Difficulty is copied from the Question for difficulty-weighted
	// aggregation and the per-difficulty summary.
	Difficulty Difficulty `json:"difficulty"`

	// Final is the combined score in [0,100].
	Final float64 `json:"final"`

	// Breakdown maps each contributing signal to its weighted contribution
	// on the 0-100 scale. The contributions sum to Final within rounding
	// tolerance, including after a plagiarism cap has been applied.
	Breakdown map[SignalKind]float64 `json:"breakdown"`

	// Flags carries the deterministic markers raised during combination,
	// e.g. suspected-plagiarism or reduced-confidence.
	Flags []Flag `json:"flags,omitempty"`

	// Justification is the judge's reasoning when the rubric signal was
	// available, or a note about the degradation path when it was not.
	Justification string `json:"justification,omitempty"`

	// Suggestions are the judge's improvement hints, if any.
	Suggestions []string `json:"suggestions,omitempty"`

	// EvaluatedAt records when this score was produced.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// HasFlag reports whether the score carries the given flag.
func (a AnswerScore) HasFlag(f Flag) bool {
	for _, have := range a.Flags {
		if have == f {
			return true
		}
	}
	return false
}
