package domain

// SignalKind identifies which extractor produced a SignalResult.
type SignalKind string

// The three independent evaluation signals.
const (
	// SignalKeyword is the deterministic expected-keyword coverage signal.
	SignalKeyword SignalKind = "keyword"

	// SignalSimilarity is the textual similarity / plagiarism signal.
	SignalSimilarity SignalKind = "similarity"

	// SignalRubric is the AI-judged rubric signal.
	SignalRubric SignalKind = "ai_rubric"
)

// Flag marks a condition derived deterministically from signal thresholds.
// Flags travel on SignalResults and AnswerScores so the recruiter-facing
// layer can show provenance instead of presenting degraded scores as
// equivalent to full evaluations.
type Flag string

const (
	// FlagSuspectedPlagiarism marks cross-candidate similarity above the
	// configured threshold on a sufficiently long answer.
	FlagSuspectedPlagiarism Flag = "suspected-plagiarism"

	// FlagReducedConfidence marks a score computed with one or more signals
	// unavailable and the remaining weights re-normalized.
	FlagReducedConfidence Flag = "reduced-confidence"

	// FlagLowConfidence marks a judge verdict whose self-reported confidence
	// fell below the configured minimum.
	FlagLowConfidence Flag = "low-confidence"

	// FlagNotApplicable marks a signal that could not meaningfully apply,
	// e.g. keyword coverage for a question with no expected keywords.
	FlagNotApplicable Flag = "not-applicable"

	// FlagLowSample marks a topic mean computed from fewer answers than the
	// configured minimum sample count.
	FlagLowSample Flag = "low-sample"
)

// SignalResult is the output of one extractor for one Answer.
// Results are created per evaluation, never mutated, and owned exclusively
// by the evaluation call that produced them.
type SignalResult struct {
	// Kind identifies the extractor that produced this result.
	Kind SignalKind `json:"kind"`

	// Score is the signal value in [0,1]. For the similarity signal this is
	// the highest cross-candidate similarity; similarity to the reference
	// answer is reported in the explanation.
	Score float64 `json:"score"`

	// Explanation is optional human-readable reasoning for the score.
	Explanation string `json:"explanation,omitempty"`

	// Confidence reports how certain the extractor is (0.0 to 1.0).
	// Deterministic extractors report 1.0.
	Confidence float64 `json:"confidence"`

	// Suggestions lists improvement hints, populated by the AI judge only.
	Suggestions []string `json:"suggestions,omitempty"`

	// Flags carries threshold-derived markers such as suspected-plagiarism.
	Flags []Flag `json:"flags,omitempty"`
}

// HasFlag reports whether the result carries the given flag.
func (s SignalResult) HasFlag(f Flag) bool {
	for _, have := range s.Flags {
		if have == f {
			return true
		}
	}
	return false
}
