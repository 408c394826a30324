package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/sheetwise/evalengine/internal/domain"
)

// CombinerConfig holds the fixed weights and thresholds the combiner
// applies. Defaults follow the engine's standard weighting: keyword 0.2,
// AI rubric 0.6, similarity penalty 0.2.
type CombinerConfig struct {
	// KeywordWeight is the share of the final score driven by keyword
	// coverage.
	KeywordWeight float64 `yaml:"keyword_weight" json:"keyword_weight" validate:"min=0,max=1"`

	// RubricWeight is the share driven by the AI rubric signal.
	RubricWeight float64 `yaml:"rubric_weight" json:"rubric_weight" validate:"min=0,max=1"`

	// SimilarityPenaltyWeight is the share reserved for the similarity
	// penalty slot. The slot contributes its full weight when the answer is
	// clean and shrinks as cross-candidate similarity climbs past
	// PenaltyOnset; similarity never raises a score.
	SimilarityPenaltyWeight float64 `yaml:"similarity_penalty_weight" json:"similarity_penalty_weight" validate:"min=0,max=1"`

	// PenaltyOnset is the cross-candidate similarity at which the penalty
	// begins to bite. It matches the plagiarism threshold by default.
	PenaltyOnset float64 `yaml:"penalty_onset" json:"penalty_onset" validate:"min=0,max=1"`

	// PlagiarismCeiling caps the final score of a suspected-plagiarism
	// answer, on the 0-100 scale. A verbatim-copied correct answer must not
	// score as correct.
	PlagiarismCeiling float64 `yaml:"plagiarism_ceiling" json:"plagiarism_ceiling" validate:"min=0,max=100"`

	// LowConfidenceThreshold flags the score low-confidence when the judge
	// reported confidence below this value.
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold" json:"low_confidence_threshold" validate:"min=0,max=1"`
}

// DefaultCombinerConfig returns the standard weighting: keyword 0.2,
// rubric 0.6, similarity penalty 0.2, plagiarism ceiling 40.
func DefaultCombinerConfig() CombinerConfig {
	return CombinerConfig{
		KeywordWeight:           0.2,
		RubricWeight:            0.6,
		SimilarityPenaltyWeight: 0.2,
		PenaltyOnset:            0.85,
		PlagiarismCeiling:       40,
		LowConfidenceThreshold:  0.3,
	}
}

// Combiner merges extractor outputs into one AnswerScore with a structured
// breakdown. The merge is deterministic: the same signals always produce
// the same score, and the weighted contributions in the breakdown sum to
// the final score within rounding tolerance, including after a plagiarism
// cap has been applied.
type Combiner struct {
	config CombinerConfig
}

// NewCombiner creates a Combiner after validating that the three signal
// weights sum to 1.0 within tolerance.
func NewCombiner(config CombinerConfig) (*Combiner, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	sum := config.KeywordWeight + config.RubricWeight + config.SimilarityPenaltyWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return nil, fmt.Errorf("%w: got %.4f", ErrWeightsNotNormalized, sum)
	}

	return &Combiner{config: config}, nil
}

// Combine merges the available signals for one answer into an AnswerScore.
//
// signals maps signal kind to the extractor result; a missing entry means
// that extractor failed and its failure was already recorded upstream.
// Policy on partial signal sets, preserved exactly because it changes
// scored outcomes:
//   - Rubric signal missing: fall back to keyword-only scoring with the
//     keyword weight re-normalized to 1.0 and a reduced-confidence flag.
//     A missing signal is never treated as zero.
//   - Keyword or similarity signal missing: re-normalize the remaining
//     weights to sum to 1.0 and flag reduced-confidence.
//   - Suspected plagiarism: cap the blended score at PlagiarismCeiling
//     regardless of the other signals.
//
// Combine returns domain.ErrNoSignals when no signal at all is available.
func (c *Combiner) Combine(question domain.Question, answer domain.Answer, signals map[domain.SignalKind]domain.SignalResult) (domain.AnswerScore, error) {
	if len(signals) == 0 {
		return domain.AnswerScore{}, domain.ErrNoSignals
	}

	keyword, hasKeyword := signals[domain.SignalKeyword]
	similaritySig, hasSimilarity := signals[domain.SignalSimilarity]
	rubric, hasRubric := signals[domain.SignalRubric]

	score := domain.AnswerScore{
		QuestionID:  question.ID,
		CandidateID: answer.CandidateID,
		SessionID:   answer.SessionID,
		Topic:       question.Topic,
		Difficulty:  question.Difficulty,
		Breakdown:   make(map[domain.SignalKind]float64, len(signals)),
		EvaluatedAt: time.Now().UTC(),
	}

	degraded := !hasKeyword || !hasSimilarity || !hasRubric

	var final float64
	switch {
	case hasRubric:
		// Full (or nearly full) blend: keyword + rubric positive terms plus
		// the similarity slot contributing (1 - over-penalty).
		terms := make(map[domain.SignalKind]float64, 3)
		weights := 0.0
		if hasKeyword {
			terms[domain.SignalKeyword] = c.config.KeywordWeight * keyword.Score
			weights += c.config.KeywordWeight
		}
		terms[domain.SignalRubric] = c.config.RubricWeight * rubric.Score
		weights += c.config.RubricWeight
		if hasSimilarity {
			terms[domain.SignalSimilarity] = c.config.SimilarityPenaltyWeight * (1 - c.overPenalty(similaritySig.Score))
			weights += c.config.SimilarityPenaltyWeight
		}

		scale := 1.0 / weights
		for kind, term := range terms {
			contribution := 100 * scale * term
			score.Breakdown[kind] = contribution
			final += contribution
		}

		score.Justification = rubric.Explanation
		score.Suggestions = rubric.Suggestions
		if rubric.Confidence < c.config.LowConfidenceThreshold {
			score.Flags = append(score.Flags, domain.FlagLowConfidence)
		}

	case hasKeyword:
		// The judge failed: keyword-only scoring with the keyword weight
		// re-normalized to 1.0.
		final = 100 * keyword.Score
		score.Breakdown[domain.SignalKeyword] = final
		score.Justification = "AI judge unavailable; score based on keyword match only"

	default:
		// Only the similarity signal survived. It is a penalty signal and
		// cannot stand in for correctness, so score conservatively at the
		// clean-similarity contribution alone.
		final = 100 * (1 - c.overPenalty(similaritySig.Score))
		score.Breakdown[domain.SignalSimilarity] = final
		score.Justification = "keyword and AI signals unavailable; similarity-only score"
	}

	if degraded {
		score.Flags = append(score.Flags, domain.FlagReducedConfidence)
	}
	if hasKeyword && keyword.HasFlag(domain.FlagNotApplicable) {
		score.Flags = append(score.Flags, domain.FlagNotApplicable)
	}

	final = clamp(final, 0, 100)

	// The plagiarism cap overrides everything else; the breakdown is
	// rescaled proportionally so it still sums to the final score.
	if hasSimilarity && similaritySig.HasFlag(domain.FlagSuspectedPlagiarism) {
		score.Flags = append(score.Flags, domain.FlagSuspectedPlagiarism)
		if final > c.config.PlagiarismCeiling {
			rescale := c.config.PlagiarismCeiling / final
			for kind := range score.Breakdown {
				score.Breakdown[kind] *= rescale
			}
			final = c.config.PlagiarismCeiling
		}
	}

	score.Final = final
	return score, nil
}

// overPenalty converts a cross-candidate similarity into a penalty factor
// in [0,1]: zero at or below the onset, growing linearly to 1.0 at perfect
// similarity.
func (c *Combiner) overPenalty(similarity float64) float64 {
	onset := c.config.PenaltyOnset
	if similarity <= onset || onset >= 1 {
		return 0
	}
	return clamp((similarity-onset)/(1-onset), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
