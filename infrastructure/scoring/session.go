package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/sheetwise/evalengine/internal/domain"
)

// AggregatorConfig controls how per-answer scores reduce into a candidate
// summary.
type AggregatorConfig struct {
	// StrengthThreshold is the topic mean at or above which a topic counts
	// as a strength, on the 0-100 scale. Default: 75.
	StrengthThreshold float64 `yaml:"strength_threshold" json:"strength_threshold" validate:"min=0,max=100"`

	// WeaknessThreshold is the topic mean at or below which a topic counts
	// as a weakness. Default: 40.
	WeaknessThreshold float64 `yaml:"weakness_threshold" json:"weakness_threshold" validate:"min=0,max=100"`

	// MinTopicSamples is the answer count below which a topic mean is
	// marked low-sample. Low-sample topics are still reported. Default: 1.
	MinTopicSamples int `yaml:"min_topic_samples" json:"min_topic_samples" validate:"min=1"`

	// DifficultyWeighting enables weighting the overall score by question
	// difficulty. It is an explicit option, never a hidden default.
	DifficultyWeighting bool `yaml:"difficulty_weighting" json:"difficulty_weighting"`

	// DifficultyWeights maps difficulty levels to their weight when
	// DifficultyWeighting is enabled. Unlisted levels weigh 1.0.
	DifficultyWeights map[domain.Difficulty]float64 `yaml:"difficulty_weights" json:"difficulty_weights"`

	// StrongCandidateThreshold is the overall score at or above which the
	// summary recommends the candidate. Default: 70.
	StrongCandidateThreshold float64 `yaml:"strong_candidate_threshold" json:"strong_candidate_threshold" validate:"min=0,max=100"`
}

// DefaultAggregatorConfig returns the standard thresholds: strengths at 75,
// weaknesses at 40, plain arithmetic mean, recommendation at 70.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		StrengthThreshold:        75,
		WeaknessThreshold:        40,
		MinTopicSamples:          1,
		DifficultyWeighting:      false,
		StrongCandidateThreshold: 70,
	}
}

// Recommendation strings derived from the overall score.
const (
	RecommendationStrong = "strong candidate: good Excel proficiency"
	RecommendationWeak   = "needs improvement: consider more practice"
)

// SessionAggregator reduces a candidate's AnswerScores into a
// CandidateSummary. Aggregation is a pure function of its input: re-running
// it over the same score set always yields the same summary, with no hidden
// mutable counters.
type SessionAggregator struct {
	config AggregatorConfig
}

// NewSessionAggregator creates a SessionAggregator with the given
// configuration.
func NewSessionAggregator(config AggregatorConfig) (*SessionAggregator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.WeaknessThreshold >= config.StrengthThreshold {
		return nil, fmt.Errorf("%w: weakness=%.1f, strength=%.1f",
			ErrThresholdOrder, config.WeaknessThreshold, config.StrengthThreshold)
	}
	return &SessionAggregator{config: config}, nil
}

// Aggregate reduces the given AnswerScores into a CandidateSummary.
// An empty score set returns an AggregationError: a summary over zero
// answers must be reported as "not yet evaluated", never as a score of 0.
func (sa *SessionAggregator) Aggregate(candidateID string, scores []domain.AnswerScore) (domain.CandidateSummary, error) {
	if len(scores) == 0 {
		return domain.CandidateSummary{}, domain.NewAggregationError(candidateID, domain.ErrNoAnswerScores)
	}

	summary := domain.CandidateSummary{
		CandidateID:      candidateID,
		TopicScores:      make(map[string]domain.TopicScore),
		DifficultyScores: make(map[domain.Difficulty]float64),
		AnswersEvaluated: len(scores),
		AnswerRefs:       make([]domain.AnswerRef, 0, len(scores)),
		GeneratedAt:      time.Now().UTC(),
	}

	var weightedSum, weightSum float64
	topicSums := make(map[string]float64)
	topicCounts := make(map[string]int)
	difficultySums := make(map[domain.Difficulty]float64)
	difficultyCounts := make(map[domain.Difficulty]int)

	for _, score := range scores {
		weight := 1.0
		if sa.config.DifficultyWeighting {
			if w, ok := sa.config.DifficultyWeights[score.Difficulty]; ok {
				weight = w
			}
		}
		weightedSum += weight * score.Final
		weightSum += weight

		topicSums[score.Topic] += score.Final
		topicCounts[score.Topic]++

		if score.Difficulty != "" {
			difficultySums[score.Difficulty] += score.Final
			difficultyCounts[score.Difficulty]++
		}

		if score.HasFlag(domain.FlagSuspectedPlagiarism) {
			summary.PlagiarismFlagged++
		}
		if score.HasFlag(domain.FlagReducedConfidence) {
			summary.ReducedConfidence++
		}

		summary.AnswerRefs = append(summary.AnswerRefs, domain.AnswerRef{
			QuestionID: score.QuestionID,
			SessionID:  score.SessionID,
		})
	}

	if weightSum > 0 {
		summary.Overall = weightedSum / weightSum
	}

	for topic, sum := range topicSums {
		count := topicCounts[topic]
		mean := sum / float64(count)
		summary.TopicScores[topic] = domain.TopicScore{
			Mean:      mean,
			Samples:   count,
			LowSample: count < sa.config.MinTopicSamples,
		}
		if mean >= sa.config.StrengthThreshold {
			summary.Strengths = append(summary.Strengths, topic)
		}
		if mean <= sa.config.WeaknessThreshold {
			summary.Weaknesses = append(summary.Weaknesses, topic)
		}
	}
	sort.Strings(summary.Strengths)
	sort.Strings(summary.Weaknesses)

	for difficulty, sum := range difficultySums {
		summary.DifficultyScores[difficulty] = sum / float64(difficultyCounts[difficulty])
	}

	if summary.Overall >= sa.config.StrongCandidateThreshold {
		summary.Recommendation = RecommendationStrong
	} else {
		summary.Recommendation = RecommendationWeak
	}

	return summary, nil
}
