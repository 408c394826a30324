package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwise/evalengine/internal/domain"
)

func TestNewSessionAggregator(t *testing.T) {
	tests := []struct {
		name      string
		config    AggregatorConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:      "default configuration",
			config:    DefaultAggregatorConfig(),
			wantError: false,
		},
		{
			name: "weakness threshold above strength threshold",
			config: AggregatorConfig{
				StrengthThreshold:        40,
				WeaknessThreshold:        75,
				MinTopicSamples:          1,
				StrongCandidateThreshold: 70,
			},
			wantError: true,
			errorMsg:  "weakness threshold must be below strength threshold",
		},
		{
			name: "zero minimum topic samples fails validation",
			config: AggregatorConfig{
				StrengthThreshold:        75,
				WeaknessThreshold:        40,
				MinTopicSamples:          0,
				StrongCandidateThreshold: 70,
			},
			wantError: true,
			errorMsg:  "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator, err := NewSessionAggregator(tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, aggregator)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, aggregator)
			}
		})
	}
}

func score(topic string, difficulty domain.Difficulty, final float64, flags ...domain.Flag) domain.AnswerScore {
	return domain.AnswerScore{
		QuestionID:  "q-" + topic,
		CandidateID: "c1",
		SessionID:   "s1",
		Topic:       topic,
		Difficulty:  difficulty,
		Final:       final,
		Flags:       flags,
	}
}

func TestSessionAggregator_Aggregate(t *testing.T) {
	aggregator, err := NewSessionAggregator(DefaultAggregatorConfig())
	require.NoError(t, err)

	t.Run("empty score set returns aggregation error", func(t *testing.T) {
		_, err := aggregator.Aggregate("c1", nil)

		var aggErr *domain.AggregationError
		require.ErrorAs(t, err, &aggErr)
		assert.Equal(t, "c1", aggErr.CandidateID)
		assert.ErrorIs(t, err, domain.ErrNoAnswerScores)
	})

	t.Run("overall is the arithmetic mean by default", func(t *testing.T) {
		summary, err := aggregator.Aggregate("c1", []domain.AnswerScore{
			score("formulas", domain.DifficultyEasy, 80),
			score("pivot_tables", domain.DifficultyHard, 60),
			score("charts", domain.DifficultyMedium, 70),
		})
		require.NoError(t, err)

		assert.InDelta(t, 70.0, summary.Overall, 1e-9)
		assert.Equal(t, 3, summary.AnswersEvaluated)
		assert.Equal(t, "c1", summary.CandidateID)
		assert.Len(t, summary.AnswerRefs, 3)
	})

	t.Run("strengths and weaknesses respect thresholds", func(t *testing.T) {
		summary, err := aggregator.Aggregate("c1", []domain.AnswerScore{
			score("formulas", domain.DifficultyEasy, 90),
			score("formulas", domain.DifficultyEasy, 80),
			score("vba", domain.DifficultyHard, 30),
			score("charts", domain.DifficultyMedium, 60),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"formulas"}, summary.Strengths)
		assert.Equal(t, []string{"vba"}, summary.Weaknesses)
		assert.InDelta(t, 85.0, summary.TopicScores["formulas"].Mean, 1e-9)
		assert.Equal(t, 2, summary.TopicScores["formulas"].Samples)
	})

	t.Run("boundary means count as strength and weakness", func(t *testing.T) {
		summary, err := aggregator.Aggregate("c1", []domain.AnswerScore{
			score("exact_strength", domain.DifficultyMedium, 75),
			score("exact_weakness", domain.DifficultyMedium, 40),
		})
		require.NoError(t, err)

		assert.Contains(t, summary.Strengths, "exact_strength")
		assert.Contains(t, summary.Weaknesses, "exact_weakness")
	})

	t.Run("flag counts are tallied", func(t *testing.T) {
		summary, err := aggregator.Aggregate("c1", []domain.AnswerScore{
			score("formulas", domain.DifficultyEasy, 40, domain.FlagSuspectedPlagiarism),
			score("charts", domain.DifficultyMedium, 70, domain.FlagReducedConfidence),
			score("vba", domain.DifficultyHard, 60),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, summary.PlagiarismFlagged)
		assert.Equal(t, 1, summary.ReducedConfidence)
	})

	t.Run("per difficulty means are reported", func(t *testing.T) {
		summary, err := aggregator.Aggregate("c1", []domain.AnswerScore{
			score("formulas", domain.DifficultyEasy, 90),
			score("charts", domain.DifficultyEasy, 70),
			score("vba", domain.DifficultyHard, 50),
		})
		require.NoError(t, err)

		assert.InDelta(t, 80.0, summary.DifficultyScores[domain.DifficultyEasy], 1e-9)
		assert.InDelta(t, 50.0, summary.DifficultyScores[domain.DifficultyHard], 1e-9)
	})

	t.Run("recommendation follows the overall threshold", func(t *testing.T) {
		strong, err := aggregator.Aggregate("c1", []domain.AnswerScore{
			score("formulas", domain.DifficultyEasy, 85),
		})
		require.NoError(t, err)
		assert.Equal(t, RecommendationStrong, strong.Recommendation)

		weak, err := aggregator.Aggregate("c2", []domain.AnswerScore{
			score("formulas", domain.DifficultyEasy, 45),
		})
		require.NoError(t, err)
		assert.Equal(t, RecommendationWeak, weak.Recommendation)
	})
}

func TestSessionAggregator_Aggregate_DifficultyWeighting(t *testing.T) {
	config := DefaultAggregatorConfig()
	config.DifficultyWeighting = true
	config.DifficultyWeights = map[domain.Difficulty]float64{
		domain.DifficultyEasy: 1.0,
		domain.DifficultyHard: 3.0,
	}

	aggregator, err := NewSessionAggregator(config)
	require.NoError(t, err)

	summary, err := aggregator.Aggregate("c1", []domain.AnswerScore{
		score("formulas", domain.DifficultyEasy, 100),
		score("vba", domain.DifficultyHard, 60),
	})
	require.NoError(t, err)

	// (1*100 + 3*60) / 4 = 70.
	assert.InDelta(t, 70.0, summary.Overall, 1e-9)
}

func TestSessionAggregator_Aggregate_LowSample(t *testing.T) {
	config := DefaultAggregatorConfig()
	config.MinTopicSamples = 2

	aggregator, err := NewSessionAggregator(config)
	require.NoError(t, err)

	summary, err := aggregator.Aggregate("c1", []domain.AnswerScore{
		score("formulas", domain.DifficultyEasy, 80),
		score("formulas", domain.DifficultyEasy, 90),
		score("vba", domain.DifficultyHard, 50),
	})
	require.NoError(t, err)

	assert.False(t, summary.TopicScores["formulas"].LowSample)
	assert.True(t, summary.TopicScores["vba"].LowSample)
}

func TestSessionAggregator_Aggregate_Idempotent(t *testing.T) {
	aggregator, err := NewSessionAggregator(DefaultAggregatorConfig())
	require.NoError(t, err)

	scores := []domain.AnswerScore{
		score("formulas", domain.DifficultyEasy, 82),
		score("pivot_tables", domain.DifficultyHard, 64, domain.FlagReducedConfidence),
		score("charts", domain.DifficultyMedium, 71),
	}

	first, err := aggregator.Aggregate("c1", scores)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		summary, err := aggregator.Aggregate("c1", scores)
		require.NoError(t, err)

		assert.InDelta(t, first.Overall, summary.Overall, 1e-12)
		assert.Equal(t, first.TopicScores, summary.TopicScores)
		assert.Equal(t, first.Strengths, summary.Strengths)
		assert.Equal(t, first.Weaknesses, summary.Weaknesses)
		assert.Equal(t, first.AnswersEvaluated, summary.AnswersEvaluated)
	}
}
