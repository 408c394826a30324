package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwise/evalengine/internal/domain"
)

func TestNewCombiner(t *testing.T) {
	tests := []struct {
		name      string
		config    CombinerConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:      "default configuration",
			config:    DefaultCombinerConfig(),
			wantError: false,
		},
		{
			name: "weights do not sum to one",
			config: CombinerConfig{
				KeywordWeight:           0.3,
				RubricWeight:            0.6,
				SimilarityPenaltyWeight: 0.3,
				PenaltyOnset:            0.85,
				PlagiarismCeiling:       40,
				LowConfidenceThreshold:  0.3,
			},
			wantError: true,
			errorMsg:  "signal weights must sum to 1.0",
		},
		{
			name: "negative weight fails validation",
			config: CombinerConfig{
				KeywordWeight:           -0.2,
				RubricWeight:            1.0,
				SimilarityPenaltyWeight: 0.2,
				PenaltyOnset:            0.85,
				PlagiarismCeiling:       40,
			},
			wantError: true,
			errorMsg:  "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			combiner, err := NewCombiner(tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, combiner)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, combiner)
			}
		})
	}
}

func signalSet(keyword, similarity, rubric *domain.SignalResult) map[domain.SignalKind]domain.SignalResult {
	signals := make(map[domain.SignalKind]domain.SignalResult)
	if keyword != nil {
		signals[domain.SignalKeyword] = *keyword
	}
	if similarity != nil {
		signals[domain.SignalSimilarity] = *similarity
	}
	if rubric != nil {
		signals[domain.SignalRubric] = *rubric
	}
	return signals
}

func breakdownSum(score domain.AnswerScore) float64 {
	var sum float64
	for _, v := range score.Breakdown {
		sum += v
	}
	return sum
}

func TestCombiner_Combine(t *testing.T) {
	question := domain.Question{ID: "q1", Topic: "formulas", Difficulty: domain.DifficultyMedium}
	answer := domain.Answer{QuestionID: "q1", CandidateID: "c1", SessionID: "s1"}

	keyword := func(score float64) *domain.SignalResult {
		return &domain.SignalResult{Kind: domain.SignalKeyword, Score: score, Confidence: 1.0}
	}
	similarity := func(score float64, flags ...domain.Flag) *domain.SignalResult {
		return &domain.SignalResult{Kind: domain.SignalSimilarity, Score: score, Confidence: 1.0, Flags: flags}
	}
	rubric := func(score, confidence float64) *domain.SignalResult {
		return &domain.SignalResult{Kind: domain.SignalRubric, Score: score, Confidence: confidence, Explanation: "judged"}
	}

	t.Run("full blend with clean similarity", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer, signalSet(keyword(1.0), similarity(0.2), rubric(1.0, 0.9)))
		require.NoError(t, err)

		// 0.2*1.0 + 0.6*1.0 + 0.2*1.0 = 1.0 since similarity is below onset.
		assert.InDelta(t, 100.0, score.Final, 1e-9)
		assert.InDelta(t, score.Final, breakdownSum(score), 1e-6)
		assert.Empty(t, score.Flags)
		assert.Equal(t, "judged", score.Justification)
	})

	t.Run("blend arithmetic matches weights", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer, signalSet(keyword(0.5), similarity(0.0), rubric(0.8, 0.9)))
		require.NoError(t, err)

		// 100 * (0.2*0.5 + 0.6*0.8 + 0.2*1.0) = 78.
		assert.InDelta(t, 78.0, score.Final, 1e-9)
		assert.InDelta(t, 10.0, score.Breakdown[domain.SignalKeyword], 1e-9)
		assert.InDelta(t, 48.0, score.Breakdown[domain.SignalRubric], 1e-9)
		assert.InDelta(t, 20.0, score.Breakdown[domain.SignalSimilarity], 1e-9)
	})

	t.Run("similarity above onset shrinks its slot", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		// Similarity 0.925 is halfway between onset 0.85 and 1.0, so the
		// similarity slot contributes half its weight.
		score, err := combiner.Combine(question, answer, signalSet(keyword(1.0), similarity(0.925), rubric(1.0, 0.9)))
		require.NoError(t, err)

		assert.InDelta(t, 90.0, score.Final, 1e-6)
		assert.InDelta(t, 10.0, score.Breakdown[domain.SignalSimilarity], 1e-6)
	})

	t.Run("judge failure degrades to keyword-only", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer, signalSet(keyword(0.8), similarity(0.1), nil))
		require.NoError(t, err)

		assert.InDelta(t, 80.0, score.Final, 1e-9)
		assert.True(t, score.HasFlag(domain.FlagReducedConfidence))
		assert.Contains(t, score.Justification, "keyword match only")
		assert.InDelta(t, score.Final, breakdownSum(score), 1e-6)
	})

	t.Run("keyword failure renormalizes remaining weights", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer, signalSet(nil, similarity(0.0), rubric(0.9, 0.9)))
		require.NoError(t, err)

		// Rubric and similarity weights rescale to 0.75 and 0.25:
		// 100 * (0.75*0.9 + 0.25*1.0) = 92.5.
		assert.InDelta(t, 92.5, score.Final, 1e-6)
		assert.True(t, score.HasFlag(domain.FlagReducedConfidence))
	})

	t.Run("plagiarism caps the final score", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer,
			signalSet(keyword(1.0), similarity(1.0, domain.FlagSuspectedPlagiarism), rubric(1.0, 0.9)))
		require.NoError(t, err)

		assert.InDelta(t, 40.0, score.Final, 1e-9)
		assert.True(t, score.HasFlag(domain.FlagSuspectedPlagiarism))
		// The breakdown rescales proportionally and still sums to the capped final.
		assert.InDelta(t, score.Final, breakdownSum(score), 1e-6)
	})

	t.Run("plagiarism cap leaves lower scores alone", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer,
			signalSet(keyword(0.2), similarity(0.95, domain.FlagSuspectedPlagiarism), rubric(0.2, 0.9)))
		require.NoError(t, err)

		assert.True(t, score.HasFlag(domain.FlagSuspectedPlagiarism))
		assert.Less(t, score.Final, 40.0)
	})

	t.Run("low judge confidence is flagged", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer, signalSet(keyword(1.0), similarity(0.0), rubric(0.9, 0.1)))
		require.NoError(t, err)
		assert.True(t, score.HasFlag(domain.FlagLowConfidence))
	})

	t.Run("keyword not-applicable propagates", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		notApplicable := &domain.SignalResult{
			Kind:  domain.SignalKeyword,
			Score: 0.5,
			Flags: []domain.Flag{domain.FlagNotApplicable},
		}
		score, err := combiner.Combine(question, answer, signalSet(notApplicable, similarity(0.0), rubric(0.9, 0.9)))
		require.NoError(t, err)
		assert.True(t, score.HasFlag(domain.FlagNotApplicable))
	})

	t.Run("no signals at all is an error", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		_, err = combiner.Combine(question, answer, nil)
		assert.ErrorIs(t, err, domain.ErrNoSignals)
	})

	t.Run("score carries question metadata", func(t *testing.T) {
		combiner, err := NewCombiner(DefaultCombinerConfig())
		require.NoError(t, err)

		score, err := combiner.Combine(question, answer, signalSet(keyword(1.0), similarity(0.0), rubric(1.0, 0.9)))
		require.NoError(t, err)
		assert.Equal(t, "q1", score.QuestionID)
		assert.Equal(t, "c1", score.CandidateID)
		assert.Equal(t, "s1", score.SessionID)
		assert.Equal(t, "formulas", score.Topic)
		assert.Equal(t, domain.DifficultyMedium, score.Difficulty)
	})
}

func TestCombiner_Combine_Deterministic(t *testing.T) {
	combiner, err := NewCombiner(DefaultCombinerConfig())
	require.NoError(t, err)

	question := domain.Question{ID: "q1", Topic: "formulas"}
	answer := domain.Answer{QuestionID: "q1", CandidateID: "c1", SessionID: "s1"}
	signals := map[domain.SignalKind]domain.SignalResult{
		domain.SignalKeyword:    {Kind: domain.SignalKeyword, Score: 0.6, Confidence: 1.0},
		domain.SignalSimilarity: {Kind: domain.SignalSimilarity, Score: 0.3, Confidence: 1.0},
		domain.SignalRubric:     {Kind: domain.SignalRubric, Score: 0.7, Confidence: 0.9},
	}

	first, err := combiner.Combine(question, answer, signals)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		score, err := combiner.Combine(question, answer, signals)
		require.NoError(t, err)
		assert.InDelta(t, first.Final, score.Final, 1e-12)
		assert.Equal(t, first.Breakdown, score.Breakdown)
		assert.Equal(t, first.Flags, score.Flags)
	}
}
