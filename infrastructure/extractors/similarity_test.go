package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwise/evalengine/internal/domain"
	"github.com/sheetwise/evalengine/internal/ports"
)

func TestNewSimilarityExtractor(t *testing.T) {
	tests := []struct {
		name      string
		extractor string
		config    SimilarityConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid configuration",
			extractor: "test-similarity",
			config:    DefaultSimilarityConfig(),
			wantError: false,
		},
		{
			name:      "empty extractor name",
			extractor: "",
			config:    DefaultSimilarityConfig(),
			wantError: true,
			errorMsg:  "extractor name cannot be empty",
		},
		{
			name:      "threshold above maximum",
			extractor: "test-similarity",
			config:    SimilarityConfig{PlagiarismThreshold: 1.5, MinAnswerRunes: 20},
			wantError: true,
			errorMsg:  "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := NewSimilarityExtractor(tt.extractor, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, ext)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, ext)
				assert.Equal(t, domain.SignalSimilarity, ext.Kind())
			}
		})
	}
}

func TestSimilarityExtractor_Extract(t *testing.T) {
	longAnswer := "Use a pivot table with the region field in rows and revenue in values."

	tests := []struct {
		name         string
		answer       domain.Answer
		peers        []domain.Answer
		wantFlagged  bool
		wantScoreMin float64
		wantScoreMax float64
	}{
		{
			name:         "no peers yields zero peer similarity",
			answer:       domain.Answer{QuestionID: "q1", CandidateID: "c1", Content: longAnswer},
			peers:        nil,
			wantFlagged:  false,
			wantScoreMin: 0,
			wantScoreMax: 0,
		},
		{
			name:   "identical peer answer is flagged",
			answer: domain.Answer{QuestionID: "q1", CandidateID: "c2", Content: longAnswer},
			peers: []domain.Answer{
				{QuestionID: "q1", CandidateID: "c1", Content: longAnswer},
			},
			wantFlagged:  true,
			wantScoreMin: 1.0,
			wantScoreMax: 1.0,
		},
		{
			name:   "own answer in the snapshot is skipped",
			answer: domain.Answer{QuestionID: "q1", CandidateID: "c1", Content: longAnswer},
			peers: []domain.Answer{
				{QuestionID: "q1", CandidateID: "c1", Content: longAnswer},
			},
			wantFlagged:  false,
			wantScoreMin: 0,
			wantScoreMax: 0,
		},
		{
			name:   "identical short formula answers are not flagged",
			answer: domain.Answer{QuestionID: "q1", CandidateID: "c2", Content: "=SUM(A1:A10)"},
			peers: []domain.Answer{
				{QuestionID: "q1", CandidateID: "c1", Content: "=SUM(A1:A10)"},
			},
			wantFlagged:  false,
			wantScoreMin: 1.0,
			wantScoreMax: 1.0,
		},
		{
			name:   "dissimilar long answers stay below threshold",
			answer: domain.Answer{QuestionID: "q1", CandidateID: "c2", Content: longAnswer},
			peers: []domain.Answer{
				{QuestionID: "q1", CandidateID: "c1", Content: "Group the data manually and add subtotals for each region instead."},
			},
			wantFlagged:  false,
			wantScoreMin: 0,
			wantScoreMax: 0.84,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := NewSimilarityExtractor("test-similarity", DefaultSimilarityConfig())
			require.NoError(t, err)

			result, err := ext.Extract(context.Background(), ports.ExtractionInput{
				Question: domain.Question{ID: "q1", ReferenceAnswer: "Build a pivot table."},
				Answer:   tt.answer,
				Peers:    tt.peers,
			})
			require.NoError(t, err)

			assert.Equal(t, domain.SignalSimilarity, result.Kind)
			assert.Equal(t, tt.wantFlagged, result.HasFlag(domain.FlagSuspectedPlagiarism))
			assert.GreaterOrEqual(t, result.Score, tt.wantScoreMin)
			assert.LessOrEqual(t, result.Score, tt.wantScoreMax)
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical strings", a: "pivot table", b: "pivot table", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "one empty", a: "pivot", b: "", want: 0.0},
		{name: "single substitution", a: "sum", b: "sun", want: 1.0 - 1.0/3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarityExtractor_Extract_TooManyPeers(t *testing.T) {
	ext, err := NewSimilarityExtractor("test-similarity", DefaultSimilarityConfig())
	require.NoError(t, err)

	peers := make([]domain.Answer, MaxPeerAnswers+1)
	for i := range peers {
		peers[i] = domain.Answer{QuestionID: "q1", CandidateID: "peer", Content: "x"}
	}

	_, err = ext.Extract(context.Background(), ports.ExtractionInput{
		Question: domain.Question{ID: "q1"},
		Answer:   domain.Answer{QuestionID: "q1", CandidateID: "c1", Content: "answer"},
		Peers:    peers,
	})

	var extractionErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.ErrorIs(t, err, ErrTooManyPeers)
}
