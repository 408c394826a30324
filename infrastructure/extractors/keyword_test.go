package extractors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwise/evalengine/internal/domain"
	"github.com/sheetwise/evalengine/internal/ports"
)

func TestNewKeywordExtractor(t *testing.T) {
	tests := []struct {
		name      string
		extractor string
		config    KeywordConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid configuration",
			extractor: "test-keyword",
			config:    DefaultKeywordConfig(),
			wantError: false,
		},
		{
			name:      "empty extractor name",
			extractor: "",
			config:    DefaultKeywordConfig(),
			wantError: true,
			errorMsg:  "extractor name cannot be empty",
		},
		{
			name:      "neutral score above maximum",
			extractor: "test-keyword",
			config:    KeywordConfig{Stemming: true, NeutralScore: 1.5},
			wantError: true,
			errorMsg:  "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := NewKeywordExtractor(tt.extractor, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, ext)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, ext)
				assert.Equal(t, domain.SignalKeyword, ext.Kind())
				assert.NoError(t, ext.Validate())
			}
		})
	}
}

func TestKeywordExtractor_Extract(t *testing.T) {
	tests := []struct {
		name          string
		config        KeywordConfig
		keywords      []string
		answer        string
		expectedScore float64
		expectedFlags []domain.Flag
		explanation   string
	}{
		{
			name:          "all keywords matched scores 1.0",
			config:        DefaultKeywordConfig(),
			keywords:      []string{"VLOOKUP", "absolute reference", "table"},
			answer:        "Use VLOOKUP with an absolute reference to the lookup table.",
			expectedScore: 1.0,
		},
		{
			name:          "partial coverage",
			config:        DefaultKeywordConfig(),
			keywords:      []string{"VLOOKUP", "INDEX", "MATCH", "XLOOKUP"},
			answer:        "I would use VLOOKUP, or INDEX with MATCH for left lookups.",
			expectedScore: 0.75,
			explanation:   "missing: XLOOKUP",
		},
		{
			name:          "no keywords matched scores 0",
			config:        DefaultKeywordConfig(),
			keywords:      []string{"pivot table", "slicer"},
			answer:        "Sort the data and use a filter.",
			expectedScore: 0.0,
		},
		{
			name:          "matching is case-insensitive",
			config:        DefaultKeywordConfig(),
			keywords:      []string{"SUMIF"},
			answer:        "you can use sumif for conditional totals",
			expectedScore: 1.0,
		},
		{
			name:          "stemming matches inflected form",
			config:        DefaultKeywordConfig(),
			keywords:      []string{"filtered"},
			answer:        "Filtering the rows hides everything that fails the condition.",
			expectedScore: 1.0,
		},
		{
			name:          "stemming disabled misses inflected form",
			config:        KeywordConfig{Stemming: false, NeutralScore: 0.5},
			keywords:      []string{"filtered"},
			answer:        "Filtering the rows hides everything else.",
			expectedScore: 0.0,
		},
		{
			name:          "empty keyword set returns neutral score",
			config:        DefaultKeywordConfig(),
			keywords:      nil,
			answer:        "Any free-form answer.",
			expectedScore: 0.5,
			expectedFlags: []domain.Flag{domain.FlagNotApplicable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := NewKeywordExtractor("test-keyword", tt.config)
			require.NoError(t, err)

			result, err := ext.Extract(context.Background(), ports.ExtractionInput{
				Question: domain.Question{ID: "q1", ExpectedKeywords: tt.keywords},
				Answer:   domain.Answer{QuestionID: "q1", CandidateID: "c1", Content: tt.answer},
			})
			require.NoError(t, err)

			assert.Equal(t, domain.SignalKeyword, result.Kind)
			assert.InDelta(t, tt.expectedScore, result.Score, 1e-9)
			assert.Equal(t, tt.expectedFlags, result.Flags)
			if tt.explanation != "" {
				assert.Contains(t, result.Explanation, tt.explanation)
			}
		})
	}
}

func TestKeywordExtractor_Extract_Deterministic(t *testing.T) {
	ext, err := NewKeywordExtractor("test-keyword", DefaultKeywordConfig())
	require.NoError(t, err)

	input := ports.ExtractionInput{
		Question: domain.Question{ID: "q1", ExpectedKeywords: []string{"VLOOKUP", "MATCH", "pivot"}},
		Answer:   domain.Answer{QuestionID: "q1", CandidateID: "c1", Content: "VLOOKUP then MATCH"},
	}

	first, err := ext.Extract(context.Background(), input)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		result, err := ext.Extract(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, first, result)
	}
}

func TestKeywordExtractor_Extract_AnswerTooLong(t *testing.T) {
	ext, err := NewKeywordExtractor("test-keyword", DefaultKeywordConfig())
	require.NoError(t, err)

	_, err = ext.Extract(context.Background(), ports.ExtractionInput{
		Question: domain.Question{ID: "q1", ExpectedKeywords: []string{"sum"}},
		Answer:   domain.Answer{QuestionID: "q1", Content: strings.Repeat("x", MaxAnswerLength+1)},
	})

	var extractionErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, domain.SignalKeyword, extractionErr.Kind)
	assert.ErrorIs(t, err, ErrAnswerTooLong)
}

func TestStemToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"filtering", "filter"},
		{"filtered", "filter"},
		{"filters", "filter"},
		{"tables", "tabl"},
		{"sum", "sum"},
		{"rows", "row"},
		{"es", "es"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, stemToken(tt.token))
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("=VLOOKUP(A2,Table1,3)")
	assert.Equal(t, []string{"vlookup", "a2", "table1", "3"}, tokens)
}
