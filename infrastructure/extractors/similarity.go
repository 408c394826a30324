package extractors

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sheetwise/evalengine/internal/domain"
	"github.com/sheetwise/evalengine/internal/ports"
)

var _ ports.SignalExtractor = (*SimilarityExtractor)(nil)

// SimilarityExtractor computes textual similarity between a candidate
// answer and (a) the question's reference answer and (b) the other
// candidates' answers to the same question, using normalized Levenshtein
// distance. The signal score is the highest cross-candidate similarity;
// similarity to the reference is reported in the explanation.
//
// The extractor flags suspected-plagiarism when cross-candidate similarity
// reaches the configured threshold on an answer long enough to make the
// comparison meaningful, so trivially short answers like "=SUM()" never
// trip the flag.
//
// This is the one extractor with cross-answer state: it reads the full
// peer snapshot passed in the input, never a hidden shared store.
type SimilarityExtractor struct {
	// name is the unique identifier for this extractor instance.
	name string
	// config contains the validated configuration parameters.
	config SimilarityConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// SimilarityConfig controls plagiarism detection behavior.
type SimilarityConfig struct {
	// PlagiarismThreshold is the cross-candidate similarity at or above
	// which an answer is flagged suspected-plagiarism. Default: 0.85.
	PlagiarismThreshold float64 `yaml:"plagiarism_threshold" json:"plagiarism_threshold" validate:"min=0,max=1"`

	// MinAnswerRunes is the minimum answer length, in runes, for the
	// plagiarism flag to apply. Short formula-only answers collide
	// naturally and must not produce false positives. Default: 20.
	MinAnswerRunes int `yaml:"min_answer_runes" json:"min_answer_runes" validate:"min=0"`
}

// DefaultSimilarityConfig returns a SimilarityConfig with the 0.85
// threshold and a 20-rune minimum length guard.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{PlagiarismThreshold: 0.85, MinAnswerRunes: 20}
}

// NewSimilarityExtractor creates a SimilarityExtractor with the given
// configuration. Returns ErrEmptyExtractorName if name is empty, or a
// validation error if the configuration is invalid.
func NewSimilarityExtractor(name string, config SimilarityConfig) (*SimilarityExtractor, error) {
	if name == "" {
		return nil, ErrEmptyExtractorName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &SimilarityExtractor{
		name:   name,
		config: config,
		tracer: otel.Tracer("similarity-extractor"),
	}, nil
}

// Kind identifies the signal this extractor produces.
func (se *SimilarityExtractor) Kind() domain.SignalKind { return domain.SignalSimilarity }

// Name returns the unique identifier for this extractor instance.
func (se *SimilarityExtractor) Name() string { return se.name }

// Extract computes the similarity signal for one answer against the peer
// snapshot in the input. Peers belonging to the same candidate are skipped
// so a candidate is never compared against their own submission.
func (se *SimilarityExtractor) Extract(ctx context.Context, input ports.ExtractionInput) (domain.SignalResult, error) {
	_, span := se.tracer.Start(ctx, "SimilarityExtractor.Extract",
		trace.WithAttributes(
			attribute.String("extractor.id", se.name),
			attribute.String("question.id", input.Question.ID),
			attribute.Int("peers.count", len(input.Peers)),
			attribute.Float64("config.plagiarism_threshold", se.config.PlagiarismThreshold),
		),
	)
	defer span.End()

	start := time.Now()

	if len(input.Answer.Content) > MaxAnswerLength {
		err := domain.NewExtractionError(domain.SignalSimilarity, input.Question.ID, ErrAnswerTooLong)
		span.RecordError(err)
		return domain.SignalResult{}, err
	}
	if len(input.Peers) > MaxPeerAnswers {
		err := domain.NewExtractionError(domain.SignalSimilarity, input.Question.ID, ErrTooManyPeers)
		span.RecordError(err)
		return domain.SignalResult{}, err
	}

	folded := foldCaser.String(input.Answer.Content)
	refSimilarity := similarity(folded, foldCaser.String(input.Question.ReferenceAnswer))

	var peerMax float64
	var peerMaxCandidate string
	for _, peer := range input.Peers {
		if peer.CandidateID == input.Answer.CandidateID {
			continue
		}
		if len(peer.Content) > MaxAnswerLength {
			err := domain.NewExtractionError(domain.SignalSimilarity, input.Question.ID, ErrAnswerTooLong)
			span.RecordError(err)
			return domain.SignalResult{}, err
		}
		if sim := similarity(folded, foldCaser.String(peer.Content)); sim > peerMax {
			peerMax = sim
			peerMaxCandidate = peer.CandidateID
		}
	}

	answerRunes := utf8.RuneCountInString(input.Answer.Content)
	flagged := peerMax >= se.config.PlagiarismThreshold && answerRunes >= se.config.MinAnswerRunes

	explanation := fmt.Sprintf("reference similarity %.2f, peer similarity %.2f", refSimilarity, peerMax)
	var flags []domain.Flag
	if flagged {
		flags = append(flags, domain.FlagSuspectedPlagiarism)
		explanation = fmt.Sprintf(
			"peer similarity %.2f to candidate %s exceeds threshold %.2f (reference similarity %.2f)",
			peerMax, peerMaxCandidate, se.config.PlagiarismThreshold, refSimilarity)
	}

	span.SetAttributes(
		attribute.Float64("eval.peer_similarity", peerMax),
		attribute.Float64("eval.reference_similarity", refSimilarity),
		attribute.Bool("eval.plagiarism_flagged", flagged),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return domain.SignalResult{
		Kind:        domain.SignalSimilarity,
		Score:       peerMax,
		Explanation: explanation,
		Confidence:  1.0,
		Flags:       flags,
	}, nil
}

// Validate checks the extractor is properly configured.
func (se *SimilarityExtractor) Validate() error {
	if err := validate.Struct(se.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// similarity computes normalized Levenshtein similarity between two
// strings: 1 - distance/maxRuneLen, clamped to [0,1]. Two empty strings are
// identical (1.0).
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)

	// The distance operates on runes, so normalize by rune count rather
	// than byte length.
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	sim := 1.0 - float64(distance)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}
