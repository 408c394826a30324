package extractors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sheetwise/evalengine/internal/domain"
	"github.com/sheetwise/evalengine/internal/ports"
)

var _ ports.SignalExtractor = (*KeywordExtractor)(nil)

// KeywordExtractor computes expected-keyword coverage for an answer:
// |matched keywords| / |expected keywords|, case-insensitive and lightly
// stemmed. A question with no expected keywords yields the configured
// neutral score with a not-applicable flag rather than a divide-by-zero.
//
// The extractor is deterministic, stateless, and safe for concurrent use.
type KeywordExtractor struct {
	// name is the unique identifier for this extractor instance.
	name string
	// config contains the validated configuration parameters.
	config KeywordConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// KeywordConfig controls keyword matching behavior.
type KeywordConfig struct {
	// Stemming enables light suffix stripping so inflected forms of a
	// keyword still count as matches. Default: true.
	Stemming bool `yaml:"stemming" json:"stemming"`

	// NeutralScore is returned when the question has no expected keywords.
	NeutralScore float64 `yaml:"neutral_score" json:"neutral_score" validate:"min=0,max=1"`
}

// DefaultKeywordConfig returns a KeywordConfig with stemming enabled and a
// neutral score of 0.5.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{Stemming: true, NeutralScore: 0.5}
}

// NewKeywordExtractor creates a KeywordExtractor with the given
// configuration. Returns ErrEmptyExtractorName if name is empty, or a
// validation error if the configuration is invalid.
func NewKeywordExtractor(name string, config KeywordConfig) (*KeywordExtractor, error) {
	if name == "" {
		return nil, ErrEmptyExtractorName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &KeywordExtractor{
		name:   name,
		config: config,
		tracer: otel.Tracer("keyword-extractor"),
	}, nil
}

// Kind identifies the signal this extractor produces.
func (ke *KeywordExtractor) Kind() domain.SignalKind { return domain.SignalKeyword }

// Name returns the unique identifier for this extractor instance.
func (ke *KeywordExtractor) Name() string { return ke.name }

// Extract computes the keyword coverage signal for one answer.
//
// Matching is two-tiered: a keyword matches when its folded form appears as
// a substring of the folded answer, or, with stemming enabled, when every
// stemmed token of the keyword appears in the answer's stemmed token set.
// The substring tier keeps multi-word phrases like "cell reference"
// working; the token tier catches inflected forms.
func (ke *KeywordExtractor) Extract(ctx context.Context, input ports.ExtractionInput) (domain.SignalResult, error) {
	_, span := ke.tracer.Start(ctx, "KeywordExtractor.Extract",
		trace.WithAttributes(
			attribute.String("extractor.id", ke.name),
			attribute.String("question.id", input.Question.ID),
			attribute.Int("keywords.expected", len(input.Question.ExpectedKeywords)),
		),
	)
	defer span.End()

	start := time.Now()

	if len(input.Answer.Content) > MaxAnswerLength {
		err := domain.NewExtractionError(domain.SignalKeyword, input.Question.ID, ErrAnswerTooLong)
		span.RecordError(err)
		return domain.SignalResult{}, err
	}

	keywords := input.Question.ExpectedKeywords
	if len(keywords) == 0 {
		span.SetAttributes(attribute.Bool("keywords.not_applicable", true))
		return domain.SignalResult{
			Kind:        domain.SignalKeyword,
			Score:       ke.config.NeutralScore,
			Explanation: "question defines no expected keywords",
			Confidence:  0,
			Flags:       []domain.Flag{domain.FlagNotApplicable},
		}, nil
	}

	foldedAnswer := foldCaser.String(input.Answer.Content)
	answerTokens := stemmedSet(tokenize(input.Answer.Content))

	var matched, missing []string
	for _, kw := range keywords {
		if ke.matches(kw, foldedAnswer, answerTokens) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	coverage := float64(len(matched)) / float64(len(keywords))

	explanation := fmt.Sprintf("matched %d/%d expected keywords", len(matched), len(keywords))
	if len(missing) > 0 {
		sort.Strings(missing)
		explanation += fmt.Sprintf("; missing: %s", strings.Join(missing, ", "))
	}

	span.SetAttributes(
		attribute.Float64("eval.score", coverage),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
		attribute.Int("keywords.matched", len(matched)),
	)

	return domain.SignalResult{
		Kind:        domain.SignalKeyword,
		Score:       coverage,
		Explanation: explanation,
		Confidence:  1.0, // Deterministic matching has perfect confidence.
	}, nil
}

// matches reports whether a single expected keyword is present in the answer.
func (ke *KeywordExtractor) matches(keyword, foldedAnswer string, answerTokens map[string]struct{}) bool {
	folded := foldCaser.String(strings.TrimSpace(keyword))
	if folded == "" {
		return false
	}

	if strings.Contains(foldedAnswer, folded) {
		return true
	}

	if !ke.config.Stemming {
		return false
	}

	kwTokens := tokenize(keyword)
	if len(kwTokens) == 0 {
		return false
	}
	for _, tok := range kwTokens {
		if _, ok := answerTokens[stemToken(tok)]; !ok {
			return false
		}
	}
	return true
}

// Validate checks the extractor is properly configured.
func (ke *KeywordExtractor) Validate() error {
	if err := validate.Struct(ke.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
