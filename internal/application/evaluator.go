package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sheetwise/evalengine/infrastructure/scoring"
	"github.com/sheetwise/evalengine/internal/domain"
	"github.com/sheetwise/evalengine/internal/ports"
)

// Evaluator orchestrates the evaluation pipeline for submitted answers:
// it loads the question and peer snapshot, fans out to the signal
// extractors concurrently, combines the signals into a score, and persists
// the result.
//
// Extractor failures never abort an evaluation. Each extractor runs
// independently; whatever signals survive are handed to the combiner, which
// degrades and flags the score. Only a fully empty signal set is an error.
type Evaluator struct {
	store      ports.EvaluationStore
	extractors []ports.SignalExtractor
	combiner   *scoring.Combiner
	aggregator *scoring.SessionAggregator
	ranking    *scoring.RankingEngine
	metrics    ports.MetricsCollector
	tracer     trace.Tracer

	// concurrency bounds parallel answer evaluations in EvaluateBatch.
	concurrency int
}

// NewEvaluator creates an Evaluator. Each extractor must produce a distinct
// signal kind; the metrics collector may be nil.
func NewEvaluator(
	store ports.EvaluationStore,
	sigExtractors []ports.SignalExtractor,
	combiner *scoring.Combiner,
	aggregator *scoring.SessionAggregator,
	ranking *scoring.RankingEngine,
	metrics ports.MetricsCollector,
	concurrency int,
) (*Evaluator, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if len(sigExtractors) == 0 {
		return nil, fmt.Errorf("at least one signal extractor is required")
	}
	if combiner == nil || aggregator == nil || ranking == nil {
		return nil, fmt.Errorf("combiner, aggregator, and ranking engine are required")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	seen := make(map[domain.SignalKind]bool, len(sigExtractors))
	for _, ext := range sigExtractors {
		if err := ext.Validate(); err != nil {
			return nil, fmt.Errorf("extractor %s failed validation: %w", ext.Kind(), err)
		}
		if seen[ext.Kind()] {
			return nil, fmt.Errorf("duplicate extractor for signal %s", ext.Kind())
		}
		seen[ext.Kind()] = true
	}

	return &Evaluator{
		store:       store,
		extractors:  sigExtractors,
		combiner:    combiner,
		aggregator:  aggregator,
		ranking:     ranking,
		metrics:     metrics,
		tracer:      otel.Tracer("evaluator"),
		concurrency: concurrency,
	}, nil
}

// EvaluateAnswer runs the full pipeline for one submitted answer: persist
// the answer, extract signals concurrently, combine them, and persist the
// resulting score.
//
// Empty answer content is rejected before any extractor runs. Individual
// extractor failures are recorded and the evaluation continues with the
// remaining signals.
func (e *Evaluator) EvaluateAnswer(ctx context.Context, answer domain.Answer) (domain.AnswerScore, error) {
	ctx, span := e.tracer.Start(ctx, "Evaluator.EvaluateAnswer",
		trace.WithAttributes(
			attribute.String("question.id", answer.QuestionID),
			attribute.String("candidate.id", answer.CandidateID),
			attribute.String("session.id", answer.SessionID),
		),
	)
	defer span.End()

	start := time.Now()

	if answer.Content == "" {
		return domain.AnswerScore{}, domain.ErrEmptyAnswer
	}

	question, err := e.store.Question(ctx, answer.QuestionID)
	if err != nil {
		span.RecordError(err)
		return domain.AnswerScore{}, fmt.Errorf("failed to load question %s: %w", answer.QuestionID, err)
	}

	if err := e.store.SaveAnswer(ctx, answer); err != nil {
		span.RecordError(err)
		return domain.AnswerScore{}, fmt.Errorf("failed to save answer: %w", err)
	}

	// The peer snapshot is taken once, after this answer is saved, so every
	// extractor sees the same answer set.
	peers, err := e.store.AnswersForQuestion(ctx, answer.SessionID, answer.QuestionID)
	if err != nil {
		span.RecordError(err)
		return domain.AnswerScore{}, fmt.Errorf("failed to load peer answers: %w", err)
	}

	input := ports.ExtractionInput{Question: question, Answer: answer, Peers: peers}
	signals, extractionErrs := e.extractSignals(ctx, input)

	for _, extractionErr := range extractionErrs {
		span.RecordError(extractionErr)
	}

	score, err := e.combiner.Combine(question, answer, signals)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrNoSignals) {
			return domain.AnswerScore{}, fmt.Errorf("all signal extractors failed for question %s: %w (%v)",
				answer.QuestionID, err, errors.Join(extractionErrs...))
		}
		return domain.AnswerScore{}, err
	}

	if err := e.store.SaveAnswerScore(ctx, score); err != nil {
		span.RecordError(err)
		return domain.AnswerScore{}, fmt.Errorf("failed to save answer score: %w", err)
	}

	span.SetAttributes(
		attribute.Float64("eval.final_score", score.Final),
		attribute.Int("eval.signals", len(signals)),
		attribute.Int("eval.extraction_errors", len(extractionErrs)),
	)
	e.recordEvaluation(score, time.Since(start))

	return score, nil
}

// extractSignals fans out to every extractor concurrently and collects the
// results per signal kind. A failed extractor contributes an error instead
// of a signal; it never cancels the others.
func (e *Evaluator) extractSignals(ctx context.Context, input ports.ExtractionInput) (map[domain.SignalKind]domain.SignalResult, []error) {
	type outcome struct {
		kind   domain.SignalKind
		result domain.SignalResult
		err    error
	}

	outcomes := make([]outcome, len(e.extractors))

	var wg sync.WaitGroup
	for i, ext := range e.extractors {
		wg.Add(1)
		go func(i int, ext ports.SignalExtractor) {
			defer wg.Done()
			result, err := ext.Extract(ctx, input)
			outcomes[i] = outcome{kind: ext.Kind(), result: result, err: err}
		}(i, ext)
	}
	wg.Wait()

	signals := make(map[domain.SignalKind]domain.SignalResult, len(e.extractors))
	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, fmt.Errorf("signal %s: %w", o.kind, o.err))
			continue
		}
		signals[o.kind] = o.result
	}
	return signals, errs
}

// EvaluateBatch evaluates a set of answers with bounded concurrency and
// returns the scores in input order. The first hard failure cancels the
// remaining evaluations; degraded scores are not failures.
func (e *Evaluator) EvaluateBatch(ctx context.Context, answers []domain.Answer) ([]domain.AnswerScore, error) {
	ctx, span := e.tracer.Start(ctx, "Evaluator.EvaluateBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(answers))),
	)
	defer span.End()

	scores := make([]domain.AnswerScore, len(answers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, answer := range answers {
		g.Go(func() error {
			score, err := e.EvaluateAnswer(ctx, answer)
			if err != nil {
				return fmt.Errorf("candidate %s, question %s: %w", answer.CandidateID, answer.QuestionID, err)
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return scores, nil
}

// SummarizeCandidate aggregates a candidate's scores within a session into
// a summary and persists it. A candidate with no evaluated answers yields
// an AggregationError, never a zero-score summary.
func (e *Evaluator) SummarizeCandidate(ctx context.Context, sessionID, candidateID string) (domain.CandidateSummary, error) {
	ctx, span := e.tracer.Start(ctx, "Evaluator.SummarizeCandidate",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("candidate.id", candidateID),
		),
	)
	defer span.End()

	scores, err := e.store.AnswerScores(ctx, sessionID, candidateID)
	if err != nil {
		span.RecordError(err)
		return domain.CandidateSummary{}, fmt.Errorf("failed to load answer scores: %w", err)
	}

	summary, err := e.aggregator.Aggregate(candidateID, scores)
	if err != nil {
		span.RecordError(err)
		return domain.CandidateSummary{}, err
	}

	if err := e.store.SaveSummary(ctx, sessionID, summary); err != nil {
		span.RecordError(err)
		return domain.CandidateSummary{}, fmt.Errorf("failed to save summary: %w", err)
	}

	span.SetAttributes(
		attribute.Float64("eval.overall", summary.Overall),
		attribute.Int("eval.answers", summary.AnswersEvaluated),
	)
	return summary, nil
}

// RankCandidates orders every summarized candidate in the session into a
// deterministic ranking with ranks and percentiles.
func (e *Evaluator) RankCandidates(ctx context.Context, sessionID string) (domain.Ranking, error) {
	ctx, span := e.tracer.Start(ctx, "Evaluator.RankCandidates",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	summaries, err := e.store.Summaries(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return domain.Ranking{}, fmt.Errorf("failed to load summaries: %w", err)
	}

	ranking := e.ranking.Rank(summaries)
	span.SetAttributes(attribute.Int("eval.candidates", len(ranking.Candidates)))
	return ranking, nil
}

func (e *Evaluator) recordEvaluation(score domain.AnswerScore, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordLatency("evaluate_answer", elapsed, nil)
	e.metrics.RecordCounter("evaluations_total", 1, map[string]string{
		"status":     "success",
		"degraded":   strconv.FormatBool(score.HasFlag(domain.FlagReducedConfidence)),
		"plagiarism": strconv.FormatBool(score.HasFlag(domain.FlagSuspectedPlagiarism)),
	})
}
