package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sheetwise/evalengine/internal/domain"
	"github.com/sheetwise/evalengine/internal/ports"
)

var _ ports.SignalExtractor = (*RubricJudgeExtractor)(nil)

// Default configuration values for the rubric judge.
const (
	DefaultJudgeMaxTokens   = 400 // Room for three criteria plus justification.
	DefaultJudgeTemperature = 0.0 // Deterministic scoring.
)

// defaultJudgePrompt asks the judge for per-criterion scores in [0,1].
// The JSON format instruction is appended separately by Extract.
const defaultJudgePrompt = `You are grading a candidate's answer in an Excel skills interview.

Question: {{.Question}}

Reference answer: {{.ReferenceAnswer}}

Candidate answer: {{.Answer}}

Score the candidate answer against the reference on three criteria, each a number between 0 and 1:
- correctness: is the answer factually right?
- completeness: does it cover every part of the question?
- relevance: does it stay on topic?

Be objective and concise.`

// RubricJudgeExtractor delegates to an external language-model judge with a
// structured prompt and validates the response against a strict schema
// before use. Failures to reach the judge, timeouts, and unparseable
// responses are returned as ExternalJudgeError; the evaluation pipeline
// degrades to the remaining signals rather than aborting.
//
// The judge call is the only operation in the pipeline expected to block
// for non-trivial wall-clock time; the configured client is responsible
// for enforcing the request timeout.
type RubricJudgeExtractor struct {
	// name is the unique identifier for this extractor instance.
	name string
	// config contains the validated configuration parameters.
	config RubricJudgeConfig
	// client provides access to the external judge.
	client ports.LLMClient
	// promptTemplate is the compiled template for safe prompt generation.
	promptTemplate *template.Template
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// RubricJudgeConfig defines the configuration for the RubricJudgeExtractor.
type RubricJudgeConfig struct {
	// PromptTemplate is the Go template used to build the judge prompt.
	// It receives {{.Question}}, {{.ReferenceAnswer}}, and {{.Answer}}.
	PromptTemplate string `yaml:"prompt_template" json:"prompt_template" validate:"required,min=20"`

	// Temperature controls randomness in judge scoring (0.0-1.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0,max=1"`

	// MaxTokens limits the length of the judge's justification.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=2000"`
}

// DefaultRubricJudgeConfig returns a RubricJudgeConfig with the built-in
// prompt and deterministic sampling.
func DefaultRubricJudgeConfig() RubricJudgeConfig {
	return RubricJudgeConfig{
		PromptTemplate: defaultJudgePrompt,
		Temperature:    DefaultJudgeTemperature,
		MaxTokens:      DefaultJudgeMaxTokens,
	}
}

// judgeResponse is the JSON structure the judge must return. It is
// validated strictly; malformed responses become ExternalJudgeError,
// never silently coerced.
type judgeResponse struct {
	// Correctness scores factual accuracy in [0,1].
	Correctness float64 `json:"correctness" validate:"min=0,max=1"`

	// Completeness scores coverage of the question in [0,1].
	Completeness float64 `json:"completeness" validate:"min=0,max=1"`

	// Relevance scores topical focus in [0,1].
	Relevance float64 `json:"relevance" validate:"min=0,max=1"`

	// Confidence reports the judge's certainty in [0,1].
	Confidence float64 `json:"confidence" validate:"min=0,max=1"`

	// Justification explains the scores.
	Justification string `json:"justification" validate:"required,min=10"`

	// Suggestions lists up to a few concise improvement hints.
	Suggestions []string `json:"suggestions,omitempty" validate:"max=5"`
}

// NewRubricJudgeExtractor creates a RubricJudgeExtractor with the given
// client and configuration. Returns an error if the name is empty, the
// client is nil, the configuration is invalid, or the prompt template does
// not compile.
func NewRubricJudgeExtractor(name string, client ports.LLMClient, config RubricJudgeConfig) (*RubricJudgeExtractor, error) {
	if name == "" {
		return nil, ErrEmptyExtractorName
	}
	if client == nil {
		return nil, fmt.Errorf("judge client cannot be nil")
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	tmpl, err := template.New("judgePrompt").Parse(config.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge prompt template: %w", err)
	}

	return &RubricJudgeExtractor{
		name:           name,
		config:         config,
		client:         client,
		promptTemplate: tmpl,
		tracer:         otel.Tracer("rubric-judge-extractor"),
	}, nil
}

// Kind identifies the signal this extractor produces.
func (rj *RubricJudgeExtractor) Kind() domain.SignalKind { return domain.SignalRubric }

// Name returns the unique identifier for this extractor instance.
func (rj *RubricJudgeExtractor) Name() string { return rj.name }

// Extract sends the structured prompt to the judge and converts the
// validated per-criterion response into a single rubric-weighted signal.
func (rj *RubricJudgeExtractor) Extract(ctx context.Context, input ports.ExtractionInput) (domain.SignalResult, error) {
	ctx, span := rj.tracer.Start(ctx, "RubricJudgeExtractor.Extract",
		trace.WithAttributes(
			attribute.String("extractor.id", rj.name),
			attribute.String("question.id", input.Question.ID),
			attribute.String("judge.model", rj.client.GetModel()),
		),
	)
	defer span.End()

	start := time.Now()

	prompt, err := rj.buildPrompt(input)
	if err != nil {
		span.RecordError(err)
		return domain.SignalResult{}, domain.NewExtractionError(domain.SignalRubric, input.Question.ID, err)
	}

	options := map[string]any{
		"temperature": rj.config.Temperature,
		"max_tokens":  rj.config.MaxTokens,
	}
	if supportsJSONMode(rj.client.GetModel()) {
		options["response_format"] = map[string]string{"type": "json_object"}
	}

	response, err := rj.client.Complete(ctx, prompt, options)
	if err != nil {
		span.RecordError(err)
		return domain.SignalResult{}, rj.wrapJudgeError("complete", err)
	}

	verdict, err := rj.parseResponse(response)
	if err != nil {
		span.RecordError(err)
		return domain.SignalResult{}, err
	}

	score := input.Question.Rubric.WeightedScore(verdict.Correctness, verdict.Completeness, verdict.Relevance)

	span.SetAttributes(
		attribute.Float64("eval.score", score),
		attribute.Float64("eval.confidence", verdict.Confidence),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return domain.SignalResult{
		Kind:        domain.SignalRubric,
		Score:       score,
		Explanation: verdict.Justification,
		Confidence:  verdict.Confidence,
		Suggestions: verdict.Suggestions,
	}, nil
}

// Validate checks the extractor is properly configured and the judge
// client reports a model.
func (rj *RubricJudgeExtractor) Validate() error {
	if rj.client == nil {
		return fmt.Errorf("extractor %s: judge client is not configured", rj.name)
	}
	if err := validate.Struct(rj.config); err != nil {
		return fmt.Errorf("extractor %s: configuration validation failed: %w", rj.name, err)
	}
	if rj.client.GetModel() == "" {
		return fmt.Errorf("extractor %s: judge client model is not configured", rj.name)
	}
	return nil
}

// buildPrompt renders the prompt template and appends the mandatory JSON
// format instruction.
func (rj *RubricJudgeExtractor) buildPrompt(input ports.ExtractionInput) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Question        string
		ReferenceAnswer string
		Answer          string
	}{
		Question:        input.Question.Prompt,
		ReferenceAnswer: input.Question.ReferenceAnswer,
		Answer:          input.Answer.Content,
	}
	if err := rj.promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String() + "\n\nIMPORTANT: You must respond with valid JSON in exactly this format:\n" +
		`{"correctness": <0.0-1.0>, "completeness": <0.0-1.0>, "relevance": <0.0-1.0>, "confidence": <0.0-1.0>, "justification": "<short explanation>", "suggestions": ["<hint>"]}`, nil
}

// parseResponse extracts and validates the judge's JSON verdict.
func (rj *RubricJudgeExtractor) parseResponse(response string) (judgeResponse, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return judgeResponse{}, rj.wrapJudgeError("parse",
			fmt.Errorf("%w: no JSON object in response (%d chars)", ports.ErrInvalidResponse, len(response)))
	}

	var verdict judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &verdict); err != nil {
		return judgeResponse{}, rj.wrapJudgeError("parse",
			fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err))
	}

	if err := validate.Struct(verdict); err != nil {
		return judgeResponse{}, rj.wrapJudgeError("validate",
			fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err))
	}

	return verdict, nil
}

// wrapJudgeError normalizes any judge failure into an ExternalJudgeError,
// mapping context timeouts onto the timeout sentinel.
func (rj *RubricJudgeExtractor) wrapJudgeError(operation string, err error) error {
	var judgeErr *ports.ExternalJudgeError
	if errors.As(err, &judgeErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ports.ErrTimeout, err)
	}
	return ports.NewExternalJudgeError(rj.client.GetModel(), operation, err)
}

// supportsJSONMode reports whether the model's provider honors a
// structured JSON response format hint. OpenAI maps it to JSON mode and
// Google to a JSON MIME type; Anthropic has no equivalent, so Claude
// models rely on the prompt's format instruction alone.
func supportsJSONMode(model string) bool {
	lower := strings.ToLower(model)
	return strings.Contains(lower, "gpt") || strings.Contains(lower, "gemini")
}

// extractJSON pulls a JSON object out of a response that may wrap it in
// markdown fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(response, "```"); idx != -1 {
		rest := response[idx+3:]
		if nl := strings.Index(rest, "\n"); nl != -1 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end != -1 {
			if candidate := strings.TrimSpace(rest[:end]); strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Walk to the matching closing brace, skipping braces inside strings.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1]
				}
			}
		}
	}
	return ""
}
