// Package testutils provides test doubles shared across the evaluation
// engine's test suites.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sheetwise/evalengine/internal/ports"
)

// MockJudgeClient implements ports.LLMClient with pattern-matched canned
// verdicts, so rubric extractor and pipeline tests run without a live
// provider. The first pattern found as a substring of the prompt wins;
// unmatched prompts get the default response.
type MockJudgeClient struct {
	mu sync.Mutex

	model     string
	responses map[string]string
	defaults  string
	calls     []string
}

var _ ports.LLMClient = (*MockJudgeClient)(nil)

// NewMockJudgeClient creates a mock judge that answers every prompt with a
// middling verdict unless a pattern response is registered.
func NewMockJudgeClient() *MockJudgeClient {
	return &MockJudgeClient{
		model:     "mock-judge-v1",
		responses: make(map[string]string),
		defaults: `{"correctness": 0.7, "completeness": 0.6, "relevance": 0.8, ` +
			`"confidence": 0.9, "justification": "reasonable answer with minor gaps", ` +
			`"suggestions": ["mention absolute references"]}`,
	}
}

// SetResponse registers a canned response for prompts containing pattern.
func (m *MockJudgeClient) SetResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[pattern] = response
}

// SetVerdict registers a canned rubric verdict for prompts containing
// pattern, built from the given criterion scores.
func (m *MockJudgeClient) SetVerdict(pattern string, correctness, completeness, relevance, confidence float64, justification string) {
	m.SetResponse(pattern, fmt.Sprintf(
		`{"correctness": %.2f, "completeness": %.2f, "relevance": %.2f, "confidence": %.2f, "justification": %q}`,
		correctness, completeness, relevance, confidence, justification))
}

// SetDefaultResponse replaces the response used when no pattern matches.
func (m *MockJudgeClient) SetDefaultResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = response
}

// Complete returns the canned response for the first matching pattern.
func (m *MockJudgeClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, prompt)

	for pattern, response := range m.responses {
		if strings.Contains(prompt, pattern) {
			return response, nil
		}
	}
	return m.defaults, nil
}

// EstimateTokens approximates tokens at four characters per token.
func (m *MockJudgeClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel returns the mock model name.
func (m *MockJudgeClient) GetModel() string { return m.model }

// CallCount returns how many prompts the mock has received.
func (m *MockJudgeClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastPrompt returns the most recent prompt, or empty if none.
func (m *MockJudgeClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

// FailingJudgeClient implements ports.LLMClient and fails every request
// with the configured error, for degradation tests.
type FailingJudgeClient struct {
	// Err is returned from every Complete call.
	Err error

	mu    sync.Mutex
	calls int
}

var _ ports.LLMClient = (*FailingJudgeClient)(nil)

// NewFailingJudgeClient creates a judge client that always fails with err.
func NewFailingJudgeClient(err error) *FailingJudgeClient {
	return &FailingJudgeClient{Err: err}
}

// Complete always fails.
func (f *FailingJudgeClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return "", f.Err
}

// EstimateTokens approximates tokens at four characters per token.
func (f *FailingJudgeClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel returns a fixed model name.
func (f *FailingJudgeClient) GetModel() string { return "failing-judge-v1" }

// CallCount returns how many requests were attempted.
func (f *FailingJudgeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
