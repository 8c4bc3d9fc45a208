// Package llm is the scoring collaborator's LLM backend (§6): given a
// concept, a scenario, and a learner's free-text response, a Provider
// returns a score, feedback, and rationale. This engine has exactly one
// LLM consumer, so the abstraction boundary sits at that call shape
// rather than at a general chat/completion request — there is no second
// caller to justify a wider surface.
package llm

import "context"

// Provider scores one free-text response.
type Provider interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// ScoreRequest is what the scoring collaborator asks a Provider to grade.
type ScoreRequest struct {
	Concept      string
	Scenario     string
	UserResponse string

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// ScoreResult holds a Provider's graded output.
type ScoreResult struct {
	Score     float64
	Feedback  string
	Rationale string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
