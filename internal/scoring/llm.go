package scoring

import (
	"context"

	"github.com/hemisphere-labs/engine/internal/llm"
)

// Config tunes the LLM-backed collaborator's request shape.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

// LLMCollaborator scores free-text responses with an llm.Provider, falling
// back to heuristicScore whenever the provider is nil or anything about the
// call fails.
type LLMCollaborator struct {
	provider llm.Provider
	cfg      Config
}

// NewLLMCollaborator builds a Collaborator backed by provider. provider may
// be nil, in which case Score always falls back to the heuristic.
func NewLLMCollaborator(provider llm.Provider, cfg Config) *LLMCollaborator {
	return &LLMCollaborator{provider: provider, cfg: cfg}
}

// Score attempts an LLM-backed score and falls back to the deterministic
// heuristic on any error, including a nil provider, a provider error, or an
// out-of-range score. It never returns an error itself.
func (c *LLMCollaborator) Score(ctx context.Context, req Request) Result {
	if c.provider == nil {
		return heuristicScore(req)
	}

	result, err := c.provider.Score(ctx, llm.ScoreRequest{
		Concept:      req.Concept,
		Scenario:     req.Scenario,
		UserResponse: req.UserResponse,
		MaxTokens:    c.cfg.MaxTokens,
		Temperature:  c.cfg.Temperature,
	})
	if err != nil || result == nil {
		return heuristicScore(req)
	}
	if result.Score < 0 || result.Score > 1 {
		return heuristicScore(req)
	}

	return Result{
		Score:     result.Score,
		Feedback:  result.Feedback,
		Rationale: result.Rationale,
		Method:    "llm",
	}
}

var _ Collaborator = (*LLMCollaborator)(nil)
