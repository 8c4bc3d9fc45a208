package llm

import (
	"fmt"

	"github.com/hemisphere-labs/engine/internal/store"
)

// NewProvider builds a logged, retrying AnthropicProvider from cfg. It
// returns (nil, nil) when no API key is configured — callers (the scoring
// collaborator) treat a nil Provider as "always fall back to the
// heuristic", not as an error.
func NewProvider(cfg Config, eventRepo store.EventRepo) (Provider, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	base, err := NewAnthropicProvider(cfg.Anthropic)
	if err != nil {
		return nil, fmt.Errorf("initializing anthropic provider: %w", err)
	}

	// Wrap with middleware: caller → retry → logging → base
	logged := WithLogging(base, eventRepo)
	return WithRetry(logged, cfg.Retry), nil
}
