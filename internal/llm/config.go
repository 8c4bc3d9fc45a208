package llm

import (
	"os"
	"time"
)

// Config holds the scoring collaborator's LLM provider configuration.
// There is exactly one provider — Anthropic — since this engine has
// exactly one LLM consumer (§6's scoring collaborator). A missing API
// key is not an error: Configured reports false and the caller falls
// back to the heuristic, per the collaborator's "never block a session"
// contract.
type Config struct {
	Anthropic AnthropicConfig
	Retry     RetryConfig

	// Timeout is a per-request time limit. Default: 30s. NewProvider does
	// not apply it; a request is bounded only by the caller's context.
	Timeout time.Duration
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults and no API key.
func DefaultConfig() Config {
	return Config{
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from ENGINE_LLM_* environment variables,
// falling back to ANTHROPIC_API_KEY and then to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if k := os.Getenv("ENGINE_LLM_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	} else if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("ENGINE_LLM_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	return cfg
}

// Configured reports whether an API key was found. The scoring
// collaborator treats a Config with Configured()==false the same as a
// nil Provider: every call falls back to the heuristic.
func (c Config) Configured() bool {
	return c.Anthropic.APIKey != ""
}
