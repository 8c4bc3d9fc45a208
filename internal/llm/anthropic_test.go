package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
	)
	return &AnthropicProvider{
		client: &client,
		model:  "claude-sonnet-4-20250514",
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": `{"score":0.75,"feedback":"Solid grasp of the mechanism.","rationale":"mentions chlorophyll and sunlight"}`},
			},
			"model":       "claude-sonnet-4-20250514",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  50,
				"output_tokens": 30,
			},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	result, err := p.Score(context.Background(), ScoreRequest{
		Concept:      "photosynthesis",
		Scenario:     "Why do leaves turn green?",
		UserResponse: "Chlorophyll absorbs sunlight.",
		MaxTokens:    256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 0.75 {
		t.Fatalf("expected score 0.75, got %f", result.Score)
	}
	if result.Usage.InputTokens != 50 {
		t.Fatalf("expected 50 input tokens, got %d", result.Usage.InputTokens)
	}
	if result.Model != "claude-sonnet-4-20250514" {
		t.Fatalf("unexpected model: %q", result.Model)
	}
}

func TestAnthropicProvider_RateLimit(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"type": "error",
			"error": map[string]any{
				"type":    "rate_limit_error",
				"message": "Rate limit exceeded",
			},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Score(context.Background(), ScoreRequest{UserResponse: "test", MaxTokens: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
}

func TestAnthropicProvider_ServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"type": "error",
			"error": map[string]any{
				"type":    "api_error",
				"message": "Internal server error",
			},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Score(context.Background(), ScoreRequest{UserResponse: "test", MaxTokens: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
	}
}

func TestAnthropicProvider_MalformedContent(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": `{"score":"not a number"}`},
			},
			"model":       "claude-sonnet-4-20250514",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Score(context.Background(), ScoreRequest{UserResponse: "test", MaxTokens: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	var invResp *ErrInvalidResponse
	if !errors.As(err, &invResp) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestAnthropicProvider_ModelID(t *testing.T) {
	p := &AnthropicProvider{model: "claude-sonnet-4-20250514"}
	if p.ModelID() != "claude-sonnet-4-20250514" {
		t.Fatalf("expected 'claude-sonnet-4-20250514', got %q", p.ModelID())
	}
}

func TestNewAnthropicProvider_ModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"claude-sonnet", "claude-sonnet-4-20250514"},
		{"claude-haiku", "claude-haiku-4-5-20251001"},
		{"claude-sonnet-4-20250514", "claude-sonnet-4-20250514"}, // Pass-through.
		{"", "claude-haiku-4-5-20251001"},                        // Default.
	}
	for _, tt := range tests {
		p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: tt.input})
		if err != nil {
			t.Fatalf("NewAnthropicProvider(%q): %v", tt.input, err)
		}
		if p.ModelID() != tt.expected {
			t.Errorf("NewAnthropicProvider(%q).ModelID() = %q, want %q", tt.input, p.ModelID(), tt.expected)
		}
	}
}

func TestNewAnthropicProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}
