package scoring

import (
	"context"
	"testing"

	"github.com/hemisphere-labs/engine/internal/llm"
)

func TestLLMCollaborator_Scores(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResult{
		Result: &llm.ScoreResult{Score: 0.8, Feedback: "Good explanation.", Rationale: "covers the key mechanism"},
	})
	c := NewLLMCollaborator(mock, DefaultConfig())

	req := Request{
		Concept:      "photosynthesis",
		Scenario:     "Why do leaves turn green in sunlight?",
		UserResponse: "Chlorophyll absorbs light to make sugar from CO2 and water.",
	}

	result := c.Score(context.Background(), req)
	if result.Method != "llm" {
		t.Errorf("method = %q, want llm", result.Method)
	}
	if result.Score != 0.8 {
		t.Errorf("score = %f, want 0.8", result.Score)
	}
	if result.Feedback != "Good explanation." {
		t.Errorf("feedback = %q", result.Feedback)
	}
}

func TestLLMCollaborator_FallsBackOnProviderError(t *testing.T) {
	mock := llm.NewMockProvider() // empty queue -> ErrProviderUnavailable
	c := NewLLMCollaborator(mock, DefaultConfig())

	req := Request{
		Concept:      "fractions",
		Scenario:     "What is 1/2 + 1/4?",
		UserResponse: "three quarters because you find a common denominator",
	}

	result := c.Score(context.Background(), req)
	if result.Method != "heuristic" {
		t.Errorf("method = %q, want heuristic", result.Method)
	}
}

func TestLLMCollaborator_FallsBackOnOutOfRangeScore(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResult{
		Result: &llm.ScoreResult{Score: 1.5, Feedback: "x", Rationale: "y"},
	})
	c := NewLLMCollaborator(mock, DefaultConfig())

	result := c.Score(context.Background(), Request{UserResponse: "an answer"})
	if result.Method != "heuristic" {
		t.Errorf("method = %q, want heuristic", result.Method)
	}
}

func TestLLMCollaborator_NilProviderFallsBack(t *testing.T) {
	c := NewLLMCollaborator(nil, DefaultConfig())
	result := c.Score(context.Background(), Request{UserResponse: "word word word word"})
	if result.Method != "heuristic" {
		t.Errorf("method = %q, want heuristic", result.Method)
	}
}
