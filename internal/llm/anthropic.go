package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicModels maps friendly names to Anthropic model IDs.
var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// scoringSystemPrompt instructs the model how to grade a learner's
// free-text response against the concept and scenario it was asked about.
const scoringSystemPrompt = `You are an expert tutor evaluating a learner's free-text response.

Instructions:
- Judge how well the response demonstrates understanding of the concept, given the scenario it was asked about.
- Score from 0.0 (no understanding shown) to 1.0 (complete, correct understanding).
- Feedback should be addressed directly to the learner, one or two sentences, encouraging but honest.
- Rationale is a brief internal note on why this score was given.`

// AnthropicProvider implements Provider using the Anthropic SDK's
// structured JSON output to return the fixed score/feedback/rationale
// shape directly.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// NewAnthropicProvider creates a new Anthropic-backed Provider.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	model := cfg.Model
	if id, ok := anthropicModels[model]; ok {
		model = id
	}
	if model == "" {
		model = anthropicModels["claude-haiku"]
	}

	return &AnthropicProvider{client: &client, model: model}, nil
}

func (p *AnthropicProvider) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 256
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: scoringSystemPrompt}},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(buildScoringMessage(req)),
				},
			},
		},
		OutputConfig: anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: scoreSchemaDefinition},
		},
	}
	params.Temperature = anthropic.Float(req.Temperature)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	content, err := extractAnthropicContent(msg)
	if err != nil {
		return nil, err
	}

	if err := validateScoreJSON(content); err != nil {
		return nil, err
	}

	var parsed struct {
		Score     float64 `json:"score"`
		Feedback  string  `json:"feedback"`
		Rationale string  `json:"rationale"`
	}
	if err := json.Unmarshal(content, &parsed); err != nil {
		return nil, &ErrInvalidResponse{Content: content, Err: err}
	}

	return &ScoreResult{
		Score:     parsed.Score,
		Feedback:  parsed.Feedback,
		Rationale: parsed.Rationale,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Model: string(msg.Model),
	}, nil
}

func (p *AnthropicProvider) ModelID() string {
	return p.model
}

// buildScoringMessage renders the concept/scenario/response triple into
// the single user turn sent to the model.
func buildScoringMessage(req ScoreRequest) string {
	return fmt.Sprintf("Concept: %s\nScenario: %s\nLearner's response: %s",
		req.Concept, req.Scenario, req.UserResponse)
}

func extractAnthropicContent(msg *anthropic.Message) (json.RawMessage, error) {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return json.RawMessage(block.Text), nil
		}
	}
	return nil, &ErrInvalidResponse{
		Err: fmt.Errorf("no text content in Anthropic response"),
	}
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.StatusCode >= 500:
			return &ErrProviderUnavailable{Err: err}
		}
	}
	return &ErrProviderUnavailable{Err: err}
}
