package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hemisphere-labs/engine/internal/store"
)

// scoringPurpose labels every event this package logs. There is exactly
// one LLM consumer (response scoring), so unlike the teacher's
// multi-purpose generation calls there is nothing to distinguish by
// context.
const scoringPurpose = "response-scoring"

// LoggingProvider is a decorator that records every scoring call as an
// event via the engine's LLM request log (cmd's `engine llm list/stats`).
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, eventRepo: repo}
}

func (l *LoggingProvider) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	start := time.Now()

	result, err := l.inner.Score(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     scoringPurpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if result != nil {
		data.InputTokens = result.Usage.InputTokens
		data.OutputTokens = result.Usage.OutputTokens
		data.Model = result.Model
		data.ResponseBody = fmt.Sprintf("score=%.2f feedback=%q", result.Score, result.Feedback)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Log the event but don't fail the request if logging fails.
	if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM request event: %v\n", logErr)
	}

	return result, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of what was asked.
func serializeRequest(req ScoreRequest) string {
	return fmt.Sprintf("concept=%q scenario=%q response=%q", req.Concept, req.Scenario, req.UserResponse)
}
