package store

import "context"

// LLMRequestEventData is one logged call through an llm.Provider, recorded
// by the logging middleware for later inspection (`cmd/llm.go`).
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	LatencyMs    int64
	Success      bool
	InputTokens  int
	OutputTokens int
	RequestBody  string
	ResponseBody string
	ErrorMessage string
}

// EventRepo is the narrow persistence contract the LLM logging middleware
// consumes. It is independent of Repository: the engine's core never
// touches it, only the scoring collaborator's logging decorator does.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	ListLLMRequests(ctx context.Context, limit int) ([]LLMRequestEventData, error)
}
