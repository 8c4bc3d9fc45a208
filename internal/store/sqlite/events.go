package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/hemisphere-labs/engine/internal/store"
)

var _ store.EventRepo = (*Repository)(nil)

// AppendLLMRequest records one completed llm.Provider call. Logging must
// never fail the request it observed, so callers treat an error here as
// warn-and-continue (see internal/llm/logging.go).
func (r *Repository) AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO llm_events (
			created_at, provider, model, purpose, latency_ms, success,
			input_tokens, output_tokens, request_body, response_body, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), data.Provider, data.Model, data.Purpose,
		data.LatencyMs, data.Success, data.InputTokens, data.OutputTokens,
		data.RequestBody, data.ResponseBody, data.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("append llm request: %w", err)
	}
	return nil
}

type llmEventRow struct {
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      bool   `db:"success"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	RequestBody  string `db:"request_body"`
	ResponseBody string `db:"response_body"`
	ErrorMessage string `db:"error_message"`
}

func (r *Repository) ListLLMRequests(ctx context.Context, limit int) ([]store.LLMRequestEventData, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []llmEventRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT provider, model, purpose, latency_ms, success, input_tokens, output_tokens, request_body, response_body, error_message
		 FROM llm_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list llm events: %w", err)
	}
	out := make([]store.LLMRequestEventData, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.LLMRequestEventData{
			Provider:     row.Provider,
			Model:        row.Model,
			Purpose:      row.Purpose,
			LatencyMs:    row.LatencyMs,
			Success:      row.Success,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			RequestBody:  row.RequestBody,
			ResponseBody: row.ResponseBody,
			ErrorMessage: row.ErrorMessage,
		})
	}
	return out, nil
}
