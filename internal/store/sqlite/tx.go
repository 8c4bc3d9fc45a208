package sqlite

import (
	"context"
	"fmt"

	"github.com/hemisphere-labs/engine/internal/store"
)

// WithTx runs fn against a Repository bound to a single transaction. Every
// call the orchestrator makes through the Repository argument commits or
// rolls back as one unit: recordResponse needs the assessment event, the
// FSRS memory row, and the session's adaptiveDecisions snapshot to all
// land together or not at all.
//
// The global sequence counter is deliberately outside the transaction (see
// event.go) — it's a separate, independently-atomic allocation, not part of
// the row set being committed.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	if r.pool == nil {
		// Already running inside a transaction; nested WithTx just shares it.
		return fn(ctx, r)
	}

	tx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txRepo := &Repository{db: tx, pool: nil, raw: r.raw, seq: r.seq}

	if err := fn(ctx, txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
