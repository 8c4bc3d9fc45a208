package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hemisphere-labs/engine/internal/store"
)

type fsrsMemoryRowDB struct {
	UserID         string         `db:"user_id"`
	MemoryItemID   string         `db:"memory_item_id"`
	KcID           string         `db:"kc_id"`
	StageType      string         `db:"stage_type"`
	Stability      float64        `db:"stability"`
	Difficulty     float64        `db:"difficulty"`
	Retrievability float64        `db:"retrievability"`
	State          string         `db:"state"`
	LastReview     sql.NullString `db:"last_review"`
	NextReview     string         `db:"next_review"`
	ReviewCount    int            `db:"review_count"`
	LapseCount     int            `db:"lapse_count"`
}

func (row fsrsMemoryRowDB) toDomain() (store.FsrsMemoryRow, error) {
	nextReview, err := time.Parse(time.RFC3339Nano, row.NextReview)
	if err != nil {
		return store.FsrsMemoryRow{}, fmt.Errorf("parse next_review: %w", err)
	}
	out := store.FsrsMemoryRow{
		UserID:         row.UserID,
		MemoryItemID:   row.MemoryItemID,
		KcID:           row.KcID,
		StageType:      row.StageType,
		Stability:      row.Stability,
		Difficulty:     row.Difficulty,
		Retrievability: row.Retrievability,
		State:          row.State,
		NextReview:     nextReview,
		ReviewCount:    row.ReviewCount,
		LapseCount:     row.LapseCount,
	}
	if row.LastReview.Valid {
		t, err := time.Parse(time.RFC3339Nano, row.LastReview.String)
		if err != nil {
			return store.FsrsMemoryRow{}, fmt.Errorf("parse last_review: %w", err)
		}
		out.LastReview = &t
	}
	return out, nil
}

func (r *Repository) UpsertFsrsMemoryRow(ctx context.Context, row store.FsrsMemoryRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fsrs_memory_rows (user_id, memory_item_id, kc_id, stage_type, stability, difficulty, retrievability, state, last_review, next_review, review_count, lapse_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, memory_item_id) DO UPDATE SET
			kc_id = excluded.kc_id,
			stage_type = excluded.stage_type,
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			retrievability = excluded.retrievability,
			state = excluded.state,
			last_review = excluded.last_review,
			next_review = excluded.next_review,
			review_count = excluded.review_count,
			lapse_count = excluded.lapse_count`,
		row.UserID, row.MemoryItemID, row.KcID, row.StageType, row.Stability, row.Difficulty, row.Retrievability,
		row.State, nullableTime(row.LastReview), row.NextReview.Format(time.RFC3339Nano), row.ReviewCount, row.LapseCount,
	)
	if err != nil {
		return fmt.Errorf("upsert fsrs memory row: %w", err)
	}
	return nil
}

func (r *Repository) GetFsrsMemoryRows(ctx context.Context, userID string, memoryItemIDs []string) ([]store.FsrsMemoryRow, error) {
	if len(memoryItemIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM fsrs_memory_rows WHERE user_id = ? AND memory_item_id IN (?)`, userID, memoryItemIDs)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []fsrsMemoryRowDB
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get fsrs memory rows: %w", err)
	}
	return toMemoryRows(rows)
}

func (r *Repository) GetReturnMemoryRows(ctx context.Context, userID string, kcIDs []string) ([]store.FsrsMemoryRow, error) {
	if len(kcIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM fsrs_memory_rows WHERE user_id = ? AND stage_type = 'return' AND kc_id IN (?)`, userID, kcIDs)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []fsrsMemoryRowDB
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get return memory rows: %w", err)
	}
	return toMemoryRows(rows)
}

func toMemoryRows(rows []fsrsMemoryRowDB) ([]store.FsrsMemoryRow, error) {
	out := make([]store.FsrsMemoryRow, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

type fsrsParametersRow struct {
	UserID          string  `db:"user_id"`
	Weights         string  `db:"weights"`
	TargetRetention float64 `db:"target_retention"`
}

func (r *Repository) GetFsrsParameters(ctx context.Context, userID string) (*store.FsrsParameters, error) {
	var row fsrsParametersRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM fsrs_parameters WHERE user_id = ?`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fsrs parameters: %w", err)
	}
	var w [19]float64
	if err := json.Unmarshal([]byte(row.Weights), &w); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	return &store.FsrsParameters{UserID: row.UserID, Weights: w, TargetRetention: row.TargetRetention}, nil
}

func (r *Repository) UpsertFsrsParameters(ctx context.Context, p store.FsrsParameters) error {
	weights, err := json.Marshal(p.Weights)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO fsrs_parameters (user_id, weights, target_retention)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET weights = excluded.weights, target_retention = excluded.target_retention`,
		p.UserID, string(weights), p.TargetRetention,
	)
	if err != nil {
		return fmt.Errorf("upsert fsrs parameters: %w", err)
	}
	return nil
}
