// Package sqlite is the concrete store.Repository implementation, backed by
// jmoiron/sqlx and modernc.org/sqlite. It keeps a store-holds-handle,
// repository-holds-store layering but uses hand-written SQL rather than a
// generated client, since no code generator ships in this tree.
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

// queryer is the subset of *sqlx.DB / *sqlx.Tx that Repository needs. Binding
// against this instead of a concrete type lets the same method bodies run
// against either the pooled connection or a transaction.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Repository is the sqlite-backed store.Repository.
//
// pool is non-nil only on the top-level Repository returned by New; it's
// what WithTx opens transactions against. Repositories handed to a WithTx
// callback are bound to that transaction instead (pool is nil on them), and
// a nested WithTx call on one of those just runs fn directly.
type Repository struct {
	db   queryer
	pool *sqlx.DB
	raw  *sql.DB // underlying handle, for sequenceCounter
	seq  *sequenceCounter
}

var _ store.Repository = (*Repository)(nil)

// New wraps an open Store in a Repository. Call Migrate once before use.
func New(s *store.Store) (*Repository, error) {
	sc, err := newSequenceCounter(s.DB.DB)
	if err != nil {
		return nil, fmt.Errorf("init sequence counter: %w", err)
	}
	return &Repository{db: s.DB, pool: s.DB, raw: s.DB.DB, seq: sc}, nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (*store.User, error) {
	var u store.User
	err := r.db.GetContext(ctx, &u, `SELECT id, is_active AS "is_active" FROM users WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *Repository) GetTopic(ctx context.Context, id string) (*store.Topic, error) {
	var t store.Topic
	err := r.db.GetContext(ctx, &t, `SELECT id, name FROM topics WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return &t, nil
}

type contentItemRow struct {
	ID                 string `db:"id"`
	TopicID            string `db:"topic_id"`
	Stage              string `db:"stage"`
	ItemType           string `db:"item_type"`
	DifficultyLevel    int    `db:"difficulty_level"`
	HemisphereMode     string `db:"hemisphere_mode"`
	EstimatedDurationS int    `db:"estimated_duration_s"`
	IsActive           bool   `db:"is_active"`
	IsReviewable       bool   `db:"is_reviewable"`
	InterleaveEligible bool   `db:"interleave_eligible"`
	SimilarityTags     string `db:"similarity_tags"`
	Body               string `db:"body"`
	PrimaryKcID        string `db:"primary_kc_id"`
}

func (row contentItemRow) toDomain() store.ContentItem {
	var tags []string
	_ = json.Unmarshal([]byte(row.SimilarityTags), &tags)
	return store.ContentItem{
		ID:                 row.ID,
		TopicID:            row.TopicID,
		Stage:              row.Stage,
		ItemType:           row.ItemType,
		DifficultyLevel:    row.DifficultyLevel,
		HemisphereMode:     row.HemisphereMode,
		EstimatedDurationS: row.EstimatedDurationS,
		IsActive:           row.IsActive,
		IsReviewable:       row.IsReviewable,
		InterleaveEligible: row.InterleaveEligible,
		SimilarityTags:     tags,
		Body:               row.Body,
	}
}

func (r *Repository) ListActiveContentByTopics(ctx context.Context, topicIDs []string) ([]store.ContentItem, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM content_items WHERE is_active = 1 AND topic_id IN (?)`, topicIDs)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []contentItemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list content by topics: %w", err)
	}
	out := make([]store.ContentItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) ListContentByIDs(ctx context.Context, ids []string) ([]store.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM content_items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []contentItemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list content by ids: %w", err)
	}
	out := make([]store.ContentItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) PrimaryKC(ctx context.Context, contentItemID string) (string, error) {
	var kc string
	err := r.db.GetContext(ctx, &kc, `SELECT kc_id FROM content_item_kcs WHERE content_item_id = ? AND is_primary = 1 LIMIT 1`, contentItemID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("primary kc: %w", err)
	}
	return kc, nil
}

func (r *Repository) KCsByTopic(ctx context.Context, topicID string) ([]string, error) {
	var kcs []string
	err := r.db.SelectContext(ctx, &kcs, `SELECT DISTINCT kc_id FROM content_item_kcs WHERE topic_id = ?`, topicID)
	if err != nil {
		return nil, fmt.Errorf("kcs by topic: %w", err)
	}
	return kcs, nil
}

type sessionRowDB struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	TopicID           string         `db:"topic_id"`
	Status            string         `db:"status"`
	SessionType       string         `db:"session_type"`
	CreatedAt         string         `db:"created_at"`
	CompletedAt       sql.NullString `db:"completed_at"`
	DurationS         int            `db:"duration_s"`
	Accuracy          sql.NullFloat64 `db:"accuracy"`
	AdaptiveDecisions []byte         `db:"adaptive_decisions"`
}

func (row sessionRowDB) toDomain() (*store.SessionRow, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	out := &store.SessionRow{
		ID:                row.ID,
		UserID:            row.UserID,
		TopicID:           row.TopicID,
		Status:            row.Status,
		SessionType:       row.SessionType,
		CreatedAt:         createdAt,
		DurationS:         row.DurationS,
		AdaptiveDecisions: row.AdaptiveDecisions,
	}
	if row.CompletedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, row.CompletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		out.CompletedAt = &t
	}
	if row.Accuracy.Valid {
		a := row.Accuracy.Float64
		out.Accuracy = &a
	}
	return out, nil
}

func (r *Repository) InsertSession(ctx context.Context, row store.SessionRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, topic_id, status, session_type, created_at, completed_at, duration_s, accuracy, adaptive_decisions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.TopicID, row.Status, row.SessionType,
		row.CreatedAt.Format(time.RFC3339Nano), nullableTime(row.CompletedAt), row.DurationS, nullableFloat(row.Accuracy), row.AdaptiveDecisions,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *Repository) UpdateSession(ctx context.Context, row store.SessionRow) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, completed_at = ?, duration_s = ?, accuracy = ?, adaptive_decisions = ?
		WHERE id = ?`,
		row.Status, nullableTime(row.CompletedAt), row.DurationS, nullableFloat(row.Accuracy), row.AdaptiveDecisions, row.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update session: no row with id %q", row.ID)
	}
	return nil
}

func (r *Repository) MostRecentInProgressSession(ctx context.Context, userID, topicID string) (*store.SessionRow, error) {
	var row sessionRowDB
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM sessions
		WHERE user_id = ? AND topic_id = ? AND status = 'in_progress'
		ORDER BY created_at DESC LIMIT 1`, userID, topicID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent in-progress session: %w", err)
	}
	return row.toDomain()
}

func (r *Repository) MostRecentInProgressSessionForUser(ctx context.Context, userID string) (*store.SessionRow, error) {
	var row sessionRowDB
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM sessions
		WHERE user_id = ? AND status = 'in_progress'
		ORDER BY created_at DESC LIMIT 1`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent in-progress session for user: %w", err)
	}
	return row.toDomain()
}

func (r *Repository) GetSession(ctx context.Context, id string) (*store.SessionRow, error) {
	var row sessionRowDB
	err := r.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.toDomain()
}

func (r *Repository) InsertAssessmentEvent(ctx context.Context, ev store.AssessmentEvent) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assessment_events (
			sequence, user_id, session_id, content_item_id, kc_id, stage, response_type, payload,
			is_correct, score, scoring_method, presented_at, responded_at, latency_ms,
			confidence_rating, self_rating, help_requested, difficulty_level
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, ev.UserID, ev.SessionID, ev.ContentItemID, ev.KcID, ev.Stage, ev.ResponseType, ev.Payload,
		nullableBool(ev.IsCorrect), nullableFloat(ev.Score), ev.ScoringMethod,
		ev.PresentedAt.Format(time.RFC3339Nano), ev.RespondedAt.Format(time.RFC3339Nano), ev.LatencyMs,
		nullableInt(ev.ConfidenceRating), nullableInt(ev.SelfRating), ev.HelpRequested, ev.DifficultyLevel,
	)
	if err != nil {
		return fmt.Errorf("insert assessment event: %w", err)
	}
	return nil
}

type assessmentEventRow struct {
	ID               int64           `db:"id"`
	Sequence         int64           `db:"sequence"`
	UserID           string          `db:"user_id"`
	SessionID        string          `db:"session_id"`
	ContentItemID    string          `db:"content_item_id"`
	KcID             string          `db:"kc_id"`
	Stage            string          `db:"stage"`
	ResponseType     string          `db:"response_type"`
	Payload          string          `db:"payload"`
	IsCorrect        sql.NullBool    `db:"is_correct"`
	Score            sql.NullFloat64 `db:"score"`
	ScoringMethod    string          `db:"scoring_method"`
	PresentedAt      string          `db:"presented_at"`
	RespondedAt      string          `db:"responded_at"`
	LatencyMs        int64           `db:"latency_ms"`
	ConfidenceRating sql.NullInt64   `db:"confidence_rating"`
	SelfRating       sql.NullInt64   `db:"self_rating"`
	HelpRequested    bool            `db:"help_requested"`
	DifficultyLevel  int             `db:"difficulty_level"`
}

func (row assessmentEventRow) toDomain() (store.AssessmentEvent, error) {
	presentedAt, err := time.Parse(time.RFC3339Nano, row.PresentedAt)
	if err != nil {
		return store.AssessmentEvent{}, fmt.Errorf("parse presented_at: %w", err)
	}
	respondedAt, err := time.Parse(time.RFC3339Nano, row.RespondedAt)
	if err != nil {
		return store.AssessmentEvent{}, fmt.Errorf("parse responded_at: %w", err)
	}
	out := store.AssessmentEvent{
		ID:              row.ID,
		Sequence:        row.Sequence,
		UserID:          row.UserID,
		SessionID:       row.SessionID,
		ContentItemID:   row.ContentItemID,
		KcID:            row.KcID,
		Stage:           row.Stage,
		ResponseType:    row.ResponseType,
		Payload:         row.Payload,
		ScoringMethod:   row.ScoringMethod,
		PresentedAt:     presentedAt,
		RespondedAt:     respondedAt,
		LatencyMs:       row.LatencyMs,
		HelpRequested:   row.HelpRequested,
		DifficultyLevel: row.DifficultyLevel,
	}
	if row.IsCorrect.Valid {
		b := row.IsCorrect.Bool
		out.IsCorrect = &b
	}
	if row.Score.Valid {
		s := row.Score.Float64
		out.Score = &s
	}
	if row.ConfidenceRating.Valid {
		c := int(row.ConfidenceRating.Int64)
		out.ConfidenceRating = &c
	}
	if row.SelfRating.Valid {
		s := int(row.SelfRating.Int64)
		out.SelfRating = &s
	}
	return out, nil
}

func (r *Repository) ListAssessmentEventsBySession(ctx context.Context, sessionID string) ([]store.AssessmentEvent, error) {
	var rows []assessmentEventRow
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM assessment_events WHERE session_id = ? ORDER BY sequence ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list assessment events: %w", err)
	}
	out := make([]store.AssessmentEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullableInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}
