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

type learnerKcStateRow struct {
	UserID           string  `db:"user_id"`
	KcID             string  `db:"kc_id"`
	LhAccuracy       float64 `db:"lh_accuracy"`
	LhAttempts       int     `db:"lh_attempts"`
	LhLastAccuracy   float64 `db:"lh_last_accuracy"`
	RhScore          float64 `db:"rh_score"`
	RhAttempts       int     `db:"rh_attempts"`
	RhLastScore      float64 `db:"rh_last_score"`
	MasteryLevel     float64 `db:"mastery_level"`
	IntegratedScore  float64 `db:"integrated_score"`
	DifficultyTier   int     `db:"difficulty_tier"`
	FirstEncountered sql.NullString `db:"first_encountered"`
	LastPracticed    sql.NullString `db:"last_practiced"`
	UpdatedAt        sql.NullString `db:"updated_at"`
}

func (row learnerKcStateRow) toDomain() (store.LearnerKcState, error) {
	out := store.LearnerKcState{
		UserID:          row.UserID,
		KcID:            row.KcID,
		LhAccuracy:      row.LhAccuracy,
		LhAttempts:      row.LhAttempts,
		LhLastAccuracy:  row.LhLastAccuracy,
		RhScore:         row.RhScore,
		RhAttempts:      row.RhAttempts,
		RhLastScore:     row.RhLastScore,
		MasteryLevel:    row.MasteryLevel,
		IntegratedScore: row.IntegratedScore,
		DifficultyTier:  row.DifficultyTier,
	}
	var err error
	if out.FirstEncountered, err = parseNullable(row.FirstEncountered); err != nil {
		return out, err
	}
	if out.LastPracticed, err = parseNullable(row.LastPracticed); err != nil {
		return out, err
	}
	if out.UpdatedAt, err = parseNullable(row.UpdatedAt); err != nil {
		return out, err
	}
	return out, nil
}

func parseNullable(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s.String)
}

func (r *Repository) UpsertLearnerKcState(ctx context.Context, s store.LearnerKcState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO learner_kc_states (
			user_id, kc_id, lh_accuracy, lh_attempts, lh_last_accuracy, rh_score, rh_attempts, rh_last_score,
			mastery_level, integrated_score, difficulty_tier, first_encountered, last_practiced, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, kc_id) DO UPDATE SET
			lh_accuracy = excluded.lh_accuracy,
			lh_attempts = excluded.lh_attempts,
			lh_last_accuracy = excluded.lh_last_accuracy,
			rh_score = excluded.rh_score,
			rh_attempts = excluded.rh_attempts,
			rh_last_score = excluded.rh_last_score,
			mastery_level = excluded.mastery_level,
			integrated_score = excluded.integrated_score,
			difficulty_tier = excluded.difficulty_tier,
			last_practiced = excluded.last_practiced,
			updated_at = excluded.updated_at`,
		s.UserID, s.KcID, s.LhAccuracy, s.LhAttempts, s.LhLastAccuracy, s.RhScore, s.RhAttempts, s.RhLastScore,
		s.MasteryLevel, s.IntegratedScore, s.DifficultyTier,
		s.FirstEncountered.Format(time.RFC3339Nano), s.LastPracticed.Format(time.RFC3339Nano), s.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert learner kc state: %w", err)
	}
	return nil
}

func (r *Repository) GetLearnerKcStates(ctx context.Context, userID string, kcIDs []string) ([]store.LearnerKcState, error) {
	if len(kcIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM learner_kc_states WHERE user_id = ? AND kc_id IN (?)`, userID, kcIDs)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []learnerKcStateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get learner kc states: %w", err)
	}
	out := make([]store.LearnerKcState, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type learnerTopicProficiencyRow struct {
	UserID          string         `db:"user_id"`
	TopicID         string         `db:"topic_id"`
	Proficiency     float64        `db:"proficiency"`
	MasteredCount   int            `db:"mastered_count"`
	InProgressCount int            `db:"in_progress_count"`
	NotStartedCount int            `db:"not_started_count"`
	UpdatedAt       sql.NullString `db:"updated_at"`
}

func (r *Repository) UpsertLearnerTopicProficiency(ctx context.Context, p store.LearnerTopicProficiency) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO learner_topic_proficiency (user_id, topic_id, proficiency, mastered_count, in_progress_count, not_started_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, topic_id) DO UPDATE SET
			proficiency = excluded.proficiency,
			mastered_count = excluded.mastered_count,
			in_progress_count = excluded.in_progress_count,
			not_started_count = excluded.not_started_count,
			updated_at = excluded.updated_at`,
		p.UserID, p.TopicID, p.Proficiency, p.MasteredCount, p.InProgressCount, p.NotStartedCount, p.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert learner topic proficiency: %w", err)
	}
	return nil
}

func (r *Repository) GetLearnerTopicProficiency(ctx context.Context, userID, topicID string) (*store.LearnerTopicProficiency, error) {
	var row learnerTopicProficiencyRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM learner_topic_proficiency WHERE user_id = ? AND topic_id = ?`, userID, topicID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get learner topic proficiency: %w", err)
	}
	updatedAt, err := parseNullable(row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &store.LearnerTopicProficiency{
		UserID:          row.UserID,
		TopicID:         row.TopicID,
		Proficiency:     row.Proficiency,
		MasteredCount:   row.MasteredCount,
		InProgressCount: row.InProgressCount,
		NotStartedCount: row.NotStartedCount,
		UpdatedAt:       updatedAt,
	}, nil
}

// The remaining three profile layers (Behavioral, Cognitive, Motivational)
// are stored as a single JSON blob per user rather than one column per
// field: they carry nested maps and slices (StageTimeRatio,
// ModalityPreferences, EngagementHistory) that don't flatten cleanly into
// relational columns, and nothing queries into their internals — the
// orchestrator always reads and rewrites the whole struct, the same reason
// SessionState.adaptiveDecisions is stored as a blob.

func (r *Repository) UpsertLearnerBehavioralState(ctx context.Context, s store.LearnerBehavioralState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode behavioral state: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO learner_behavioral_states (user_id, data) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data`, s.UserID, string(data))
	if err != nil {
		return fmt.Errorf("upsert behavioral state: %w", err)
	}
	return nil
}

func (r *Repository) GetLearnerBehavioralState(ctx context.Context, userID string) (*store.LearnerBehavioralState, error) {
	var data string
	err := r.db.GetContext(ctx, &data, `SELECT data FROM learner_behavioral_states WHERE user_id = ?`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get behavioral state: %w", err)
	}
	var s store.LearnerBehavioralState
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode behavioral state: %w", err)
	}
	return &s, nil
}

func (r *Repository) UpsertLearnerCognitiveProfile(ctx context.Context, p store.LearnerCognitiveProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode cognitive profile: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO learner_cognitive_profiles (user_id, data) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data`, p.UserID, string(data))
	if err != nil {
		return fmt.Errorf("upsert cognitive profile: %w", err)
	}
	return nil
}

func (r *Repository) GetLearnerCognitiveProfile(ctx context.Context, userID string) (*store.LearnerCognitiveProfile, error) {
	var data string
	err := r.db.GetContext(ctx, &data, `SELECT data FROM learner_cognitive_profiles WHERE user_id = ?`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cognitive profile: %w", err)
	}
	var p store.LearnerCognitiveProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode cognitive profile: %w", err)
	}
	return &p, nil
}

func (r *Repository) UpsertLearnerMotivationalState(ctx context.Context, s store.LearnerMotivationalState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode motivational state: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO learner_motivational_states (user_id, data) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data`, s.UserID, string(data))
	if err != nil {
		return fmt.Errorf("upsert motivational state: %w", err)
	}
	return nil
}

func (r *Repository) GetLearnerMotivationalState(ctx context.Context, userID string) (*store.LearnerMotivationalState, error) {
	var data string
	err := r.db.GetContext(ctx, &data, `SELECT data FROM learner_motivational_states WHERE user_id = ?`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get motivational state: %w", err)
	}
	var s store.LearnerMotivationalState
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode motivational state: %w", err)
	}
	return &s, nil
}
