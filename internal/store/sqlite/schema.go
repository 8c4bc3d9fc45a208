package sqlite

import "context"

// schema is the full set of tables the engine's reference repository
// implementation needs. It is intentionally denormalized where a concern
// is treated as an opaque blob (adaptive_decisions, profile JSON columns):
// the Repository contract is the logical shape, not a particular column
// layout.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS topics (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS content_items (
	id TEXT PRIMARY KEY,
	topic_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	item_type TEXT NOT NULL,
	difficulty_level INTEGER NOT NULL,
	hemisphere_mode TEXT NOT NULL DEFAULT '',
	estimated_duration_s INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	is_reviewable INTEGER NOT NULL DEFAULT 1,
	interleave_eligible INTEGER NOT NULL DEFAULT 0,
	similarity_tags TEXT NOT NULL DEFAULT '[]',
	body TEXT NOT NULL DEFAULT '',
	primary_kc_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_content_items_topic ON content_items(topic_id);

CREATE TABLE IF NOT EXISTS content_item_kcs (
	content_item_id TEXT NOT NULL,
	kc_id TEXT NOT NULL,
	topic_id TEXT NOT NULL,
	is_primary INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (content_item_id, kc_id)
);
CREATE INDEX IF NOT EXISTS idx_content_item_kcs_topic ON content_item_kcs(topic_id);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	topic_id TEXT NOT NULL,
	status TEXT NOT NULL,
	session_type TEXT NOT NULL,
	created_at TEXT NOT NULL,
	completed_at TEXT,
	duration_s INTEGER NOT NULL DEFAULT 0,
	accuracy REAL,
	adaptive_decisions BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_topic_status ON sessions(user_id, topic_id, status);

CREATE TABLE IF NOT EXISTS assessment_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence INTEGER NOT NULL,
	user_id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	content_item_id TEXT NOT NULL,
	kc_id TEXT NOT NULL DEFAULT '',
	stage TEXT NOT NULL,
	response_type TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '',
	is_correct INTEGER,
	score REAL,
	scoring_method TEXT NOT NULL,
	presented_at TEXT NOT NULL,
	responded_at TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	confidence_rating INTEGER,
	self_rating INTEGER,
	help_requested INTEGER NOT NULL DEFAULT 0,
	difficulty_level INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_assessment_events_session ON assessment_events(session_id);

CREATE TABLE IF NOT EXISTS fsrs_memory_rows (
	user_id TEXT NOT NULL,
	memory_item_id TEXT NOT NULL,
	kc_id TEXT NOT NULL DEFAULT '',
	stage_type TEXT NOT NULL,
	stability REAL NOT NULL,
	difficulty REAL NOT NULL,
	retrievability REAL NOT NULL,
	state TEXT NOT NULL,
	last_review TEXT,
	next_review TEXT NOT NULL,
	review_count INTEGER NOT NULL DEFAULT 0,
	lapse_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, memory_item_id)
);

CREATE TABLE IF NOT EXISTS fsrs_parameters (
	user_id TEXT PRIMARY KEY,
	weights TEXT NOT NULL,
	target_retention REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS learner_kc_states (
	user_id TEXT NOT NULL,
	kc_id TEXT NOT NULL,
	lh_accuracy REAL NOT NULL DEFAULT 0,
	lh_attempts INTEGER NOT NULL DEFAULT 0,
	lh_last_accuracy REAL NOT NULL DEFAULT 0,
	rh_score REAL NOT NULL DEFAULT 0,
	rh_attempts INTEGER NOT NULL DEFAULT 0,
	rh_last_score REAL NOT NULL DEFAULT 0,
	mastery_level REAL NOT NULL DEFAULT 0,
	integrated_score REAL NOT NULL DEFAULT 0,
	difficulty_tier INTEGER NOT NULL DEFAULT 1,
	first_encountered TEXT,
	last_practiced TEXT,
	updated_at TEXT,
	PRIMARY KEY (user_id, kc_id)
);

CREATE TABLE IF NOT EXISTS learner_topic_proficiency (
	user_id TEXT NOT NULL,
	topic_id TEXT NOT NULL,
	proficiency REAL NOT NULL DEFAULT 0,
	mastered_count INTEGER NOT NULL DEFAULT 0,
	in_progress_count INTEGER NOT NULL DEFAULT 0,
	not_started_count INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT,
	PRIMARY KEY (user_id, topic_id)
);

CREATE TABLE IF NOT EXISTS learner_behavioral_states (
	user_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS learner_cognitive_profiles (
	user_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS learner_motivational_states (
	user_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS llm_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	purpose TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	success INTEGER NOT NULL,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	request_body TEXT NOT NULL DEFAULT '',
	response_body TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_llm_events_purpose ON llm_events(purpose);
`

// Migrate creates the schema if it does not already exist.
func (r *Repository) Migrate() error {
	_, err := r.db.ExecContext(context.Background(), schema)
	return err
}
