// Package analytics defines the pluggable event bus the engine's
// collaborators report into: a narrow Emitter interface plus the typed
// event shapes each operation fires. A no-op emitter is the safe default;
// internal/analytics/prometheus.go provides a concrete metrics-backed sink.
package analytics

import "time"

// Emitter is implemented by anything that wants to observe engine events.
// Emit must not block the caller on a slow sink; implementations that need
// to fan out to an external system should do so asynchronously.
type Emitter interface {
	EmitAdaptiveSessionPlanned(AdaptiveSessionPlanned)
	EmitItemSelected(ItemSelected)
	EmitDifficultyLevelChanged(DifficultyLevelChanged)
	EmitReviewOutcome(ReviewOutcome)
	EmitSessionCompleted(SessionCompleted)
	EmitHemisphereScoreUpdated(HemisphereScoreUpdated)
}

// AdaptiveSessionPlanned fires once per startSession, after C2 plans the
// queue.
type AdaptiveSessionPlanned struct {
	UserID           string
	SessionID        string
	Level            int
	NextLevel        int
	CountsByReason   map[string]int
	ReviewRatio      float64
	InterleaveRatio  float64
	StageBalanceE    float64
	StageBalanceA    float64
	StageBalanceR    float64
	Rationale        string
	At               time.Time
}

// ItemSelected fires once per item placed into a session queue.
type ItemSelected struct {
	UserID    string
	SessionID string
	ItemID    string
	TopicID   string
	Reason    string
	Score     float64
	At        time.Time
}

// DifficultyLevelChanged fires during completeSession's profile refresh
// when the level derived from the learner's topic proficiency changes.
type DifficultyLevelChanged struct {
	UserID              string
	TopicID             string
	From                int
	To                  int
	AvgRetrievability   float64
	Trigger             string // "promotion" or "demotion"
	At                  time.Time
}

// ReviewOutcome fires once per FSRS reschedule during completeSession.
type ReviewOutcome struct {
	UserID           string
	SessionID        string
	ItemID           string
	KcID             string
	Rating           int
	PreState         string
	PostState        string
	PreRetrievability  float64
	PostRetrievability float64
	ElapsedDays      float64
	ScheduledDays    int
	At               time.Time
}

// SessionCompleted fires once at the end of completeSession.
type SessionCompleted struct {
	UserID          string
	SessionID       string
	TopicID         string
	TotalItems      int
	Correct         int
	Accuracy        *float64
	KcsUpdated      int
	FsrsRowsUpdated int
	DurationS       int
	At              time.Time
}

// HemisphereScoreUpdated fires whenever a fresh HBS value is computed for a
// learner's topic at session start.
type HemisphereScoreUpdated struct {
	UserID  string
	TopicID string
	Score   float64
	At      time.Time
}
