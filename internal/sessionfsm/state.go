// Package sessionfsm implements the pure session-lifecycle reducer: a
// SessionState advanced by named events, gated by guards on minimum stage
// durations, pause/resume bookkeeping, abandonment and recovery. The
// reducer never performs I/O and never mutates the state passed to it —
// callers own persistence.
package sessionfsm

import "time"

// Status is the lifecycle status of a session.
type Status string

const (
	StatusPlanning   Status = "planning"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleting Status = "completing"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Stage is one of the three cognitive-loop stages a session walks through.
type Stage string

const (
	StageEncounter Stage = "encounter"
	StageAnalysis  Stage = "analysis"
	StageReturn    Stage = "return"
)

// StageBalance records the planned item-count split across stages.
type StageBalance struct {
	New         int `json:"new"`
	Review      int `json:"review"`
	Interleaved int `json:"interleaved"`
}

// SessionState is the single source of truth for one in-flight session.
type SessionState struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	TopicID   string `json:"topicId"`

	Status       Status `json:"status"`
	CurrentStage *Stage `json:"currentStage"`

	StartedAt          *time.Time `json:"startedAt"`
	PausedAt           *time.Time `json:"pausedAt"`
	CompletedAt        *time.Time `json:"completedAt"`
	EncounterStartedAt *time.Time `json:"encounterStartedAt"`
	AnalysisStartedAt  *time.Time `json:"analysisStartedAt"`
	ReturnStartedAt    *time.Time `json:"returnStartedAt"`

	TotalDurationMs     int64 `json:"totalDurationMs"`
	EncounterDurationMs int64 `json:"encounterDurationMs"`
	AnalysisDurationMs  int64 `json:"analysisDurationMs"`
	ReturnDurationMs    int64 `json:"returnDurationMs"`
	PausedDurationMs    int64 `json:"pausedDurationMs"`

	ItemQueue        []string `json:"itemQueue"`
	CurrentItemIndex int      `json:"currentItemIndex"`

	EncounterComplete    bool     `json:"encounterComplete"`
	AnalysisComplete     bool     `json:"analysisComplete"`
	ReturnComplete       bool     `json:"returnComplete"`
	CompletedActivityIDs []string `json:"completedActivityIds"`

	AbandonedAtStage  *Stage `json:"abandonedAtStage"`
	AbandonmentReason string `json:"abandonmentReason,omitempty"`

	SessionType    string       `json:"sessionType"`
	PlannedBalance StageBalance `json:"plannedBalance"`

	// stagePauseBaselineMs is the value of PausedDurationMs at the moment
	// the current stage began; it lets the reducer derive how much of the
	// cumulative pause time belongs to the active stage without a second
	// per-stage counter. Not part of the persisted state shape, so it is
	// never serialized.
	stagePauseBaselineMs int64 `json:"-"`
}

// clone returns a deep-enough copy of state so Reduce can freely mutate the
// copy without affecting the caller's value. Slices are copied; pointer
// fields are shared with the caller, which is safe because the reducer only
// replaces them with new pointers and Stage/time.Time values are immutable.
func (s SessionState) clone() SessionState {
	cp := s
	if s.ItemQueue != nil {
		cp.ItemQueue = append([]string(nil), s.ItemQueue...)
	}
	if s.CompletedActivityIDs != nil {
		cp.CompletedActivityIDs = append([]string(nil), s.CompletedActivityIDs...)
	}
	return cp
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
