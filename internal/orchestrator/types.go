// Package orchestrator wires the FSRS scheduler (internal/fsrs), the
// adaptive selector (internal/selector) and the session reducer
// (internal/sessionfsm) into the four learner-facing operations: getActive,
// startSession, recordResponse, completeSession. It owns the only I/O in
// the engine — everything it calls into is pure — and is the boundary at
// which per-user operations are serialised.
package orchestrator

import (
	"time"

	"github.com/hemisphere-labs/engine/internal/selector"
	"github.com/hemisphere-labs/engine/internal/sessionfsm"
)

// ItemView is one queued item as rendered back to a caller.
type ItemView struct {
	ItemID   string `json:"itemId"`
	TopicID  string `json:"topicId"`
	Stage    string `json:"stage"`
	ItemType string `json:"itemType"`
	Body     string `json:"body"`
}

// ActiveSessionView is getActive's success payload.
type ActiveSessionView struct {
	Active           bool        `json:"active"`
	SessionID        string      `json:"sessionId,omitempty"`
	TopicID          string      `json:"topicId,omitempty"`
	SessionType      string      `json:"sessionType,omitempty"`
	Stage            string      `json:"stage,omitempty"`
	CurrentItemIndex int         `json:"currentItemIndex,omitempty"`
	StartedAt        *time.Time  `json:"startedAt,omitempty"`
	Items            []ItemView  `json:"items,omitempty"`
}

// StartSessionRequest is startSession's input.
type StartSessionRequest struct {
	UserID      string
	TopicID     string
	SessionType string // "quick", "standard", "extended"

	// RelatedTopicIDs supplies the interleave-candidate topic set the
	// selector mixes into the analysis pool ("primary plus interleave-
	// eligible siblings" needs a related-topics notion the repository
	// contract has no query for). Callers outside this engine's scope — the
	// HTTP layer — are expected to resolve and pass these explicitly; an
	// empty slice restricts planning to the primary topic alone.
	RelatedTopicIDs []string
}

// StartSessionResult is startSession's success payload.
type StartSessionResult struct {
	SessionID       string                   `json:"sessionId"`
	Stage           string                   `json:"stage"`
	SessionType     string                   `json:"sessionType"`
	StageBalance    selector.StageBalance    `json:"stageBalance"`
	Level           int                      `json:"level,omitempty"`
	NextLevel       int                      `json:"nextLevel,omitempty"`
	TargetDurationS int                      `json:"targetDurationS"`
	Items           []ItemView               `json:"items"`
}

// RecordResponseRequest is recordResponse's input.
type RecordResponseRequest struct {
	UserID          string
	SessionID       string
	ItemID          string
	ResponseType    string // "multiple_choice", "free_text", "self_rated", ...
	ResponsePayload string
	Correct         *bool
	Rating          *int
	LatencyMs       int64

	// Concept/Scenario give the scoring collaborator the context it needs
	// when ResponseType == "free_text" and Correct is nil. Both are
	// optional; the orchestrator falls back to the item's topic/body when
	// they are empty.
	Concept  string
	Scenario string
}

// RecordResponseResult is recordResponse's success payload.
type RecordResponseResult struct {
	NextItem        *ItemView        `json:"nextItem,omitempty"`
	Stage           string           `json:"stage"`
	SessionComplete bool             `json:"sessionComplete"`
	Remediation     *RemediationHint `json:"remediation,omitempty"`
}

// RemediationHint surfaces a chronically-missed item's remediation plan
// back to the caller so the client can adjust its presentation (e.g. offer
// to retire or simplify the item) without waiting for session completion.
type RemediationHint struct {
	ItemID   string `json:"itemId"`
	AtRisk   bool   `json:"atRisk"`
	Zombie   bool   `json:"zombie"`
	Strategy string `json:"strategy,omitempty"`
	RestDays int    `json:"restDays,omitempty"`
}

// CompleteSessionSummary is completeSession's success payload.
type CompleteSessionSummary struct {
	TotalItems      int      `json:"totalItems"`
	Correct         int      `json:"correct"`
	Accuracy        *float64 `json:"accuracy"`
	KcsUpdated      int      `json:"kcsUpdated"`
	FsrsRowsUpdated int      `json:"fsrsRowsUpdated"`
}

// itemViewsFrom converts the session's queued item ids into ItemViews using
// a lookup built from the content pool fetched at plan time.
func itemViewsFrom(ids []string, byID map[string]ItemView) []ItemView {
	out := make([]ItemView, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func stageString(s *sessionfsm.Stage) string {
	if s == nil {
		return ""
	}
	return string(*s)
}
