package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/hemisphere-labs/engine/internal/sessionfsm"
	"github.com/hemisphere-labs/engine/internal/store"
)

// loadOwnedSession fetches a session row, enforcing the ownership and
// status checks every lifecycle transition shares.
func (s *Service) loadOwnedSession(ctx context.Context, userID, sessionID string, wantStatus string) (*store.SessionRow, sessionfsm.SessionState, *Error) {
	row, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, sessionfsm.SessionState{}, newInternal("load session", err)
	}
	if row == nil {
		return nil, sessionfsm.SessionState{}, newNotFound("session does not exist")
	}
	if row.UserID != userID {
		return nil, sessionfsm.SessionState{}, newForbidden("session belongs to another user")
	}
	if wantStatus != "" && row.Status != wantStatus {
		return nil, sessionfsm.SessionState{}, newConflict("session is not " + wantStatus)
	}
	state, derr := decodeState(row.AdaptiveDecisions)
	if derr != nil {
		return nil, sessionfsm.SessionState{}, newInternal("decode session state", derr)
	}
	return row, state, nil
}

func (s *Service) transition(ctx context.Context, row *store.SessionRow, state sessionfsm.SessionState, event sessionfsm.Event) *Error {
	next, rerr := sessionfsm.Reduce(state, event, nil, sessionfsm.Durations{})
	if rerr != nil {
		return newConflict(rerr.Error())
	}
	encoded, eerr := json.Marshal(next)
	if eerr != nil {
		return newInternal("encode session state", eerr)
	}
	row.AdaptiveDecisions = encoded
	row.Status = string(next.Status)
	if err := s.repo.UpdateSession(ctx, *row); err != nil {
		return newInternal("persist session", err)
	}
	return nil
}

// PauseSession implements pauseSession.
func (s *Service) PauseSession(ctx context.Context, credential, userID, sessionID string) *Error {
	if _, aerr := s.authenticate(ctx, credential, userID); aerr != nil {
		return aerr
	}
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	row, state, lerr := s.loadOwnedSession(ctx, userID, sessionID, "in_progress")
	if lerr != nil {
		return lerr
	}
	return s.transition(ctx, row, state, sessionfsm.Event{Kind: sessionfsm.EventPauseSession, Timestamp: s.now()})
}

// ResumeSession implements resumeSession: resumes a paused session, or a
// session abandoned while paused or in progress, routing to the matching
// reducer event.
func (s *Service) ResumeSession(ctx context.Context, credential, userID, sessionID string) *Error {
	if _, aerr := s.authenticate(ctx, credential, userID); aerr != nil {
		return aerr
	}
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	row, state, lerr := s.loadOwnedSession(ctx, userID, sessionID, "")
	if lerr != nil {
		return lerr
	}

	var event sessionfsm.Event
	switch row.Status {
	case "paused":
		event = sessionfsm.Event{Kind: sessionfsm.EventResumeSession, Timestamp: s.now()}
	case "abandoned":
		event = sessionfsm.Event{Kind: sessionfsm.EventResumeAbandoned, Timestamp: s.now()}
	default:
		return newConflict("session is not paused or abandoned")
	}
	return s.transition(ctx, row, state, event)
}

// AbandonSession implements abandonSession.
func (s *Service) AbandonSession(ctx context.Context, credential, userID, sessionID, reason string) *Error {
	if _, aerr := s.authenticate(ctx, credential, userID); aerr != nil {
		return aerr
	}
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	row, state, lerr := s.loadOwnedSession(ctx, userID, sessionID, "")
	if lerr != nil {
		return lerr
	}
	if row.Status != "in_progress" && row.Status != "paused" {
		return newConflict("session is not in_progress or paused")
	}
	return s.transition(ctx, row, state, sessionfsm.Event{Kind: sessionfsm.EventAbandonSession, Timestamp: s.now(), Reason: reason})
}

// SkipStage implements skipStage: the learner opts out of the remainder of
// the current stage early.
func (s *Service) SkipStage(ctx context.Context, credential, userID, sessionID string) *Error {
	if _, aerr := s.authenticate(ctx, credential, userID); aerr != nil {
		return aerr
	}
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	row, state, lerr := s.loadOwnedSession(ctx, userID, sessionID, "in_progress")
	if lerr != nil {
		return lerr
	}
	return s.transition(ctx, row, state, sessionfsm.Event{Kind: sessionfsm.EventSkipStage, Timestamp: s.now()})
}
