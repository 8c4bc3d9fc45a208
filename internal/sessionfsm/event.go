package sessionfsm

import "time"

// EventKind names one of the nine events the reducer accepts.
type EventKind string

const (
	EventStartSession      EventKind = "START_SESSION"
	EventPauseSession      EventKind = "PAUSE_SESSION"
	EventResumeSession     EventKind = "RESUME_SESSION"
	EventCompleteActivity  EventKind = "COMPLETE_ACTIVITY"
	EventAdvanceStage      EventKind = "ADVANCE_STAGE"
	EventSkipStage         EventKind = "SKIP_STAGE"
	EventCompleteSession   EventKind = "COMPLETE_SESSION"
	EventAbandonSession    EventKind = "ABANDON_SESSION"
	EventResumeAbandoned   EventKind = "RESUME_ABANDONED"
)

// Event is one reducer input. ActivityID is only meaningful for
// COMPLETE_ACTIVITY; Reason is only meaningful for SKIP_STAGE and
// ABANDON_SESSION.
type Event struct {
	Kind       EventKind
	Timestamp  time.Time
	ActivityID string
	Reason     string
}

// ErrorKind classifies why a reducer call was rejected.
type ErrorKind string

const (
	ErrInvalidTransition ErrorKind = "INVALID_TRANSITION"
	ErrInvalidState      ErrorKind = "INVALID_STATE"
	ErrGuardFailed       ErrorKind = "GUARD_FAILED"
	ErrUnknownEvent      ErrorKind = "UNKNOWN_EVENT"
	ErrReducerError      ErrorKind = "REDUCER_ERROR"
)

// ReducerError is returned instead of a new state when an event is rejected.
type ReducerError struct {
	Kind   ErrorKind
	Reason string
}

func (e *ReducerError) Error() string {
	return string(e.Kind) + ": " + e.Reason
}

func failWith(kind ErrorKind, reason string) (SessionState, *ReducerError) {
	return SessionState{}, &ReducerError{Kind: kind, Reason: reason}
}
