package sessionfsm

import (
	"testing"
	"time"
)

func readyState(queue []string) SessionState {
	return SessionState{
		SessionID: "sess-1",
		UserID:    "user-1",
		TopicID:   "topic-1",
		Status:    StatusReady,
		ItemQueue: queue,
	}
}

func at(seconds int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)
}

func mustOK(t *testing.T) func(SessionState, *ReducerError) SessionState {
	t.Helper()
	return func(s SessionState, err *ReducerError) SessionState {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected reducer error: %v", err)
		}
		return s
	}
}

func TestReduce_HappyPathSession(t *testing.T) {
	// S3: queue [e1, a1, a2, r1] of stages E, A, A, R.
	state := readyState([]string{"e1", "a1", "a2", "r1"})

	state = mustOK(t)(Reduce(state, Event{Kind: EventStartSession, Timestamp: at(0)}, nil, Durations{}))
	if state.Status != StatusInProgress || *state.CurrentStage != StageEncounter {
		t.Fatalf("unexpected state after start: %+v", state)
	}

	// Respond to e1 at t=181s, crossing into analysis.
	state = mustOK(t)(Reduce(state, Event{Kind: EventCompleteActivity, Timestamp: at(181), ActivityID: "e1"}, nil, Durations{}))
	state.EncounterComplete = true
	state = mustOK(t)(Reduce(state, Event{Kind: EventAdvanceStage, Timestamp: at(181)}, nil, Durations{}))
	if *state.CurrentStage != StageAnalysis {
		t.Fatalf("expected analysis stage, got %v", *state.CurrentStage)
	}

	// Respond to a1, a2.
	state = mustOK(t)(Reduce(state, Event{Kind: EventCompleteActivity, Timestamp: at(541), ActivityID: "a1"}, nil, Durations{}))
	state = mustOK(t)(Reduce(state, Event{Kind: EventCompleteActivity, Timestamp: at(902), ActivityID: "a2"}, nil, Durations{}))

	// Advance to return at t=902s, 721s into analysis (minimum 360s).
	state.AnalysisComplete = true
	state, err := Reduce(state, Event{Kind: EventAdvanceStage, Timestamp: at(902)}, nil, Durations{})
	if err != nil {
		t.Fatalf("advance to return failed: %v", err)
	}
	if *state.CurrentStage != StageReturn {
		t.Fatalf("expected return stage, got %v", *state.CurrentStage)
	}

	state = mustOK(t)(Reduce(state, Event{Kind: EventCompleteActivity, Timestamp: at(1082), ActivityID: "r1"}, nil, Durations{}))
	state.ReturnComplete = true
	state = mustOK(t)(Reduce(state, Event{Kind: EventCompleteSession, Timestamp: at(1082)}, nil, Durations{}))

	if state.Status != StatusCompleted {
		t.Fatalf("status = %v, want completed", state.Status)
	}
	if !state.ReturnComplete {
		t.Fatal("returnComplete should be true")
	}
	if state.CompletedAt == nil || !state.CompletedAt.Equal(at(1082)) {
		t.Fatalf("completedAt = %v, want %v", state.CompletedAt, at(1082))
	}
}

func TestReduce_GuardFailedPreservesState(t *testing.T) {
	state := readyState([]string{"e1"})
	state = mustOK(t)(Reduce(state, Event{Kind: EventStartSession, Timestamp: at(0)}, nil, Durations{}))
	state.EncounterComplete = true

	// Too early: elapsed 10s < 180_000ms minimum.
	before := state
	_, err := Reduce(state, Event{Kind: EventAdvanceStage, Timestamp: at(10)}, nil, Durations{})
	if err == nil || err.Kind != ErrGuardFailed {
		t.Fatalf("expected GuardFailed, got %v", err)
	}
	if before.Status != StatusInProgress || *before.CurrentStage != StageEncounter {
		t.Fatal("input state must be unaffected by a failed guard")
	}
}

func TestReduce_SkipStageFromReturnIsInvalidTransition(t *testing.T) {
	state := readyState([]string{"e1", "r1"})
	state = mustOK(t)(Reduce(state, Event{Kind: EventStartSession, Timestamp: at(0)}, nil, Durations{}))
	state = mustOK(t)(Reduce(state, Event{Kind: EventSkipStage, Timestamp: at(1)}, nil, Durations{}))
	state = mustOK(t)(Reduce(state, Event{Kind: EventSkipStage, Timestamp: at(2)}, nil, Durations{}))
	if *state.CurrentStage != StageReturn {
		t.Fatalf("expected return stage after two skips, got %v", *state.CurrentStage)
	}

	_, err := Reduce(state, Event{Kind: EventSkipStage, Timestamp: at(3)}, nil, Durations{})
	if err == nil || err.Kind != ErrInvalidTransition {
		t.Fatalf("expected InvalidTransition skipping from return, got %v", err)
	}
}

func TestReduce_ResumeAbandonedRejectsPaused(t *testing.T) {
	state := readyState([]string{"e1"})
	state = mustOK(t)(Reduce(state, Event{Kind: EventStartSession, Timestamp: at(0)}, nil, Durations{}))
	state = mustOK(t)(Reduce(state, Event{Kind: EventPauseSession, Timestamp: at(5)}, nil, Durations{}))

	_, err := Reduce(state, Event{Kind: EventResumeAbandoned, Timestamp: at(6)}, nil, Durations{})
	if err == nil || err.Kind != ErrGuardFailed {
		t.Fatalf("RESUME_ABANDONED must reject a merely-paused session, got %v", err)
	}
}

func TestReduce_UnknownEvent(t *testing.T) {
	state := readyState([]string{"e1"})
	_, err := Reduce(state, Event{Kind: "NOT_A_REAL_EVENT", Timestamp: at(0)}, nil, Durations{})
	if err == nil || err.Kind != ErrUnknownEvent {
		t.Fatalf("expected UnknownEvent, got %v", err)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	state := readyState([]string{"e1", "a1"})
	before := state.clone()

	_, err := Reduce(state, Event{Kind: EventStartSession, Timestamp: at(0)}, nil, Durations{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Status != before.Status || state.CurrentStage != before.CurrentStage {
		t.Fatal("Reduce must not mutate its input state")
	}
}

func TestReduce_DurationAccounting(t *testing.T) {
	state := readyState([]string{"e1", "a1"})
	state = mustOK(t)(Reduce(state, Event{Kind: EventStartSession, Timestamp: at(0)}, nil, Durations{}))

	state = mustOK(t)(Reduce(state, Event{Kind: EventPauseSession, Timestamp: at(10)}, nil, Durations{}))
	state = mustOK(t)(Reduce(state, Event{Kind: EventResumeSession, Timestamp: at(40)}, nil, Durations{}))

	now := at(100)
	current := stageElapsedMs(state, *state.EncounterStartedAt, now)
	wallClock := now.Sub(*state.EncounterStartedAt).Milliseconds()
	pausedThisStage := state.PausedDurationMs - state.stagePauseBaselineMs
	if current+pausedThisStage != wallClock {
		t.Fatalf("current(%d) + paused(%d) != wallClock(%d)", current, pausedThisStage, wallClock)
	}
}
