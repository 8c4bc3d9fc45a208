package sessionfsm

import "time"

// Reduce applies event to state and returns the resulting state, or an
// error describing why the event was rejected. state is never mutated.
// Pass guards=nil and durations a zero value to use the package defaults.
func Reduce(state SessionState, event Event, guards *Guards, durations Durations) (result SessionState, rerr *ReducerError) {
	g := DefaultGuards
	if guards != nil {
		g = *guards
	}
	if durations == (Durations{}) {
		durations = DefaultDurations
	}

	defer func() {
		if r := recover(); r != nil {
			result = SessionState{}
			rerr = &ReducerError{Kind: ErrReducerError, Reason: panicReason(r)}
		}
	}()

	s := state.clone()

	switch event.Kind {
	case EventStartSession:
		return reduceStart(s, event, g)
	case EventPauseSession:
		return reducePause(s, event, g)
	case EventResumeSession:
		return reduceResume(s, event, g)
	case EventResumeAbandoned:
		return reduceResumeAbandoned(s, event, g)
	case EventCompleteActivity:
		return reduceCompleteActivity(s, event)
	case EventAdvanceStage:
		return reduceAdvanceStage(s, event, g, durations)
	case EventSkipStage:
		return reduceSkipStage(s, event)
	case EventCompleteSession:
		return reduceCompleteSession(s, event, g, durations)
	case EventAbandonSession:
		return reduceAbandon(s, event)
	default:
		return failWith(ErrUnknownEvent, "unrecognized event kind: "+string(event.Kind))
	}
}

func panicReason(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "panic in reducer guard"
}

func reduceStart(s SessionState, ev Event, g Guards) (SessionState, *ReducerError) {
	if !g.CanStart(s) {
		return failWith(ErrGuardFailed, "canStart: status must be ready with a non-empty queue")
	}
	stage := StageEncounter
	s.Status = StatusInProgress
	s.CurrentStage = &stage
	ts := ev.Timestamp
	s.StartedAt = &ts
	s.EncounterStartedAt = &ts
	s.stagePauseBaselineMs = s.PausedDurationMs
	return s, nil
}

func reducePause(s SessionState, ev Event, g Guards) (SessionState, *ReducerError) {
	if !g.CanPause(s) {
		return failWith(ErrGuardFailed, "canPause: status must be in_progress with no pause already active")
	}
	ts := ev.Timestamp
	s.Status = StatusPaused
	s.PausedAt = &ts
	return s, nil
}

func reduceResume(s SessionState, ev Event, g Guards) (SessionState, *ReducerError) {
	if !g.CanResume(s) {
		return failWith(ErrGuardFailed, "canResume: status must be paused")
	}
	if s.PausedAt != nil {
		s.PausedDurationMs += ev.Timestamp.Sub(*s.PausedAt).Milliseconds()
	}
	s.PausedAt = nil
	s.Status = StatusInProgress
	return s, nil
}

func reduceResumeAbandoned(s SessionState, ev Event, g Guards) (SessionState, *ReducerError) {
	if !g.CanResumeAbandoned(s) {
		return failWith(ErrGuardFailed, "canResumeAbandoned: status must be abandoned")
	}
	s.Status = StatusInProgress
	s.AbandonedAtStage = nil
	s.AbandonmentReason = ""
	return s, nil
}

func reduceCompleteActivity(s SessionState, ev Event) (SessionState, *ReducerError) {
	if s.Status != StatusInProgress {
		return failWith(ErrInvalidState, "completeActivity requires status=in_progress")
	}
	if s.CurrentItemIndex >= len(s.ItemQueue) {
		return failWith(ErrInvalidTransition, "item queue already exhausted")
	}
	if !containsString(s.CompletedActivityIDs, ev.ActivityID) {
		s.CompletedActivityIDs = append(s.CompletedActivityIDs, ev.ActivityID)
	}
	s.CurrentItemIndex++
	return s, nil
}

func reduceAdvanceStage(s SessionState, ev Event, g Guards, d Durations) (SessionState, *ReducerError) {
	if s.Status != StatusInProgress || s.CurrentStage == nil {
		return failWith(ErrInvalidState, "advanceStage requires status=in_progress with an active stage")
	}
	switch *s.CurrentStage {
	case StageEncounter:
		elapsed := stageElapsedMs(s, *s.EncounterStartedAt, ev.Timestamp)
		if !g.CanAdvanceToAnalysis(s, d, elapsed) {
			return failWith(ErrGuardFailed, "canAdvanceToAnalysis denied")
		}
		s.EncounterDurationMs = elapsed
		stage := StageAnalysis
		s.CurrentStage = &stage
		ts := ev.Timestamp
		s.AnalysisStartedAt = &ts
		s.stagePauseBaselineMs = s.PausedDurationMs
		return s, nil
	case StageAnalysis:
		elapsed := stageElapsedMs(s, *s.AnalysisStartedAt, ev.Timestamp)
		if !g.CanAdvanceToReturn(s, d, elapsed) {
			return failWith(ErrGuardFailed, "canAdvanceToReturn denied")
		}
		s.AnalysisDurationMs = elapsed
		stage := StageReturn
		s.CurrentStage = &stage
		ts := ev.Timestamp
		s.ReturnStartedAt = &ts
		s.stagePauseBaselineMs = s.PausedDurationMs
		return s, nil
	default: // StageReturn
		return failWith(ErrInvalidTransition, "return has no next stage; use COMPLETE_SESSION")
	}
}

func reduceSkipStage(s SessionState, ev Event) (SessionState, *ReducerError) {
	if s.Status != StatusInProgress || s.CurrentStage == nil {
		return failWith(ErrInvalidState, "skipStage requires status=in_progress with an active stage")
	}
	switch *s.CurrentStage {
	case StageEncounter:
		s.EncounterComplete = true
		s.EncounterDurationMs = stageElapsedMs(s, *s.EncounterStartedAt, ev.Timestamp)
		stage := StageAnalysis
		s.CurrentStage = &stage
		ts := ev.Timestamp
		s.AnalysisStartedAt = &ts
		s.stagePauseBaselineMs = s.PausedDurationMs
		return s, nil
	case StageAnalysis:
		s.AnalysisComplete = true
		s.AnalysisDurationMs = stageElapsedMs(s, *s.AnalysisStartedAt, ev.Timestamp)
		stage := StageReturn
		s.CurrentStage = &stage
		ts := ev.Timestamp
		s.ReturnStartedAt = &ts
		s.stagePauseBaselineMs = s.PausedDurationMs
		return s, nil
	default: // StageReturn
		return failWith(ErrInvalidTransition, "return is the final stage; cannot skip")
	}
}

func reduceCompleteSession(s SessionState, ev Event, g Guards, d Durations) (SessionState, *ReducerError) {
	if s.Status != StatusInProgress {
		return failWith(ErrInvalidState, "completeSession requires status=in_progress")
	}
	if s.CurrentStage == nil || *s.CurrentStage != StageReturn {
		return failWith(ErrInvalidTransition, "completeSession requires the session to be in its return stage")
	}
	elapsed := stageElapsedMs(s, *s.ReturnStartedAt, ev.Timestamp)
	if !g.CanComplete(s, d, elapsed) {
		return failWith(ErrGuardFailed, "canComplete denied")
	}
	s.ReturnDurationMs = elapsed
	s.Status = StatusCompleted
	ts := ev.Timestamp
	s.CompletedAt = &ts
	s.TotalDurationMs = s.EncounterDurationMs + s.AnalysisDurationMs + s.ReturnDurationMs
	return s, nil
}

func reduceAbandon(s SessionState, ev Event) (SessionState, *ReducerError) {
	if s.Status != StatusInProgress && s.Status != StatusPaused {
		return failWith(ErrInvalidState, "abandonSession requires status in {in_progress, paused}")
	}
	s.Status = StatusAbandoned
	s.AbandonedAtStage = s.CurrentStage
	s.AbandonmentReason = ev.Reason
	return s, nil
}

// stageElapsedMs derives the active, non-paused duration of the current
// stage at ts: wall time since the stage started, minus whatever portion of
// the cumulative pause counter accrued since this stage began.
func stageElapsedMs(s SessionState, stageStartedAt time.Time, ts time.Time) int64 {
	elapsed := ts.Sub(stageStartedAt).Milliseconds()
	pausedThisStage := s.PausedDurationMs - s.stagePauseBaselineMs
	elapsed -= pausedThisStage
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}
