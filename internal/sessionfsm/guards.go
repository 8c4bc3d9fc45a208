package sessionfsm

// Durations configures the minimum and target (for progress UI) stage
// lengths that the reducer's guards enforce.
type Durations struct {
	MinEncounterMs int64
	MinAnalysisMs  int64
	MinReturnMs    int64

	TargetEncounterMs int64
	TargetAnalysisMs  int64
	TargetReturnMs    int64
}

// DefaultDurations holds the minimum and target stage lengths in milliseconds.
var DefaultDurations = Durations{
	MinEncounterMs: 180_000,
	MinAnalysisMs:  360_000,
	MinReturnMs:    180_000,

	TargetEncounterMs: 240_000,
	TargetAnalysisMs:  600_000,
	TargetReturnMs:    240_000,
}

// Guards lets callers substitute custom guard implementations (e.g. for
// tests that need to force a transition). Reduce recovers any panic raised
// from these and reports it as REDUCER_ERROR.
type Guards struct {
	CanStart            func(s SessionState) bool
	CanPause            func(s SessionState) bool
	CanResume           func(s SessionState) bool
	CanResumeAbandoned  func(s SessionState) bool
	CanAdvanceToAnalysis func(s SessionState, d Durations, elapsedMs int64) bool
	CanAdvanceToReturn  func(s SessionState, d Durations, elapsedMs int64) bool
	CanComplete         func(s SessionState, d Durations, elapsedMs int64) bool
}

// DefaultGuards is the production guard set.
var DefaultGuards = Guards{
	CanStart: func(s SessionState) bool {
		return s.Status == StatusReady && len(s.ItemQueue) > 0
	},
	CanPause: func(s SessionState) bool {
		return s.Status == StatusInProgress && s.PausedAt == nil
	},
	CanResume: func(s SessionState) bool {
		return s.Status == StatusPaused
	},
	// Only an abandoned session may resume through this path; a paused
	// session resumes through CanResume instead.
	CanResumeAbandoned: func(s SessionState) bool {
		return s.Status == StatusAbandoned
	},
	CanAdvanceToAnalysis: func(s SessionState, d Durations, elapsedMs int64) bool {
		return s.CurrentStage != nil && *s.CurrentStage == StageEncounter &&
			s.EncounterComplete && s.EncounterStartedAt != nil &&
			elapsedMs >= d.MinEncounterMs
	},
	CanAdvanceToReturn: func(s SessionState, d Durations, elapsedMs int64) bool {
		return s.CurrentStage != nil && *s.CurrentStage == StageAnalysis &&
			s.AnalysisComplete && s.AnalysisStartedAt != nil &&
			s.CurrentItemIndex > 0 && elapsedMs >= d.MinAnalysisMs
	},
	CanComplete: func(s SessionState, d Durations, elapsedMs int64) bool {
		return s.CurrentStage != nil && *s.CurrentStage == StageReturn &&
			s.ReturnComplete && s.ReturnStartedAt != nil &&
			elapsedMs >= d.MinReturnMs
	},
}
