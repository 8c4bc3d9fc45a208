package sessionfsm

import "time"

// StageProgress returns min(1, currentStageDuration/target) for the
// session's active stage at now. Returns 0 if there is no active stage.
func StageProgress(s SessionState, d Durations, now time.Time) float64 {
	if s.CurrentStage == nil {
		return 0
	}
	var startedAt *time.Time
	var target int64
	switch *s.CurrentStage {
	case StageEncounter:
		startedAt, target = s.EncounterStartedAt, d.TargetEncounterMs
	case StageAnalysis:
		startedAt, target = s.AnalysisStartedAt, d.TargetAnalysisMs
	case StageReturn:
		startedAt, target = s.ReturnStartedAt, d.TargetReturnMs
	}
	if startedAt == nil || target <= 0 {
		return 0
	}
	elapsed := stageElapsedMs(s, *startedAt, now)
	p := float64(elapsed) / float64(target)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// SessionProgress returns min(1, Σstage/Σtarget) across all three stages.
func SessionProgress(s SessionState, d Durations, now time.Time) float64 {
	total := d.TargetEncounterMs + d.TargetAnalysisMs + d.TargetReturnMs
	if total <= 0 {
		return 0
	}

	sum := finalizedOrLive(s, StageEncounter, s.EncounterDurationMs, s.EncounterStartedAt, d, now) +
		finalizedOrLive(s, StageAnalysis, s.AnalysisDurationMs, s.AnalysisStartedAt, d, now) +
		finalizedOrLive(s, StageReturn, s.ReturnDurationMs, s.ReturnStartedAt, d, now)

	p := float64(sum) / float64(total)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

func finalizedOrLive(s SessionState, stage Stage, finalized int64, startedAt *time.Time, d Durations, now time.Time) int64 {
	if finalized > 0 {
		return finalized
	}
	if s.CurrentStage != nil && *s.CurrentStage == stage && startedAt != nil {
		return stageElapsedMs(s, *startedAt, now)
	}
	return 0
}
