package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hemisphere-labs/engine/internal/scoring"
	"github.com/hemisphere-labs/engine/internal/selector"
	"github.com/hemisphere-labs/engine/internal/sessionfsm"
	"github.com/hemisphere-labs/engine/internal/store"
)

// RecordResponse implements recordResponse.
func (s *Service) RecordResponse(ctx context.Context, credential string, req RecordResponseRequest) (*RecordResponseResult, *Error) {
	if _, aerr := s.authenticate(ctx, credential, req.UserID); aerr != nil {
		return nil, aerr
	}

	unlock := s.userLocks.Lock(req.UserID)
	defer unlock()

	row, err := s.repo.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, newInternal("load session", err)
	}
	if row == nil {
		return nil, newNotFound("session does not exist")
	}
	if row.UserID != req.UserID {
		return nil, newForbidden("session belongs to another user")
	}
	if row.Status != "in_progress" {
		return nil, newConflict("session is not in_progress")
	}

	state, derr := decodeState(row.AdaptiveDecisions)
	if derr != nil {
		return nil, newInternal("decode session state", derr)
	}
	if state.CurrentItemIndex >= len(state.ItemQueue) || state.ItemQueue[state.CurrentItemIndex] != req.ItemID {
		return nil, newConflict("itemId does not match the expected next item in the queue")
	}

	now := s.now()
	score, scoringMethod := s.scoreResponse(ctx, req)

	kcID, err := s.repo.PrimaryKC(ctx, req.ItemID)
	if err != nil {
		return nil, newInternal("load primary kc", err)
	}

	ev := store.AssessmentEvent{
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		ContentItemID:   req.ItemID,
		KcID:            kcID,
		Stage:           stageString(state.CurrentStage),
		ResponseType:    req.ResponseType,
		Payload:         req.ResponsePayload,
		IsCorrect:       req.Correct,
		Score:           score,
		ScoringMethod:   scoringMethod,
		PresentedAt:     now.Add(-time.Duration(req.LatencyMs) * time.Millisecond),
		RespondedAt:     now,
		LatencyMs:       req.LatencyMs,
		SelfRating:      req.Rating,
		DifficultyLevel: 0,
	}

	contentMap, cerr := s.loadContent(ctx, state.ItemQueue)
	if cerr != nil {
		return nil, newInternal("load queue content", cerr)
	}
	stageByItem := make(map[string]string, len(contentMap))
	for _, item := range contentMap {
		stageByItem[item.ID] = item.Stage
	}

	var finalState sessionfsm.SessionState
	var txErr error
	txErr = s.repo.WithTx(ctx, func(ctx context.Context, repo store.Repository) error {
		if err := repo.InsertAssessmentEvent(ctx, ev); err != nil {
			return err
		}

		after, rerr := sessionfsm.Reduce(state, sessionfsm.Event{Kind: sessionfsm.EventCompleteActivity, Timestamp: now, ActivityID: req.ItemID}, nil, sessionfsm.Durations{})
		if rerr != nil {
			return rerr
		}

		after = maybeAdvanceStage(after, stageByItem, now)
		finalState = after

		encoded, eerr := json.Marshal(after)
		if eerr != nil {
			return eerr
		}
		row.AdaptiveDecisions = encoded
		row.Status = "in_progress" // recordResponse never terminates the row; completeSession does
		return repo.UpdateSession(ctx, *row)
	})
	if txErr != nil {
		return nil, newInternal("persist response", txErr)
	}

	result := &RecordResponseResult{
		Stage:           stageString(finalState.CurrentStage),
		SessionComplete: finalState.Status == sessionfsm.StatusCompleted,
	}
	if !result.SessionComplete && finalState.CurrentItemIndex < len(finalState.ItemQueue) {
		nextID := finalState.ItemQueue[finalState.CurrentItemIndex]
		if item, ok := contentMap2(contentMap, nextID); ok {
			v := ItemView{ItemID: item.ID, TopicID: item.TopicID, Stage: item.Stage, ItemType: item.ItemType, Body: item.Body}
			result.NextItem = &v
		}
	}

	if hint, herr := s.remediationHint(ctx, req, now); herr == nil {
		result.Remediation = hint
	}

	return result, nil
}

// remediationHint checks whether the just-recorded item has become a
// zombie or is trending toward one, using its within-session Again streak
// and current retrievability.
func (s *Service) remediationHint(ctx context.Context, req RecordResponseRequest, now time.Time) (*RemediationHint, error) {
	events, err := s.repo.ListAssessmentEventsBySession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	streak := consecutiveAgainFor(events, req.ItemID)
	if streak == 0 {
		return nil, nil
	}

	rows, err := s.repo.GetFsrsMemoryRows(ctx, req.UserID, []string{req.ItemID})
	if err != nil {
		return nil, err
	}
	var retrievability float64 = 1
	for _, row := range rows {
		retrievability = memoryStateOf(row, now, streak).Retrievability
		break
	}

	zombie := selector.IsZombie(streak, retrievability)
	atRisk := selector.IsAtRisk(streak, retrievability)
	if !zombie && !atRisk {
		return nil, nil
	}

	plan := selector.PlanRemediation(streak, retrievability)
	return &RemediationHint{
		ItemID:   req.ItemID,
		AtRisk:   atRisk,
		Zombie:   zombie,
		Strategy: string(plan.Strategy),
		RestDays: plan.RestDays,
	}, nil
}

func contentMap2(items []store.ContentItem, id string) (store.ContentItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return store.ContentItem{}, false
}

// scoreResponse derives the assessment score and scoring method for one
// response, using the scoring collaborator when a response needs grading.
func (s *Service) scoreResponse(ctx context.Context, req RecordResponseRequest) (*float64, string) {
	if req.Correct != nil {
		var v float64
		if *req.Correct {
			v = 1
		}
		return &v, "auto"
	}
	if req.ResponseType == "free_text" && s.scorer != nil {
		concept, scenario := req.Concept, req.Scenario
		if concept == "" || scenario == "" {
			if items, err := s.loadContent(ctx, []string{req.ItemID}); err == nil && len(items) > 0 {
				if scenario == "" {
					scenario = items[0].Body
				}
				if concept == "" {
					if t, terr := s.repo.GetTopic(ctx, items[0].TopicID); terr == nil && t != nil {
						concept = t.Name
					}
				}
			}
		}
		result := s.scorer.Score(ctx, scoring.Request{
			Concept:      concept,
			Scenario:     scenario,
			UserResponse: req.ResponsePayload,
		})
		v := result.Score
		return &v, "external"
	}
	return nil, "pending"
}

// maybeAdvanceStage checks whether the next queued item belongs to a later
// stage, or the queue is exhausted; if so it marks the finished stage
// complete and attempts the matching transition. A guard rejection leaves
// the stage-complete flag set but the stage unchanged, so the next call
// retries the boundary.
func maybeAdvanceStage(state sessionfsm.SessionState, stageByItem map[string]string, now time.Time) sessionfsm.SessionState {
	if state.CurrentStage == nil {
		return state
	}
	boundary := state.CurrentItemIndex >= len(state.ItemQueue)
	if !boundary {
		nextStage := stageByItem[state.ItemQueue[state.CurrentItemIndex]]
		boundary = nextStage != "" && nextStage != string(*state.CurrentStage)
	}
	if !boundary {
		return state
	}

	switch *state.CurrentStage {
	case sessionfsm.StageEncounter:
		state.EncounterComplete = true
	case sessionfsm.StageAnalysis:
		state.AnalysisComplete = true
	case sessionfsm.StageReturn:
		state.ReturnComplete = true
	}

	var event sessionfsm.Event
	if *state.CurrentStage == sessionfsm.StageReturn {
		event = sessionfsm.Event{Kind: sessionfsm.EventCompleteSession, Timestamp: now}
	} else {
		event = sessionfsm.Event{Kind: sessionfsm.EventAdvanceStage, Timestamp: now}
	}

	advanced, rerr := sessionfsm.Reduce(state, event, nil, sessionfsm.Durations{})
	if rerr != nil {
		// Guard failed: keep state (with the completed-stage flag set) and
		// let the next response retry the boundary.
		return state
	}
	return advanced
}
