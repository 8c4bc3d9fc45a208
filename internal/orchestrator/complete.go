package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/hemisphere-labs/engine/internal/analytics"
	"github.com/hemisphere-labs/engine/internal/fsrs"
	"github.com/hemisphere-labs/engine/internal/sessionfsm"
	"github.com/hemisphere-labs/engine/internal/store"
)

type kcAggregate struct {
	attempts    int
	correct     int
	scoreSum    float64
	scoredCount int
}

// CompleteSession implements completeSession. It is idempotent: once the
// session row's own status is "completed" it returns Conflict on re-entry.
func (s *Service) CompleteSession(ctx context.Context, credential, userID, sessionID string) (*CompleteSessionSummary, *Error) {
	if _, aerr := s.authenticate(ctx, credential, userID); aerr != nil {
		return nil, aerr
	}

	unlock := s.userLocks.Lock(userID)
	defer unlock()

	row, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, newInternal("load session", err)
	}
	if row == nil {
		return nil, newNotFound("session does not exist")
	}
	if row.UserID != userID {
		return nil, newForbidden("session belongs to another user")
	}
	if row.Status != "in_progress" {
		return nil, newConflict("session is not in_progress")
	}

	state, derr := decodeState(row.AdaptiveDecisions)
	if derr != nil {
		return nil, newInternal("decode session state", derr)
	}

	events, err := s.repo.ListAssessmentEventsBySession(ctx, sessionID)
	if err != nil {
		return nil, newInternal("load assessment events", err)
	}

	totalItems := len(events)
	var correct int
	for _, ev := range events {
		if ev.IsCorrect != nil && *ev.IsCorrect {
			correct++
		}
	}
	var accuracy *float64
	if totalItems > 0 {
		a := float64(correct) / float64(totalItems)
		accuracy = &a
	}

	aggregates := aggregateByKc(events)
	kcIDs := make([]string, 0, len(aggregates))
	for kc := range aggregates {
		kcIDs = append(kcIDs, kc)
	}

	existingStates, err := s.repo.GetLearnerKcStates(ctx, userID, kcIDs)
	if err != nil {
		return nil, newInternal("load learner kc states", err)
	}
	existingByKc := make(map[string]store.LearnerKcState, len(existingStates))
	for _, st := range existingStates {
		existingByKc[st.KcID] = st
	}

	now := s.now()
	updatedStates := make([]store.LearnerKcState, 0, len(aggregates))
	for kc, agg := range aggregates {
		updatedStates = append(updatedStates, updateKcState(existingByKc[kc], kc, userID, agg, now))
	}
	for _, st := range updatedStates {
		if err := s.repo.UpsertLearnerKcState(ctx, st); err != nil {
			return nil, newInternal("persist learner kc state", err)
		}
	}

	params, err := s.repo.GetFsrsParameters(ctx, userID)
	if err != nil {
		return nil, newInternal("load fsrs parameters", err)
	}
	var weights *[19]float64
	var targetRetention float64
	if params != nil {
		weights = &params.Weights
		targetRetention = params.TargetRetention
	}

	fsrsRowsUpdated, err := s.rescheduleFsrs(ctx, userID, sessionID, events, weights, targetRetention)
	if err != nil {
		return nil, newInternal("reschedule fsrs", err)
	}

	durationS := 0
	if state.StartedAt != nil {
		durationS = int(math.Round(now.Sub(*state.StartedAt).Seconds()))
	}

	row.Status = "completed"
	row.CompletedAt = &now
	row.DurationS = durationS
	row.Accuracy = accuracy

	completedState, rerr := sessionfsm.Reduce(state, sessionfsm.Event{Kind: sessionfsm.EventCompleteSession, Timestamp: now}, nil, sessionfsm.Durations{})
	if rerr == nil {
		if encoded, eerr := json.Marshal(completedState); eerr == nil {
			row.AdaptiveDecisions = encoded
		}
	}

	if err := s.repo.UpdateSession(ctx, *row); err != nil {
		return nil, newInternal("persist completed session", err)
	}

	if err := s.refreshProfile(ctx, userID, row.TopicID, updatedStates, events, accuracy, durationS, now); err != nil {
		return nil, newInternal("refresh learner profile", err)
	}

	s.emit.EmitSessionCompleted(analytics.SessionCompleted{
		UserID:          userID,
		SessionID:       sessionID,
		TopicID:         row.TopicID,
		TotalItems:      totalItems,
		Correct:         correct,
		Accuracy:        accuracy,
		KcsUpdated:      len(updatedStates),
		FsrsRowsUpdated: fsrsRowsUpdated,
		DurationS:       durationS,
		At:              now,
	})

	return &CompleteSessionSummary{
		TotalItems:      totalItems,
		Correct:         correct,
		Accuracy:        accuracy,
		KcsUpdated:      len(updatedStates),
		FsrsRowsUpdated: fsrsRowsUpdated,
	}, nil
}

func aggregateByKc(events []store.AssessmentEvent) map[string]kcAggregate {
	out := make(map[string]kcAggregate)
	for _, ev := range events {
		if ev.KcID == "" {
			continue
		}
		agg := out[ev.KcID]
		agg.attempts++
		if ev.IsCorrect != nil && *ev.IsCorrect {
			agg.correct++
		}
		if ev.Score != nil {
			agg.scoreSum += *ev.Score
			agg.scoredCount++
		}
		out[ev.KcID] = agg
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// updateKcState applies the weighted-mean update to one KC's mastery row.
func updateKcState(existing store.LearnerKcState, kcID, userID string, agg kcAggregate, now time.Time) store.LearnerKcState {
	hadPrior := existing.LhAttempts > 0 || existing.RhAttempts > 0

	sessAcc := 0.0
	if agg.attempts > 0 {
		sessAcc = float64(agg.correct) / float64(agg.attempts)
	}
	sessAvgScore := sessAcc
	if agg.scoredCount > 0 {
		sessAvgScore = agg.scoreSum / float64(agg.scoredCount)
	}
	sessionPerformance := clamp01((sessAcc + sessAvgScore) / 2)

	lhAttempts := existing.LhAttempts + agg.attempts
	lhAccuracy := existing.LhAccuracy
	if lhAttempts > 0 {
		lhAccuracy = (existing.LhAccuracy*float64(existing.LhAttempts) + float64(agg.correct)) / float64(lhAttempts)
	}

	rhAttempts := existing.RhAttempts + agg.attempts
	rhScore := existing.RhScore
	if rhAttempts > 0 {
		rhScore = (existing.RhScore*float64(existing.RhAttempts) + agg.scoreSum) / float64(rhAttempts)
	}

	integratedScore := clamp01((lhAccuracy + rhScore) / 2)

	var masteryLevel float64
	if hadPrior {
		masteryLevel = clamp01(0.8*existing.MasteryLevel + 0.2*sessionPerformance)
	} else {
		masteryLevel = clamp01(sessionPerformance)
	}

	tier := existing.DifficultyTier
	if tier == 0 {
		tier = 1
	}
	switch {
	case sessionPerformance >= 0.85 && lhAttempts >= 8:
		tier++
	case sessionPerformance < 0.4 && agg.attempts >= 3:
		tier--
	}
	if tier < 1 {
		tier = 1
	}
	if tier > 4 {
		tier = 4
	}

	firstEncountered := existing.FirstEncountered
	if firstEncountered.IsZero() {
		firstEncountered = now
	}

	return store.LearnerKcState{
		UserID:           userID,
		KcID:             kcID,
		LhAccuracy:       lhAccuracy,
		LhAttempts:       lhAttempts,
		LhLastAccuracy:   sessAcc,
		RhScore:          rhScore,
		RhAttempts:       rhAttempts,
		RhLastScore:      sessAvgScore,
		MasteryLevel:     masteryLevel,
		IntegratedScore:  integratedScore,
		DifficultyTier:   tier,
		FirstEncountered: firstEncountered,
		LastPracticed:    now,
		UpdatedAt:        now,
	}
}

// rescheduleFsrs walks the session's events in order, threading each
// touched (item, kc) pair's card forward so repeated attempts at the same
// item within one session compound correctly, and persists the final row
// per pair.
func (s *Service) rescheduleFsrs(ctx context.Context, userID, sessionID string, events []store.AssessmentEvent, weights *[19]float64, targetRetention float64) (int, error) {
	type pairKey struct {
		memoryItemID string
		stageType    string
	}

	working := make(map[pairKey]store.FsrsMemoryRow)
	order := make([]pairKey, 0)

	loadRow := func(key pairKey) (store.FsrsMemoryRow, error) {
		if row, ok := working[key]; ok {
			return row, nil
		}
		rows, err := s.repo.GetFsrsMemoryRows(ctx, userID, []string{key.memoryItemID})
		if err != nil {
			return store.FsrsMemoryRow{}, err
		}
		for _, r := range rows {
			if r.StageType == key.stageType {
				return r, nil
			}
		}
		return store.FsrsMemoryRow{UserID: userID, MemoryItemID: key.memoryItemID, StageType: key.stageType}, nil
	}

	for _, ev := range events {
		if ev.KcID == "" {
			continue
		}
		stageType := ev.Stage
		memoryItemID := ev.ContentItemID
		if ev.Stage == "return" {
			stageType = "return"
			memoryItemID = ev.KcID
		}
		key := pairKey{memoryItemID: memoryItemID, stageType: stageType}

		prev, err := loadRow(key)
		if err != nil {
			return 0, fmt.Errorf("load fsrs row for %s/%s: %w", memoryItemID, stageType, err)
		}
		if _, ok := working[key]; !ok {
			order = append(order, key)
		}

		card := cardFromRow(prev)
		if prev.State == "" {
			card = fsrs.NewCard()
		}
		rating := scoreToRating(ev.Score)
		sched := fsrs.Schedule(card, rating, ev.RespondedAt, weights, targetRetention)

		preState := string(card.State)
		preR := fsrs.CurrentRetrievability(card, ev.RespondedAt)
		var elapsedDays float64
		if card.LastReview != nil {
			elapsedDays = ev.RespondedAt.Sub(*card.LastReview).Hours() / 24
		}

		newRow := rowFromSchedule(userID, memoryItemID, ev.KcID, stageType, prev, sched, rating, ev.RespondedAt)
		working[key] = newRow

		s.emit.EmitReviewOutcome(analytics.ReviewOutcome{
			UserID:             userID,
			SessionID:          sessionID,
			ItemID:             memoryItemID,
			KcID:               ev.KcID,
			Rating:             int(rating),
			PreState:           preState,
			PostState:          string(sched.State),
			PreRetrievability:  preR,
			PostRetrievability: sched.Retrievability,
			ElapsedDays:        elapsedDays,
			ScheduledDays:      sched.IntervalDays,
			At:                 ev.RespondedAt,
		})
	}

	for _, key := range order {
		if err := s.repo.UpsertFsrsMemoryRow(ctx, working[key]); err != nil {
			return 0, fmt.Errorf("upsert fsrs row for %s/%s: %w", key.memoryItemID, key.stageType, err)
		}
	}
	return len(order), nil
}
