package orchestrator

import (
	"context"
	"time"

	"github.com/hemisphere-labs/engine/internal/analytics"
	"github.com/hemisphere-labs/engine/internal/store"
)

// refreshProfile updates all four profile layers after a session completes,
// per completeSession step 7. It reads each layer's existing row, applies
// the profile.go smoothing functions and persists the result.
func (s *Service) refreshProfile(ctx context.Context, userID, topicID string, updatedStates []store.LearnerKcState, events []store.AssessmentEvent, accuracy *float64, durationS int, now time.Time) error {
	topicKcIDs, err := s.repo.KCsByTopic(ctx, topicID)
	if err != nil {
		return err
	}
	inTopic := make(map[string]bool, len(topicKcIDs))
	for _, id := range topicKcIDs {
		inTopic[id] = true
	}
	var topicStates []store.LearnerKcState
	for _, st := range updatedStates {
		if inTopic[st.KcID] {
			topicStates = append(topicStates, st)
		}
	}

	priorProficiency, err := s.repo.GetLearnerTopicProficiency(ctx, userID, topicID)
	if err != nil {
		return err
	}
	proficiency := refreshTopicProficiency(userID, topicID, topicStates, now)
	if len(topicStates) > 0 {
		if err := s.repo.UpsertLearnerTopicProficiency(ctx, proficiency); err != nil {
			return err
		}
	}

	acc := 0.0
	if accuracy != nil {
		acc = *accuracy
	}

	itemIDs := make([]string, 0, len(events))
	for _, ev := range events {
		itemIDs = append(itemIDs, ev.ContentItemID)
	}
	items, err := s.loadContent(ctx, itemIDs)
	if err != nil {
		return err
	}
	difficultyByItem := make(map[string]int, len(items))
	for _, it := range items {
		difficultyByItem[it.ID] = it.DifficultyLevel
	}

	metrics := sessionMetricsFor(events, difficultyByItem, durationS, acc)
	metrics.hemisphereScore = hemisphereBalanceScore(topicStates)

	existingBehavioral, err := s.repo.GetLearnerBehavioralState(ctx, userID)
	if err != nil {
		return err
	}
	behavioral := refreshBehavioralState(existingBehavioral, metrics, now)
	if err := s.repo.UpsertLearnerBehavioralState(ctx, behavioral); err != nil {
		return err
	}

	existingCognitive, err := s.repo.GetLearnerCognitiveProfile(ctx, userID)
	if err != nil {
		return err
	}
	cognitive := refreshCognitiveProfile(existingCognitive, metrics.hemisphereScore, acc, now)
	if err := s.repo.UpsertLearnerCognitiveProfile(ctx, cognitive); err != nil {
		return err
	}

	weeklyEngagementSample := clamp01(float64(len(events)) / 20.0)
	challengeToleranceSample := averageDifficulty(difficultyByItem) / 4.0

	signals := burnoutSignals{
		FrequencySpike:    behavioral.SessionCountLast7Days > 14,
		AccuracyDeclining: priorProficiency != nil && acc < priorProficiency.Proficiency-0.15,
		LatencyIncreasing: behavioral.LatencyTrend > 0,
	}

	existingMotivational, err := s.repo.GetLearnerMotivationalState(ctx, userID)
	if err != nil {
		return err
	}
	motivational := refreshMotivationalState(existingMotivational, weeklyEngagementSample, challengeToleranceSample, signals, now)
	if err := s.repo.UpsertLearnerMotivationalState(ctx, motivational); err != nil {
		return err
	}

	if priorProficiency != nil {
		fromLevel := levelFromTier(priorProficiency.Proficiency)
		toLevel := levelFromTier(proficiency.Proficiency)
		if fromLevel != toLevel {
			trigger := "promotion"
			if toLevel < fromLevel {
				trigger = "demotion"
			}
			s.emit.EmitDifficultyLevelChanged(analytics.DifficultyLevelChanged{
				UserID:            userID,
				TopicID:           topicID,
				From:              fromLevel,
				To:                toLevel,
				AvgRetrievability: metrics.hemisphereScore,
				Trigger:           trigger,
				At:                now,
			})
		}
	}
	return nil
}

func sessionMetricsFor(events []store.AssessmentEvent, difficultyByItem map[string]int, durationS int, accuracy float64) sessionMetrics {
	if len(events) == 0 {
		return sessionMetrics{durationS: durationS, accuracy: accuracy}
	}
	var latencySum float64
	var helpCount int
	var agreementSum float64
	for _, ev := range events {
		latencySum += float64(ev.LatencyMs)
		if ev.HelpRequested {
			helpCount++
		}
		agreementSum += confidenceAgreement(ev)
	}
	n := float64(len(events))
	return sessionMetrics{
		durationS:         durationS,
		meanLatencyMs:     latencySum / n,
		helpRequestRate:   float64(helpCount) / n,
		accuracy:          accuracy,
		confidenceAccCorr: agreementSum / n,
	}
}

// confidenceAgreement scores how well one response's self-rating matched
// its actual correctness: 1 when a high rating was correct or a low rating
// was wrong, 0 for the opposite mismatch, 0.5 when there is nothing to
// compare.
func confidenceAgreement(ev store.AssessmentEvent) float64 {
	if ev.SelfRating == nil || ev.IsCorrect == nil {
		return 0.5
	}
	confident := *ev.SelfRating >= 3
	if confident == *ev.IsCorrect {
		return 1
	}
	return 0
}

func averageDifficulty(difficultyByItem map[string]int) float64 {
	if len(difficultyByItem) == 0 {
		return 0
	}
	var sum int
	for _, d := range difficultyByItem {
		sum += d
	}
	return float64(sum) / float64(len(difficultyByItem))
}

func levelFromTier(proficiency float64) int {
	switch {
	case proficiency >= 0.85:
		return 4
	case proficiency >= 0.6:
		return 3
	case proficiency >= 0.3:
		return 2
	default:
		return 1
	}
}
