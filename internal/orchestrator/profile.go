package orchestrator

import (
	"math"
	"time"

	"github.com/hemisphere-labs/engine/internal/store"
)

const profileEwmaAlpha = 0.3

// ewma applies a single exponential-moving-average step. A zero-valued
// existing (no prior row) takes the sample outright instead of blending
// toward a false baseline of 0.
func ewma(existing, sample float64, hasExisting bool) float64 {
	if !hasExisting {
		return sample
	}
	return profileEwmaAlpha*sample + (1-profileEwmaAlpha)*existing
}

const (
	masteredThreshold   = 0.8
	inProgressThreshold = 0.0
)

// refreshTopicProficiency recomputes the Knowledge layer's per-topic rollup
// from the KC states touched this session.
func refreshTopicProficiency(userID, topicID string, kcStates []store.LearnerKcState, now time.Time) store.LearnerTopicProficiency {
	var sum float64
	var mastered, inProgress, notStarted int
	for _, s := range kcStates {
		sum += s.MasteryLevel
		switch {
		case s.MasteryLevel >= masteredThreshold:
			mastered++
		case s.MasteryLevel > inProgressThreshold:
			inProgress++
		default:
			notStarted++
		}
	}
	var proficiency float64
	if len(kcStates) > 0 {
		proficiency = sum / float64(len(kcStates))
	}
	return store.LearnerTopicProficiency{
		UserID:          userID,
		TopicID:         topicID,
		Proficiency:     proficiency,
		MasteredCount:   mastered,
		InProgressCount: inProgress,
		NotStartedCount: notStarted,
		UpdatedAt:       now,
	}
}

// sessionMetrics are the per-session scalars the Behavioral/Cognitive
// layers smooth over time.
type sessionMetrics struct {
	durationS         int
	meanLatencyMs     float64
	helpRequestRate   float64
	accuracy          float64
	confidenceAccCorr float64
	hemisphereScore   float64
}

// refreshBehavioralState updates the Behavioral layer with this session's
// metrics.
func refreshBehavioralState(existing *store.LearnerBehavioralState, m sessionMetrics, now time.Time) store.LearnerBehavioralState {
	var prev store.LearnerBehavioralState
	hasExisting := existing != nil
	if hasExisting {
		prev = *existing
	}

	out := prev
	out.SessionCountTotal = prev.SessionCountTotal + 1
	out.SessionCountLast7Days = prev.SessionCountLast7Days + 1
	out.SessionCountLast30Days = prev.SessionCountLast30Days + 1
	out.DurationEwmaS = ewma(prev.DurationEwmaS, float64(m.durationS), hasExisting)

	prevLatency := prev.LatencyMeanMs
	out.LatencyMeanMs = ewma(prevLatency, m.meanLatencyMs, hasExisting)
	if hasExisting {
		out.LatencyTrend = out.LatencyMeanMs - prevLatency
	}
	out.HelpRequestRate = ewma(prev.HelpRequestRate, m.helpRequestRate, hasExisting)
	out.ConfidenceAccuracyCorrelation = ewma(prev.ConfidenceAccuracyCorrelation, m.confidenceAccCorr, hasExisting)
	out.CalibrationGap = math.Abs(out.ConfidenceAccuracyCorrelation - m.accuracy)
	out.UpdatedAt = now
	return out
}

const hbsHistoryLimit = 30

// refreshCognitiveProfile updates the Cognitive layer's hemisphere-balance
// score and rolling history.
func refreshCognitiveProfile(existing *store.LearnerCognitiveProfile, hbsSample float64, velocitySample float64, now time.Time) store.LearnerCognitiveProfile {
	var prev store.LearnerCognitiveProfile
	hasExisting := existing != nil
	if hasExisting {
		prev = *existing
	}

	out := prev
	out.HBS = ewma(prev.HBS, hbsSample, hasExisting)
	out.HBSHistory = appendBounded(prev.HBSHistory, hbsSample, hbsHistoryLimit)
	out.LearningVelocityOverall = ewma(prev.LearningVelocityOverall, velocitySample, hasExisting)
	out.UpdatedAt = now
	return out
}

func appendBounded(history []float64, sample float64, limit int) []float64 {
	out := append(append([]float64(nil), history...), sample)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

const engagementHistoryLimit = 8

// refreshMotivationalState updates the Motivational layer's weekly
// engagement score, trend label and burnout/dropout risk.
func refreshMotivationalState(existing *store.LearnerMotivationalState, weeklyEngagementSample, challengeToleranceSample float64, signals burnoutSignals, now time.Time) store.LearnerMotivationalState {
	var prev store.LearnerMotivationalState
	hasExisting := existing != nil
	if hasExisting {
		prev = *existing
	}

	out := prev
	out.WeeklyEngagementScore = ewma(prev.WeeklyEngagementScore, weeklyEngagementSample, hasExisting)
	out.EngagementHistory = appendBounded(prev.EngagementHistory, weeklyEngagementSample, engagementHistoryLimit)
	out.ChallengeToleranceEwma = ewma(prev.ChallengeToleranceEwma, challengeToleranceSample, hasExisting)
	out.EngagementTrend = engagementTrend(out.EngagementHistory)
	out.BurnoutRisk = burnoutRisk(signals)
	out.DropoutRisk = dropoutRisk(out.EngagementTrend, out.BurnoutRisk)
	out.UpdatedAt = now
	return out
}

// engagementTrend labels the trend from the slope of the last 4 weekly
// scores.
func engagementTrend(history []float64) string {
	if len(history) < 2 {
		return "stable"
	}
	window := history
	if len(window) > 4 {
		window = window[len(window)-4:]
	}
	slope := linearSlope(window)
	switch {
	case slope > 0.05:
		return "increasing"
	case slope < -0.05:
		return "declining"
	default:
		return "stable"
	}
}

func linearSlope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// burnoutSignals are the three simultaneous-signal inputs counted to
// derive burnout risk.
type burnoutSignals struct {
	FrequencySpike     bool
	AccuracyDeclining  bool
	LatencyIncreasing  bool
}

func burnoutRisk(s burnoutSignals) string {
	count := 0
	if s.FrequencySpike {
		count++
	}
	if s.AccuracyDeclining {
		count++
	}
	if s.LatencyIncreasing {
		count++
	}
	switch {
	case count >= 3:
		return "high"
	case count == 2:
		return "moderate"
	default:
		return "low"
	}
}

func dropoutRisk(trend, burnout string) string {
	if burnout == "high" || trend == "declining" {
		return "high"
	}
	if burnout == "moderate" {
		return "moderate"
	}
	return "low"
}
