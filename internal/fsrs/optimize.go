package fsrs

// LearnerStats are the weekly aggregate review statistics for one learner,
// fed into the weight-tuning heuristic.
type LearnerStats struct {
	TotalReviews    int
	TotalLapses     int
	AvgRetrievability float64
	AvgStability      float64
	AvgDifficulty     float64
}

// OptimizedWeights is the result of one weekly tuning pass: adjusted weights,
// the target retention to use going forward, and the pressures that drove
// the adjustment (exposed for analytics/debugging).
type OptimizedWeights struct {
	Weights         [19]float64
	TargetRetention float64
	LapseRate       float64
	AdjustmentScore float64
}

// OptimizeWeights nudges a subset of the weight vector toward the learner's
// observed review outcomes. It never mutates base and is defined (finite,
// bounded targetRetention) for any non-negative input, including a learner
// with zero reviews.
func OptimizeWeights(base [19]float64, stats LearnerStats) OptimizedWeights {
	var lapseRate float64
	if stats.TotalReviews > 0 {
		lapseRate = float64(stats.TotalLapses) / float64(stats.TotalReviews)
	}

	lapsePressure := clamp((lapseRate-0.15)/0.2, -1, 1)
	retrievabilityPressure := clamp((stats.AvgRetrievability-0.82)/0.25, -1, 1)
	difficultyPressure := clamp((stats.AvgDifficulty-5.5)/3, -1, 1)

	score := clamp(lapsePressure-0.5*retrievabilityPressure+0.15*difficultyPressure, -1, 1)

	w := base
	w[8] = base[8] * clamp(1-0.12*score, 0.85, 1.15)
	w[10] = base[10] * clamp(1-0.12*score, 0.85, 1.15)
	w[11] = base[11] * clamp(1+0.15*score, 0.85, 1.2)
	w[14] = base[14] * clamp(1+0.15*score, 0.85, 1.2)
	w[15] = clamp(base[15]*clamp(1-0.1*score, 0.8, 1.2), 0.08, 0.9)
	w[16] = clamp(base[16]*clamp(1-0.1*score, 0.85, 1.15), 1.5, 4.5)

	targetRetention := clamp(0.9+0.05*score, 0.82, 0.95)

	return OptimizedWeights{
		Weights:         w,
		TargetRetention: targetRetention,
		LapseRate:       lapseRate,
		AdjustmentScore: score,
	}
}
