package fsrs

import (
	"math"
	"testing"
)

func TestOptimizeWeights_ZeroReviews(t *testing.T) {
	out := OptimizeWeights(DefaultWeights, LearnerStats{})
	if out.LapseRate != 0 {
		t.Fatalf("lapseRate = %v, want 0 for zero reviews", out.LapseRate)
	}
	for i, w := range out.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Fatalf("weight[%d] = %v, want finite", i, w)
		}
	}
	if out.TargetRetention < 0.82 || out.TargetRetention > 0.95 {
		t.Fatalf("targetRetention = %v, want within [0.82, 0.95]", out.TargetRetention)
	}
}

func TestOptimizeWeights_HighLapseLearner(t *testing.T) {
	stats := LearnerStats{
		TotalReviews:      200,
		TotalLapses:       70,
		AvgRetrievability: 0.62,
		AvgStability:      3.2,
		AvgDifficulty:     6.8,
	}
	out := OptimizeWeights(DefaultWeights, stats)

	if !approxEqual(out.LapseRate, 0.35, 1e-9) {
		t.Fatalf("lapseRate = %v, want 0.35", out.LapseRate)
	}
	if out.AdjustmentScore <= 0 {
		t.Fatalf("adjustmentScore = %v, want > 0", out.AdjustmentScore)
	}
	if out.TargetRetention < 0.82 || out.TargetRetention > 0.95 {
		t.Fatalf("targetRetention = %v, want within [0.82, 0.95]", out.TargetRetention)
	}
	if out.Weights[11] <= DefaultWeights[11] {
		t.Fatalf("w11 = %v, want > default %v", out.Weights[11], DefaultWeights[11])
	}
	if out.Weights[16] >= DefaultWeights[16] {
		t.Fatalf("w16 = %v, want < default %v", out.Weights[16], DefaultWeights[16])
	}
}

func TestOptimizeWeights_Boundedness(t *testing.T) {
	cases := []LearnerStats{
		{},
		{TotalReviews: 1, TotalLapses: 1},
		{TotalReviews: 1000, TotalLapses: 1000, AvgRetrievability: 0, AvgStability: 0, AvgDifficulty: 10},
		{TotalReviews: 5000, TotalLapses: 0, AvgRetrievability: 1, AvgStability: 400, AvgDifficulty: 1},
	}
	for i, stats := range cases {
		out := OptimizeWeights(DefaultWeights, stats)
		for j, w := range out.Weights {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				t.Fatalf("case %d weight[%d] = %v, want finite", i, j, w)
			}
		}
		if out.TargetRetention < 0.82 || out.TargetRetention > 0.95 {
			t.Fatalf("case %d targetRetention = %v out of bounds", i, out.TargetRetention)
		}
		if out.Weights[15] < 0.08 || out.Weights[15] > 0.9 {
			t.Fatalf("case %d w15 = %v out of bounds [0.08, 0.9]", i, out.Weights[15])
		}
		if out.Weights[16] < 1.5 || out.Weights[16] > 4.5 {
			t.Fatalf("case %d w16 = %v out of bounds [1.5, 4.5]", i, out.Weights[16])
		}
	}
}
