package fsrs

import (
	"math"
	"time"
)

// Schedule computes the result of rating a card. It is pure: it does not
// mutate card. Pass weights=nil to use DefaultWeights and targetRetention<=0
// to use DefaultTargetRetention.
func Schedule(card Card, rating Rating, now time.Time, weights *[19]float64, targetRetention float64) Schedule {
	w := DefaultWeights
	if weights != nil {
		w = *weights
	}
	if targetRetention <= 0 {
		targetRetention = DefaultTargetRetention
	}

	r := CurrentRetrievability(card, now)

	var stability, difficulty float64
	switch {
	case card.State == StateNew:
		stability = initialStability(w, rating)
		difficulty = initialDifficulty(w, rating)
	case rating == RatingAgain:
		stability = lapseStability(w, card.Difficulty, card.Stability, r)
		difficulty = nextDifficulty(w, card.Difficulty, rating)
	default:
		stability = recallStability(w, card.Difficulty, card.Stability, r, rating)
		difficulty = nextDifficulty(w, card.Difficulty, rating)
	}

	intervalDays := nextInterval(stability, targetRetention)
	nextDue := now.AddDate(0, 0, intervalDays)

	return Schedule{
		NextDue:        nextDue,
		IntervalDays:   intervalDays,
		Stability:      stability,
		Difficulty:     difficulty,
		Retrievability: r,
		State:          nextState(card.State, rating),
	}
}

// Apply produces the new card resulting from rating card with schedule at
// now. It does not mutate card.
func Apply(card Card, sched Schedule, rating Rating, now time.Time) Card {
	lapses := card.LapseCount
	if rating == RatingAgain {
		lapses++
	}
	return Card{
		Stability:      sched.Stability,
		Difficulty:     sched.Difficulty,
		Retrievability: sched.Retrievability,
		State:          sched.State,
		LastReview:     &now,
		ReviewCount:    card.ReviewCount + 1,
		LapseCount:     lapses,
	}
}

func initialStability(w [19]float64, rating Rating) float64 {
	return math.Max(1, w[rating-1])
}

func initialDifficulty(w [19]float64, rating Rating) float64 {
	d := w[4] - math.Exp(w[5]*float64(rating-1)) + 1
	return clamp(d, 1, 10)
}

func nextDifficulty(w [19]float64, d float64, rating Rating) float64 {
	d0Good := initialDifficulty(w, RatingGood)
	updated := w[7]*d0Good + (1-w[7])*(d-w[6]*(float64(rating)-3))
	return clamp(updated, 1, 10)
}

func recallStability(w [19]float64, d, s, r float64, rating Rating) float64 {
	h := 1.0
	if rating == RatingHard {
		h = w[15]
	}
	e := 1.0
	if rating == RatingEasy {
		e = w[16]
	}
	growth := math.Exp(w[8]) * (11 - d) * math.Pow(s, -w[9]) * (math.Exp(w[10]*(1-r)) - 1) * h * e
	return s * (growth + 1)
}

func lapseStability(w [19]float64, d, s, r float64) float64 {
	v := w[11] * math.Pow(d, -w[12]) * (math.Pow(s+1, w[13]) - 1) * math.Exp(w[14]*(1-r))
	return math.Max(1, v)
}

func nextInterval(stability, targetRetention float64) int {
	days := (stability / factor) * (math.Pow(targetRetention, 1/decayExp) - 1)
	return int(math.Max(1, math.Round(days)))
}

func nextState(prev State, rating Rating) State {
	switch prev {
	case StateNew:
		if rating == RatingAgain {
			return StateLearning
		}
		return StateReview
	default:
		if rating == RatingAgain {
			return StateRelearning
		}
		return StateReview
	}
}
