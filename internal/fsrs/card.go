// Package fsrs implements the FSRS-5 memory model: initial card state,
// rating-driven interval scheduling, retrievability decay, and the weekly
// per-learner weight-tuning heuristic. Every function here is pure — no I/O,
// no shared state — so callers can invoke it freely from concurrent request
// handlers.
package fsrs

import (
	"math"
	"time"
)

// State is the lifecycle stage of a reviewable item's memory.
type State string

const (
	StateNew        State = "new"
	StateLearning   State = "learning"
	StateReview     State = "review"
	StateRelearning State = "relearning"
)

// Rating is the learner's self-reported recall quality for one review.
type Rating int

const (
	RatingAgain Rating = 1
	RatingHard  Rating = 2
	RatingGood  Rating = 3
	RatingEasy  Rating = 4
)

// Card is the memory state of one reviewable item for one learner.
type Card struct {
	Stability      float64
	Difficulty     float64
	Retrievability float64
	State          State
	LastReview     *time.Time
	ReviewCount    int
	LapseCount     int
}

// Schedule is the result of rating a card: the next due date and the card
// fields it implies.
type Schedule struct {
	NextDue        time.Time
	IntervalDays   int
	Stability      float64
	Difficulty     float64
	Retrievability float64
	State          State
}

// NewCard returns a freshly initialized, never-reviewed card.
func NewCard() Card {
	return Card{
		Stability:      0,
		Difficulty:     0,
		Retrievability: 1,
		State:          StateNew,
		LastReview:     nil,
		ReviewCount:    0,
		LapseCount:     0,
	}
}

// decay constants shared by retrievability and interval derivation.
const (
	decayExp = -0.5
	factor   = 19.0 / 81.0
)

// CurrentRetrievability returns the card's recall probability at now. New
// cards, cards with non-positive stability, and never-reviewed cards are
// always fully retrievable.
func CurrentRetrievability(card Card, now time.Time) float64 {
	if card.State == StateNew || card.Stability <= 0 || card.LastReview == nil {
		return 1
	}
	elapsedDays := now.Sub(*card.LastReview).Hours() / 24
	if elapsedDays <= 0 {
		return 1
	}
	return retrievability(elapsedDays, card.Stability)
}

func retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+factor*elapsedDays/stability, decayExp)
}

// IsDue reports whether a card should be presented at now. New cards are
// always due.
func IsDue(card Card, dueDate, now time.Time) bool {
	if card.State == StateNew {
		return true
	}
	return !now.Before(dueDate)
}
