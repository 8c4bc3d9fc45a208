package fsrs

import (
	"math"
	"testing"
	"time"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSchedule_FirstReviewGood(t *testing.T) {
	card := NewCard()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sched := Schedule(card, RatingGood, now, nil, 0)

	if !approxEqual(sched.Stability, 3.1262, 1e-4) {
		t.Fatalf("stability = %v, want ~3.1262", sched.Stability)
	}
	if !approxEqual(sched.Difficulty, 5.3146, 1e-3) {
		t.Fatalf("difficulty = %v, want ~5.3146", sched.Difficulty)
	}
	if sched.Retrievability != 1 {
		t.Fatalf("retrievability = %v, want 1", sched.Retrievability)
	}
	if sched.IntervalDays != 3 {
		t.Fatalf("intervalDays = %v, want 3", sched.IntervalDays)
	}
	if sched.State != StateReview {
		t.Fatalf("state = %v, want review", sched.State)
	}
	wantDue := now.AddDate(0, 0, 3)
	if !sched.NextDue.Equal(wantDue) {
		t.Fatalf("nextDue = %v, want %v", sched.NextDue, wantDue)
	}
}

func TestSchedule_GoodFiveTimes(t *testing.T) {
	card := NewCard()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var lastInterval int
	var difficulty float64
	for i := 0; i < 5; i++ {
		sched := Schedule(card, RatingGood, now, nil, 0)
		if i > 0 && sched.IntervalDays <= lastInterval {
			t.Fatalf("review %d: interval %d did not strictly increase from %d", i, sched.IntervalDays, lastInterval)
		}
		if sched.State != StateReview {
			t.Fatalf("review %d: state = %v, want review", i, sched.State)
		}
		lastInterval = sched.IntervalDays
		card = Apply(card, sched, RatingGood, now)
		now = sched.NextDue
		difficulty = sched.Difficulty
	}

	if card.Stability <= 40 {
		t.Fatalf("stability after 5 Goods = %v, want > 40", card.Stability)
	}
	_ = difficulty
}

func TestSchedule_StabilityOrdering(t *testing.T) {
	// Fix a repeat-review card (D, S, R) and compare outcomes across ratings.
	card := Card{
		Stability:  10,
		Difficulty: 5,
		State:      StateReview,
	}
	lastReview := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	card.LastReview = &lastReview
	now := lastReview.AddDate(0, 0, 5)

	again := Schedule(card, RatingAgain, now, nil, 0)
	hard := Schedule(card, RatingHard, now, nil, 0)
	good := Schedule(card, RatingGood, now, nil, 0)
	easy := Schedule(card, RatingEasy, now, nil, 0)

	if !(again.Stability < hard.Stability && hard.Stability < good.Stability && good.Stability < easy.Stability) {
		t.Fatalf("stability ordering violated: again=%v hard=%v good=%v easy=%v",
			again.Stability, hard.Stability, good.Stability, easy.Stability)
	}
}

func TestCurrentRetrievability_NewCardAlwaysOne(t *testing.T) {
	card := NewCard()
	if r := CurrentRetrievability(card, time.Now()); r != 1 {
		t.Fatalf("retrievability = %v, want 1", r)
	}
}

func TestCurrentRetrievability_DecaysMonotonically(t *testing.T) {
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	card := Card{Stability: 10, Difficulty: 5, State: StateReview, LastReview: &last}

	t1 := CurrentRetrievability(card, last.AddDate(0, 0, 2))
	t2 := CurrentRetrievability(card, last.AddDate(0, 0, 8))
	if t1 < t2 {
		t.Fatalf("retrievability should not increase over time: t1=%v t2=%v", t1, t2)
	}

	atS := CurrentRetrievability(card, last.AddDate(0, 0, 10))
	if !approxEqual(atS, 0.9, 0.01) {
		t.Fatalf("R(S,S) = %v, want ~0.9", atS)
	}
}

func TestSchedule_IntervalFloor(t *testing.T) {
	ratings := []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}
	states := []State{StateNew, StateLearning, StateReview, StateRelearning}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, -3)

	for _, st := range states {
		for _, r := range ratings {
			card := Card{Stability: 0.5, Difficulty: 9, State: st, LastReview: &last}
			if st == StateNew {
				card = NewCard()
			}
			sched := Schedule(card, r, now, nil, 0.82)
			if sched.IntervalDays < 1 {
				t.Fatalf("state=%v rating=%v interval=%d, want >= 1", st, r, sched.IntervalDays)
			}
		}
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	newCard := NewCard()
	if !IsDue(newCard, now.AddDate(0, 0, 5), now) {
		t.Fatal("new card should always be due")
	}

	reviewCard := Card{State: StateReview}
	if IsDue(reviewCard, now.AddDate(0, 0, 1), now) {
		t.Fatal("not yet due")
	}
	if !IsDue(reviewCard, now.AddDate(0, 0, -1), now) {
		t.Fatal("should be due")
	}
}

func TestApply_IncrementsCounters(t *testing.T) {
	card := NewCard()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := Schedule(card, RatingAgain, now, nil, 0)

	applied := Apply(card, sched, RatingAgain, now)
	if applied.ReviewCount != 1 {
		t.Fatalf("reviewCount = %d, want 1", applied.ReviewCount)
	}
	if applied.LapseCount != 1 {
		t.Fatalf("lapseCount = %d, want 1", applied.LapseCount)
	}
	if applied.LastReview == nil || !applied.LastReview.Equal(now) {
		t.Fatalf("lastReview = %v, want %v", applied.LastReview, now)
	}

	applied2 := Apply(applied, sched, RatingGood, now)
	if applied2.LapseCount != 1 {
		t.Fatalf("lapseCount after Good = %d, want unchanged 1", applied2.LapseCount)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	card := NewCard()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := Schedule(card, RatingGood, now, nil, 0)
	_ = Apply(card, sched, RatingGood, now)

	if card.State != StateNew || card.ReviewCount != 0 {
		t.Fatal("Apply must not mutate its input card")
	}
}
