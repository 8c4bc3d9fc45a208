package orchestrator

import (
	"time"

	"github.com/hemisphere-labs/engine/internal/fsrs"
	"github.com/hemisphere-labs/engine/internal/selector"
	"github.com/hemisphere-labs/engine/internal/store"
)

// cardFromRow reconstructs an fsrs.Card from its persisted form. A missing
// row (the zero value) is treated by callers as "no row", not as this
// function's input — see rescheduleFsrs.
func cardFromRow(row store.FsrsMemoryRow) fsrs.Card {
	return fsrs.Card{
		Stability:      row.Stability,
		Difficulty:     row.Difficulty,
		Retrievability: row.Retrievability,
		State:          fsrs.State(row.State),
		LastReview:     row.LastReview,
		ReviewCount:    row.ReviewCount,
		LapseCount:     row.LapseCount,
	}
}

// rowFromSchedule builds the row to persist after scheduling a review.
func rowFromSchedule(userID, memoryItemID, kcID, stageType string, prev store.FsrsMemoryRow, sched fsrs.Schedule, rating fsrs.Rating, now time.Time) store.FsrsMemoryRow {
	lapseCount := prev.LapseCount
	if rating == fsrs.RatingAgain {
		lapseCount++
	}
	return store.FsrsMemoryRow{
		UserID:         userID,
		MemoryItemID:   memoryItemID,
		KcID:           kcID,
		StageType:      stageType,
		Stability:      sched.Stability,
		Difficulty:     sched.Difficulty,
		Retrievability: sched.Retrievability,
		State:          string(sched.State),
		LastReview:     &now,
		NextReview:     sched.NextDue,
		ReviewCount:    prev.ReviewCount + 1,
		LapseCount:     lapseCount,
	}
}

// scoreToRating maps an assessment event's score to an FSRS rating: null
// (no score recorded) maps to Good, since a response with no score is most
// often a self-rated or ungraded item that the learner still engaged with.
func scoreToRating(score *float64) fsrs.Rating {
	if score == nil {
		return fsrs.RatingGood
	}
	switch {
	case *score >= 0.9:
		return fsrs.RatingEasy
	case *score >= 0.7:
		return fsrs.RatingGood
	case *score >= 0.4:
		return fsrs.RatingHard
	default:
		return fsrs.RatingAgain
	}
}

// memoryStateOf projects a persisted FsrsMemoryRow into the selector's
// narrower MemoryState, refreshing retrievability to now.
func memoryStateOf(row store.FsrsMemoryRow, now time.Time, consecutiveAgain int) selector.MemoryState {
	card := cardFromRow(row)
	return selector.MemoryState{
		State:            selector.ItemState(card.State),
		Retrievability:   fsrs.CurrentRetrievability(card, now),
		ConsecutiveAgain: consecutiveAgain,
	}
}

// consecutiveAgainFor counts the trailing run of Again-rated responses for
// memoryItemID, most recent first, from a session-ordered event history.
// Zombie/at-risk detection needs this count but FsrsMemoryRow carries no
// such field, so it is derived on demand from assessment-event history
// whenever that detection runs.
func consecutiveAgainFor(events []store.AssessmentEvent, contentItemID string) int {
	count := 0
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.ContentItemID != contentItemID {
			continue
		}
		if scoreToRating(ev.Score) != fsrs.RatingAgain {
			break
		}
		count++
	}
	return count
}
