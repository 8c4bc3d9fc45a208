package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hemisphere-labs/engine/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	repo, err := New(s)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	if err := repo.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	row := store.SessionRow{
		ID:                "sess-1",
		UserID:            "user-1",
		TopicID:           "topic-1",
		Status:            "active",
		SessionType:       "standard",
		CreatedAt:         now,
		AdaptiveDecisions: []byte(`{"status":"active"}`),
	}
	if err := repo.InsertSession(ctx, row); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.Status != "active" || got.UserID != "user-1" {
		t.Fatalf("unexpected session row: %+v", got)
	}

	completed := now.Add(10 * time.Minute)
	acc := 0.82
	row.Status = "completed"
	row.CompletedAt = &completed
	row.Accuracy = &acc
	row.DurationS = 600
	if err := repo.UpdateSession(ctx, row); err != nil {
		t.Fatalf("update session: %v", err)
	}

	got, err = repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session after update: %v", err)
	}
	if got.Status != "completed" || got.Accuracy == nil || *got.Accuracy != acc {
		t.Fatalf("update did not persist: %+v", got)
	}
}

func TestMostRecentInProgressSession_ExcludesCompleted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, status := range []string{"completed", "abandoned", "in_progress"} {
		err := repo.InsertSession(ctx, store.SessionRow{
			ID:                "sess-" + status,
			UserID:            "user-1",
			TopicID:           "topic-1",
			Status:            status,
			SessionType:       "standard",
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
			AdaptiveDecisions: []byte(`{}`),
		})
		if err != nil {
			t.Fatalf("insert %s: %v", status, err)
		}
	}

	got, err := repo.MostRecentInProgressSession(ctx, "user-1", "topic-1")
	if err != nil {
		t.Fatalf("most recent in progress: %v", err)
	}
	if got == nil || got.Status != "in_progress" {
		t.Fatalf("expected the in_progress session, got %+v", got)
	}
}

func TestAssessmentEvents_OrderedBySequence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		ev := store.AssessmentEvent{
			UserID:        "user-1",
			SessionID:     "sess-1",
			ContentItemID: "item-" + string(rune('a'+i)),
			Stage:         "encounter",
			ResponseType:  "mcq",
			ScoringMethod: "auto",
			PresentedAt:   now,
			RespondedAt:   now.Add(time.Second),
			LatencyMs:     1000,
		}
		if err := repo.InsertAssessmentEvent(ctx, ev); err != nil {
			t.Fatalf("insert event %d: %v", i, err)
		}
	}

	events, err := repo.ListAssessmentEventsBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Sequence <= events[i-1].Sequence {
			t.Fatalf("events not strictly ordered by sequence: %+v", events)
		}
	}
}

func TestFsrsMemoryRow_Upsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	row := store.FsrsMemoryRow{
		UserID:         "user-1",
		MemoryItemID:   "item-1",
		StageType:      "encounter",
		Stability:      3.1,
		Difficulty:     5.3,
		Retrievability: 1,
		State:          "review",
		NextReview:     now.AddDate(0, 0, 3),
		ReviewCount:    1,
	}
	if err := repo.UpsertFsrsMemoryRow(ctx, row); err != nil {
		t.Fatalf("insert: %v", err)
	}

	row.Stability = 7.8
	row.ReviewCount = 2
	if err := repo.UpsertFsrsMemoryRow(ctx, row); err != nil {
		t.Fatalf("update via upsert: %v", err)
	}

	got, err := repo.GetFsrsMemoryRows(ctx, "user-1", []string{"item-1"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].Stability != 7.8 || got[0].ReviewCount != 2 {
		t.Fatalf("upsert did not overwrite: %+v", got)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sentinel := errTestRollback{}
	err := repo.WithTx(ctx, func(ctx context.Context, tx store.Repository) error {
		if err := tx.UpsertFsrsParameters(ctx, store.FsrsParameters{UserID: "user-1", TargetRetention: 0.9}); err != nil {
			return err
		}
		return sentinel
	})
	if err == nil {
		t.Fatal("expected error from WithTx")
	}

	got, err := repo.GetFsrsParameters(ctx, "user-1")
	if err != nil {
		t.Fatalf("get fsrs parameters: %v", err)
	}
	if got != nil {
		t.Fatalf("expected rollback to discard the write, got %+v", got)
	}
}

type errTestRollback struct{}

func (errTestRollback) Error() string { return "forced rollback" }

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(ctx context.Context, tx store.Repository) error {
		return tx.UpsertFsrsParameters(ctx, store.FsrsParameters{UserID: "user-1", TargetRetention: 0.9})
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}

	got, err := repo.GetFsrsParameters(ctx, "user-1")
	if err != nil {
		t.Fatalf("get fsrs parameters: %v", err)
	}
	if got == nil || got.TargetRetention != 0.9 {
		t.Fatalf("expected committed write, got %+v", got)
	}
}
