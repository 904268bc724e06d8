package repository

import (
	"context"
	"testing"
	"time"

	"cookledger/internal/ports"
)

func TestAuditAppendIsIdempotent(t *testing.T) {
	repo := NewAuditRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	entry := ports.AuditEntry{
		ID:                "audit-1",
		ActionType:        "committee_selection",
		ActorID:           "alice",
		Participants:      []string{"alice", "bob"},
		Outcome:           "selected",
		WeightsUsed:       map[string]float64{"alice": 60, "bob": 40},
		TotalWeight:       100,
		RelatedEntityID:   "sel-1",
		RelatedEntityType: "committee_selection",
		Metadata:          map[string]string{"seed": "audit-2026-q1"},
		CreatedAt:         now,
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		t.Fatalf("AppendEntry() error = %v", err)
	}

	// A retried append with the same id must not fail or duplicate.
	entry.Outcome = "tampered"
	if err := repo.AppendEntry(ctx, entry); err != nil {
		t.Fatalf("AppendEntry(retry) error = %v", err)
	}

	got, err := repo.ListByEntity(ctx, "sel-1", 10)
	if err != nil {
		t.Fatalf("ListByEntity() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListByEntity() len = %d", len(got))
	}
	if got[0].Outcome != "selected" {
		t.Fatalf("ListByEntity() outcome = %q, original row must survive", got[0].Outcome)
	}
	if got[0].WeightsUsed["alice"] != 60 {
		t.Fatalf("ListByEntity() weights = %+v", got[0].WeightsUsed)
	}
	if got[0].Metadata["seed"] != "audit-2026-q1" {
		t.Fatalf("ListByEntity() metadata = %+v", got[0].Metadata)
	}
}

func TestAuditListRecentNewestFirst(t *testing.T) {
	repo := NewAuditRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"audit-1", "audit-2", "audit-3"} {
		if err := repo.AppendEntry(ctx, ports.AuditEntry{
			ID:         id,
			ActionType: "proposal_created",
			ActorID:    "alice",
			Outcome:    "created",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("AppendEntry(%s) error = %v", id, err)
		}
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListRecent() len = %d", len(got))
	}
	if got[0].ID != "audit-3" || got[1].ID != "audit-2" {
		t.Fatalf("ListRecent() order = %q, %q", got[0].ID, got[1].ID)
	}
}

func TestRecomputeQueueLifecycle(t *testing.T) {
	queue := NewRecomputeQueue(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, stage := range []string{ports.RecomputeStageWeight, ports.RecomputeStageEquity} {
		if err := queue.Enqueue(ctx, ports.RecomputeTask{
			TeamID:     "team-alpha",
			Stage:      stage,
			EnqueuedAt: now,
		}); err != nil {
			t.Fatalf("Enqueue(%s) error = %v", stage, err)
		}
	}

	tasks, err := queue.DequeuePending(ctx, 10)
	if err != nil {
		t.Fatalf("DequeuePending() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("DequeuePending() len = %d", len(tasks))
	}
	if tasks[0].Stage != ports.RecomputeStageWeight {
		t.Fatalf("DequeuePending() first stage = %q, enqueue order must hold", tasks[0].Stage)
	}

	if err := queue.MarkDone(ctx, tasks[0].ID); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}
	if err := queue.MarkFailed(ctx, tasks[1].ID, 1, "team config missing"); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	remaining, err := queue.DequeuePending(ctx, 10)
	if err != nil {
		t.Fatalf("DequeuePending() after marks error = %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("DequeuePending() after marks len = %d", len(remaining))
	}
}
