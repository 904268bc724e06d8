package ports

import (
	"context"
	"time"
)

// Recompute stages, executed in this order for any one trigger: weight
// first, then equity (equity normalization needs the fresh weights).
const (
	RecomputeStageWeight = "weight"
	RecomputeStageEquity = "equity"
)

const (
	RecomputeStatusPending = "pending"
	RecomputeStatusDone    = "done"
	RecomputeStatusFailed  = "failed"
)

// RecomputeMaxAttempts bounds how often one task is attempted. A task
// that fails with fewer attempts stays pending for redelivery; at the
// bound it parks as failed and is never dequeued again.
const RecomputeMaxAttempts = 3

// RecomputeTask is one queued recomputation. Tasks retry independently;
// a failing stage never propagates back to the action that enqueued it.
type RecomputeTask struct {
	ID            uint64
	TeamID        string
	ContributorID string
	Stage         string
	Status        string
	Attempts      int
	LastError     string
	EnqueuedAt    time.Time
	UpdatedAt     time.Time
}

type RecomputeQueue interface {
	Enqueue(ctx context.Context, task RecomputeTask) error
	DequeuePending(ctx context.Context, limit int) ([]RecomputeTask, error)
	MarkDone(ctx context.Context, id uint64) error
	// MarkFailed records a failed attempt. The task remains pending
	// below RecomputeMaxAttempts and parks as failed once it is reached.
	MarkFailed(ctx context.Context, id uint64, attempts int, lastError string) error
}
