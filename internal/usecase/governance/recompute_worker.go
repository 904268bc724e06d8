package governance

import (
	"context"
	"log/slog"

	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// enqueueRecompute queues the weight and equity stages for a team after a
// ledger change. Enqueue failures are logged and swallowed: the write that
// triggered the recompute already committed and must not be failed by its
// downstream bookkeeping.
func (s *Service) enqueueRecompute(ctx context.Context, teamID, contributorID string) {
	if s.queue == nil {
		return
	}

	now := s.now()
	for _, stage := range []string{ports.RecomputeStageWeight, ports.RecomputeStageEquity} {
		if err := s.queue.Enqueue(ctx, ports.RecomputeTask{
			TeamID:        teamID,
			ContributorID: contributorID,
			Stage:         stage,
			EnqueuedAt:    now,
		}); err != nil {
			logging.Error(
				logging.WithAttrs(ctx, slog.String("component", "governance.recompute")),
				"enqueue recompute task failed",
				slog.Any("err", errs.Loggable(err)),
				slog.String("team_id", teamID),
				slog.String("stage", stage),
			)
		}
	}
}

// RunRecomputeWorker drains pending recompute tasks in one pass and
// returns the number of tasks that completed. Each task fails or succeeds
// independently; a failed task is retried on later passes until its
// attempts run out.
func (s *Service) RunRecomputeWorker(ctx context.Context, batchSize int) (int, error) {
	if err := s.checkReady(ctx); err != nil {
		return 0, err
	}
	if s.queue == nil {
		return 0, errs.Validationf("recompute queue is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "governance.recompute"))

	tasks, err := s.queue.DequeuePending(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return done, errs.Wrap(err, "check context")
		}

		if err := s.runRecomputeStage(ctx, task); err != nil {
			attempts := task.Attempts + 1
			logging.Error(logCtx, "recompute stage failed",
				slog.Any("err", errs.Loggable(err)),
				slog.Uint64("task_id", task.ID),
				slog.String("team_id", task.TeamID),
				slog.String("stage", task.Stage),
				slog.Int("attempts", attempts),
			)
			if markErr := s.queue.MarkFailed(ctx, task.ID, attempts, err.Error()); markErr != nil {
				logging.Error(logCtx, "mark recompute task failed errored", slog.Any("err", errs.Loggable(markErr)), slog.Uint64("task_id", task.ID))
			}
			continue
		}

		if err := s.queue.MarkDone(ctx, task.ID); err != nil {
			logging.Error(logCtx, "mark recompute task done errored", slog.Any("err", errs.Loggable(err)), slog.Uint64("task_id", task.ID))
			continue
		}
		done++
	}

	if len(tasks) > 0 {
		logging.Info(logCtx, "recompute pass finished", slog.Int("dequeued", len(tasks)), slog.Int("done", done))
	}
	return done, nil
}

func (s *Service) runRecomputeStage(ctx context.Context, task ports.RecomputeTask) error {
	if task.Attempts >= ports.RecomputeMaxAttempts {
		return errs.StateConflictf("task %d exceeded %d attempts", task.ID, ports.RecomputeMaxAttempts)
	}

	switch task.Stage {
	case ports.RecomputeStageWeight:
		if task.ContributorID != "" {
			_, err := s.RecomputeGovernanceWeight(ctx, task.TeamID, task.ContributorID)
			return err
		}
		_, err := s.RecomputeTeamWeights(ctx, task.TeamID)
		return err
	case ports.RecomputeStageEquity:
		_, err := s.RecomputeTeamEquity(ctx, task.TeamID, "")
		return err
	default:
		return errs.Validationf("unknown recompute stage %q", task.Stage)
	}
}
