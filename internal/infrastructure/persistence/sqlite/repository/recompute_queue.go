package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cookledger/internal/errs"
	"cookledger/internal/infrastructure/persistence/sqlite/model"
	"cookledger/internal/ports"
)

type RecomputeQueue struct {
	db *gorm.DB
}

func NewRecomputeQueue(db *gorm.DB) *RecomputeQueue {
	return &RecomputeQueue{db: db}
}

func (q *RecomputeQueue) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return q.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (q *RecomputeQueue) Enqueue(ctx context.Context, task ports.RecomputeTask) error {
	db, err := q.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.RecomputeTask{
		TeamID:        task.TeamID,
		ContributorID: task.ContributorID,
		Stage:         task.Stage,
		Status:        ports.RecomputeStatusPending,
		Attempts:      0,
		EnqueuedAt:    formatTime(task.EnqueuedAt),
		UpdatedAt:     formatTime(task.EnqueuedAt),
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "enqueue recompute task")
	}
	return nil
}

func (q *RecomputeQueue) DequeuePending(ctx context.Context, limit int) ([]ports.RecomputeTask, error) {
	db, err := q.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}

	var rows []model.RecomputeTask
	if err := db.
		Where("status = ?", ports.RecomputeStatusPending).
		Order("task_id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pending recompute tasks")
	}

	tasks := make([]ports.RecomputeTask, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, ports.RecomputeTask{
			ID:            row.TaskID,
			TeamID:        row.TeamID,
			ContributorID: row.ContributorID,
			Stage:         row.Stage,
			Status:        row.Status,
			Attempts:      row.Attempts,
			LastError:     row.LastError,
			EnqueuedAt:    parseTime(row.EnqueuedAt),
			UpdatedAt:     parseTime(row.UpdatedAt),
		})
	}
	return tasks, nil
}

func (q *RecomputeQueue) MarkDone(ctx context.Context, id uint64) error {
	db, err := q.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.RecomputeTask{}).
		Where("task_id = ?", id).
		Updates(map[string]any{
			"status":     ports.RecomputeStatusDone,
			"last_error": "",
			"updated_at": formatTime(nowUTC()),
		}).Error; err != nil {
		return errs.Wrap(err, "mark recompute task done")
	}
	return nil
}

func (q *RecomputeQueue) MarkFailed(ctx context.Context, id uint64, attempts int, lastError string) error {
	db, err := q.dbFromContext(ctx)
	if err != nil {
		return err
	}

	// Below the attempt bound the task stays pending so a later pass
	// redelivers it.
	status := ports.RecomputeStatusPending
	if attempts >= ports.RecomputeMaxAttempts {
		status = ports.RecomputeStatusFailed
	}

	if err := db.Model(&model.RecomputeTask{}).
		Where("task_id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"attempts":   attempts,
			"last_error": lastError,
			"updated_at": formatTime(nowUTC()),
		}).Error; err != nil {
		return errs.Wrap(err, "mark recompute task failed")
	}
	return nil
}
