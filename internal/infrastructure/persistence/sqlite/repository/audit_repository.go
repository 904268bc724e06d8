package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cookledger/internal/errs"
	"cookledger/internal/infrastructure/persistence/sqlite/model"
	"cookledger/internal/ports"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *AuditRepository) AppendEntry(ctx context.Context, entry ports.AuditEntry) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row, err := mapAuditToRow(entry)
	if err != nil {
		return err
	}
	// Duplicate appends (a retried call with the same audit id) are
	// silently skipped so the log stays append-only without ever
	// rewriting a row.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "append audit entry")
	}
	return nil
}

func (r *AuditRepository) ListByEntity(ctx context.Context, relatedEntityID string, limit int) ([]ports.AuditEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.AuditEntry{}).
		Where("related_entity_id = ?", relatedEntityID).
		Order("created_at desc, audit_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.AuditEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query audit entries by entity")
	}
	return mapAuditRows(rows)
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]ports.AuditEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	var rows []model.AuditEntry
	if err := db.
		Order("created_at desc, audit_id desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query recent audit entries")
	}
	return mapAuditRows(rows)
}

func mapAuditToRow(entry ports.AuditEntry) (model.AuditEntry, error) {
	participants := entry.Participants
	if participants == nil {
		participants = []string{}
	}
	participantsJSON, err := json.Marshal(participants)
	if err != nil {
		return model.AuditEntry{}, errs.Wrap(err, "marshal audit participants")
	}

	weights := entry.WeightsUsed
	if weights == nil {
		weights = map[string]float64{}
	}
	weightsJSON, err := json.Marshal(weights)
	if err != nil {
		return model.AuditEntry{}, errs.Wrap(err, "marshal audit weights")
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return model.AuditEntry{}, errs.Wrap(err, "marshal audit metadata")
	}

	return model.AuditEntry{
		AuditID:           entry.ID,
		ActionType:        entry.ActionType,
		ActorID:           entry.ActorID,
		ParticipantsJSON:  string(participantsJSON),
		Outcome:           entry.Outcome,
		WeightsJSON:       string(weightsJSON),
		TotalWeight:       entry.TotalWeight,
		RelatedEntityID:   entry.RelatedEntityID,
		RelatedEntityType: entry.RelatedEntityType,
		MetadataJSON:      string(metadataJSON),
		CreatedAt:         formatTime(entry.CreatedAt),
	}, nil
}

func mapAuditRows(rows []model.AuditEntry) ([]ports.AuditEntry, error) {
	items := make([]ports.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry := ports.AuditEntry{
			ID:                row.AuditID,
			ActionType:        row.ActionType,
			ActorID:           row.ActorID,
			Outcome:           row.Outcome,
			TotalWeight:       row.TotalWeight,
			RelatedEntityID:   row.RelatedEntityID,
			RelatedEntityType: row.RelatedEntityType,
			CreatedAt:         parseTime(row.CreatedAt),
		}
		if err := json.Unmarshal([]byte(row.ParticipantsJSON), &entry.Participants); err != nil {
			return nil, errs.Wrap(err, "unmarshal audit participants")
		}
		if err := json.Unmarshal([]byte(row.WeightsJSON), &entry.WeightsUsed); err != nil {
			return nil, errs.Wrap(err, "unmarshal audit weights")
		}
		if err := json.Unmarshal([]byte(row.MetadataJSON), &entry.Metadata); err != nil {
			return nil, errs.Wrap(err, "unmarshal audit metadata")
		}
		items = append(items, entry)
	}
	return items, nil
}
