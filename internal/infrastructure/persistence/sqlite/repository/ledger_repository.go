package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
	"cookledger/internal/infrastructure/persistence/sqlite/model"
	"cookledger/internal/ports"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

// AppendEntry inserts one immutable entry. No update or delete counterpart
// exists on this repository.
func (r *LedgerRepository) AppendEntry(ctx context.Context, entry ledger.Entry) (ledger.Entry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ledger.Entry{}, err
	}

	row := model.ContributionEntry{
		EntryID:       entry.ID,
		TaskID:        entry.TaskID,
		TeamID:        entry.TeamID,
		ContributorID: entry.ContributorID,
		Value:         entry.Value,
		Attribution:   entry.Attribution,
		IssuedAt:      formatTime(entry.IssuedAt),
	}
	if err := db.Create(&row).Error; err != nil {
		return ledger.Entry{}, errs.Wrap(err, "insert contribution entry")
	}
	return mapEntry(row), nil
}

func (r *LedgerRepository) ListTeamEntries(ctx context.Context, teamID string) ([]ledger.Entry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ContributionEntry
	if err := db.
		Where("team_id = ?", teamID).
		Order("issued_at asc, entry_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query team entries")
	}
	return mapEntries(rows), nil
}

func (r *LedgerRepository) ListContributorEntries(ctx context.Context, teamID, contributorID string) ([]ledger.Entry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ContributionEntry
	if err := db.
		Where("team_id = ? AND contributor_id = ?", teamID, contributorID).
		Order("issued_at asc, entry_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query contributor entries")
	}
	return mapEntries(rows), nil
}

func (r *LedgerRepository) ListTeamContributors(ctx context.Context, teamID string) ([]string, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := db.Model(&model.ContributionEntry{}).
		Where("team_id = ?", teamID).
		Distinct("contributor_id").
		Order("contributor_id asc").
		Pluck("contributor_id", &ids).Error; err != nil {
		return nil, errs.Wrap(err, "query team contributors")
	}
	return ids, nil
}

func mapEntry(row model.ContributionEntry) ledger.Entry {
	return ledger.Entry{
		ID:            row.EntryID,
		TaskID:        row.TaskID,
		TeamID:        row.TeamID,
		ContributorID: row.ContributorID,
		Value:         row.Value,
		Attribution:   row.Attribution,
		IssuedAt:      parseTime(row.IssuedAt),
	}
}

func mapEntries(rows []model.ContributionEntry) []ledger.Entry {
	items := make([]ledger.Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEntry(row))
	}
	return items
}

type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

func (r *ConfigRepository) GetTeamConfig(ctx context.Context, teamID string) (ports.TeamConfig, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.TeamConfig{}, err
	}

	var row model.TeamConfig
	if err := db.Where("team_id = ?", teamID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.TeamConfig{}, ports.ErrTeamConfigNotFound
		}
		return ports.TeamConfig{}, errs.Wrap(err, "query team config")
	}

	return ports.TeamConfig{
		TeamID:                         row.TeamID,
		Cap:                            row.Cap,
		DecayRate:                      row.DecayRate,
		EquityModel:                    row.EquityModel,
		EligibilityWindowMonths:        row.EligibilityWindowMonths,
		MinimumActiveValue:             row.MinimumActiveValue,
		CoolingOffDays:                 row.CoolingOffDays,
		ObjectionWindowDays:            row.ObjectionWindowDays,
		ObjectionThreshold:             row.ObjectionThreshold,
		VotingPeriodDays:               row.VotingPeriodDays,
		ApprovalThreshold:              row.ApprovalThreshold,
		ConstitutionalThreshold:        row.ConstitutionalThreshold,
		ConstitutionalVotingPeriodDays: row.ConstitutionalVotingPeriodDays,
	}, nil
}

func (r *ConfigRepository) SaveTeamConfig(ctx context.Context, cfg ports.TeamConfig) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.TeamConfig{
		TeamID:                         cfg.TeamID,
		Cap:                            cfg.Cap,
		DecayRate:                      cfg.DecayRate,
		EquityModel:                    cfg.EquityModel,
		EligibilityWindowMonths:        cfg.EligibilityWindowMonths,
		MinimumActiveValue:             cfg.MinimumActiveValue,
		CoolingOffDays:                 cfg.CoolingOffDays,
		ObjectionWindowDays:            cfg.ObjectionWindowDays,
		ObjectionThreshold:             cfg.ObjectionThreshold,
		VotingPeriodDays:               cfg.VotingPeriodDays,
		ApprovalThreshold:              cfg.ApprovalThreshold,
		ConstitutionalThreshold:        cfg.ConstitutionalThreshold,
		ConstitutionalVotingPeriodDays: cfg.ConstitutionalVotingPeriodDays,
		UpdatedAt:                      formatTime(nowUTC()),
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert team config")
	}
	return nil
}
