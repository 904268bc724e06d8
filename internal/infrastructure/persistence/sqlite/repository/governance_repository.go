package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cookledger/internal/domain/committee"
	"cookledger/internal/errs"
	"cookledger/internal/infrastructure/persistence/sqlite/model"
	"cookledger/internal/ports"
)

type GovernanceRepository struct {
	db *gorm.DB
}

func NewGovernanceRepository(db *gorm.DB) *GovernanceRepository {
	return &GovernanceRepository{db: db}
}

func (r *GovernanceRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

// UpsertEquityRecords overwrites the whole record per contributor: the
// distributor recomputes the full team, so the previous record never needs
// merging.
func (r *GovernanceRepository) UpsertEquityRecords(ctx context.Context, records []ports.EquityRecord) error {
	if len(records) == 0 {
		return nil
	}

	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	rows := make([]model.EquityRecord, 0, len(records))
	for _, record := range records {
		rows = append(rows, model.EquityRecord{
			TeamID:                  record.TeamID,
			ContributorID:           record.ContributorID,
			Percent:                 record.Percent,
			RawValue:                record.RawValue,
			EffectiveValue:          record.EffectiveValue,
			TotalTeamEffectiveValue: record.TotalTeamEffectiveValue,
			Model:                   record.Model,
			CapApplied:              record.CapApplied,
			DecayApplied:            record.DecayApplied,
			LastUpdated:             formatTime(record.LastUpdated),
		})
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "contributor_id"}},
		UpdateAll: true,
	}).Create(&rows).Error; err != nil {
		return errs.Wrap(err, "upsert equity records")
	}
	return nil
}

func (r *GovernanceRepository) ListEquityRecords(ctx context.Context, teamID string) ([]ports.EquityRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.EquityRecord
	if err := db.
		Where("team_id = ?", teamID).
		Order("contributor_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query equity records")
	}

	items := make([]ports.EquityRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.EquityRecord{
			TeamID:                  row.TeamID,
			ContributorID:           row.ContributorID,
			Percent:                 row.Percent,
			RawValue:                row.RawValue,
			EffectiveValue:          row.EffectiveValue,
			TotalTeamEffectiveValue: row.TotalTeamEffectiveValue,
			Model:                   row.Model,
			CapApplied:              row.CapApplied,
			DecayApplied:            row.DecayApplied,
			LastUpdated:             parseTime(row.LastUpdated),
		})
	}
	return items, nil
}

func (r *GovernanceRepository) UpsertWeightRecord(ctx context.Context, record ports.WeightRecord) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.GovernanceWeightRecord{
		TeamID:         record.TeamID,
		ContributorID:  record.ContributorID,
		Weight:         record.Weight,
		RawValue:       record.RawValue,
		EffectiveValue: record.EffectiveValue,
		CapApplied:     record.CapApplied,
		DecayApplied:   record.DecayApplied,
		LastUpdated:    formatTime(record.LastUpdated),
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "contributor_id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert weight record")
	}
	return nil
}

func (r *GovernanceRepository) GetWeightRecord(ctx context.Context, teamID, contributorID string) (ports.WeightRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.WeightRecord{}, err
	}

	var row model.GovernanceWeightRecord
	if err := db.
		Where("team_id = ? AND contributor_id = ?", teamID, contributorID).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.WeightRecord{}, ports.ErrWeightRecordNotFound
		}
		return ports.WeightRecord{}, errs.Wrap(err, "query weight record")
	}
	return mapWeightRecord(row), nil
}

func (r *GovernanceRepository) ListWeightRecords(ctx context.Context, teamID string) ([]ports.WeightRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.GovernanceWeightRecord
	if err := db.
		Where("team_id = ?", teamID).
		Order("contributor_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query weight records")
	}

	items := make([]ports.WeightRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapWeightRecord(row))
	}
	return items, nil
}

func mapWeightRecord(row model.GovernanceWeightRecord) ports.WeightRecord {
	return ports.WeightRecord{
		TeamID:         row.TeamID,
		ContributorID:  row.ContributorID,
		Weight:         row.Weight,
		RawValue:       row.RawValue,
		EffectiveValue: row.EffectiveValue,
		CapApplied:     row.CapApplied,
		DecayApplied:   row.DecayApplied,
		LastUpdated:    parseTime(row.LastUpdated),
	}
}

func (r *GovernanceRepository) CreateServiceTerm(ctx context.Context, term committee.ServiceTerm) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := mapTermToRow(term)
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert service term")
	}
	return nil
}

func (r *GovernanceRepository) SaveServiceTerm(ctx context.Context, term committee.ServiceTerm) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := mapTermToRow(term)
	result := db.Model(&model.ServiceTerm{}).
		Where("term_id = ?", term.ID).
		Updates(map[string]any{
			"end_date":      row.EndDate,
			"duration_days": row.DurationDays,
			"status":        row.Status,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update service term")
	}
	if result.RowsAffected == 0 {
		return ports.ErrServiceTermNotFound
	}
	return nil
}

func (r *GovernanceRepository) GetServiceTerm(ctx context.Context, id string) (committee.ServiceTerm, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return committee.ServiceTerm{}, err
	}

	var row model.ServiceTerm
	if err := db.Where("term_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return committee.ServiceTerm{}, ports.ErrServiceTermNotFound
		}
		return committee.ServiceTerm{}, errs.Wrap(err, "query service term")
	}
	return mapTermFromRow(row), nil
}

func (r *GovernanceRepository) ListServiceTerms(ctx context.Context, filter ports.ServiceTermFilter) ([]committee.ServiceTerm, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ServiceTerm{})
	if filter.ContributorID != "" {
		query = query.Where("contributor_id = ?", filter.ContributorID)
	}
	if filter.CommitteeID != "" {
		query = query.Where("committee_id = ?", filter.CommitteeID)
	}
	if filter.ActiveOnly {
		query = query.Where("status = ?", committee.TermStatusActive)
	}

	var rows []model.ServiceTerm
	if err := query.Order("term_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query service terms")
	}

	items := make([]committee.ServiceTerm, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapTermFromRow(row))
	}
	return items, nil
}

func mapTermToRow(term committee.ServiceTerm) model.ServiceTerm {
	return model.ServiceTerm{
		TermID:        term.ID,
		CommitteeID:   term.CommitteeID,
		ContributorID: term.ContributorID,
		StartDate:     formatTime(term.StartDate),
		EndDate:       formatTimePtr(term.EndDate),
		DurationDays:  term.DurationDays,
		Status:        term.Status,
	}
}

func mapTermFromRow(row model.ServiceTerm) committee.ServiceTerm {
	return committee.ServiceTerm{
		ID:            row.TermID,
		CommitteeID:   row.CommitteeID,
		ContributorID: row.ContributorID,
		StartDate:     parseTime(row.StartDate),
		EndDate:       parseTimePtr(row.EndDate),
		DurationDays:  row.DurationDays,
		Status:        row.Status,
	}
}

func (r *GovernanceRepository) SaveSelection(ctx context.Context, selection ports.CommitteeSelection) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	resultJSON, err := json.Marshal(selection.Result)
	if err != nil {
		return errs.Wrap(err, "marshal lottery result")
	}
	eligibleJSON, err := json.Marshal(selection.Eligible)
	if err != nil {
		return errs.Wrap(err, "marshal eligible snapshot")
	}

	row := model.CommitteeSelection{
		SelectionID:  selection.ID,
		CommitteeID:  selection.CommitteeID,
		TeamID:       selection.TeamID,
		ResultJSON:   string(resultJSON),
		EligibleJSON: string(eligibleJSON),
		CreatedAt:    formatTime(selection.CreatedAt),
		CreatedBy:    selection.CreatedBy,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert committee selection")
	}
	return nil
}

func (r *GovernanceRepository) GetSelection(ctx context.Context, id string) (ports.CommitteeSelection, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.CommitteeSelection{}, err
	}

	var row model.CommitteeSelection
	if err := db.Where("selection_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CommitteeSelection{}, ports.ErrSelectionNotFound
		}
		return ports.CommitteeSelection{}, errs.Wrap(err, "query committee selection")
	}

	selection := ports.CommitteeSelection{
		ID:          row.SelectionID,
		CommitteeID: row.CommitteeID,
		TeamID:      row.TeamID,
		CreatedAt:   parseTime(row.CreatedAt),
		CreatedBy:   row.CreatedBy,
	}
	if err := json.Unmarshal([]byte(row.ResultJSON), &selection.Result); err != nil {
		return ports.CommitteeSelection{}, errs.Wrap(err, "unmarshal lottery result")
	}
	if err := json.Unmarshal([]byte(row.EligibleJSON), &selection.Eligible); err != nil {
		return ports.CommitteeSelection{}, errs.Wrap(err, "unmarshal eligible snapshot")
	}
	return selection, nil
}
