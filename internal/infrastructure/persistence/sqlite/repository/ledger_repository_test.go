package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/infrastructure/persistence/sqlite/model"
	"cookledger/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "governance.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&model.ContributionEntry{},
		&model.TeamConfig{},
		&model.EquityRecord{},
		&model.GovernanceWeightRecord{},
		&model.ServiceTerm{},
		&model.Proposal{},
		&model.Voting{},
		&model.ConstitutionalChange{},
		&model.CommitteeSelection{},
		&model.AuditEntry{},
		&model.RecomputeTask{},
		&model.GovernanceKV{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestAppendAndListEntries(t *testing.T) {
	repo := NewLedgerRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, spec := range []struct {
		id          string
		contributor string
		value       float64
	}{
		{"e1", "alice", 40},
		{"e2", "bob", 25},
		{"e3", "alice", 10},
	} {
		entry := ledger.Entry{
			ID:            spec.id,
			TaskID:        "task-" + spec.id,
			TeamID:        "team-alpha",
			ContributorID: spec.contributor,
			Value:         spec.value,
			Attribution:   ledger.AttributionSelf,
			IssuedAt:      base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := repo.AppendEntry(ctx, entry); err != nil {
			t.Fatalf("AppendEntry(%s) error = %v", spec.id, err)
		}
	}

	entries, err := repo.ListTeamEntries(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListTeamEntries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ListTeamEntries() len = %d", len(entries))
	}
	if entries[0].ID != "e1" || entries[2].ID != "e3" {
		t.Fatalf("ListTeamEntries() order = %q, %q, %q", entries[0].ID, entries[1].ID, entries[2].ID)
	}
	if !entries[0].IssuedAt.Equal(base) {
		t.Fatalf("IssuedAt round trip = %v", entries[0].IssuedAt)
	}

	alice, err := repo.ListContributorEntries(ctx, "team-alpha", "alice")
	if err != nil {
		t.Fatalf("ListContributorEntries() error = %v", err)
	}
	if len(alice) != 2 {
		t.Fatalf("ListContributorEntries() len = %d", len(alice))
	}

	contributors, err := repo.ListTeamContributors(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListTeamContributors() error = %v", err)
	}
	if len(contributors) != 2 || contributors[0] != "alice" || contributors[1] != "bob" {
		t.Fatalf("ListTeamContributors() = %v", contributors)
	}
}

func TestTeamConfigUpsert(t *testing.T) {
	repo := NewConfigRepository(setupDB(t))
	ctx := context.Background()

	if _, err := repo.GetTeamConfig(ctx, "team-alpha"); !errors.Is(err, ports.ErrTeamConfigNotFound) {
		t.Fatalf("GetTeamConfig() error = %v, want not found", err)
	}

	cap := 100.0
	rate := 0.05
	threshold := 2.0
	cfg := ports.TeamConfig{
		TeamID:                  "team-alpha",
		Cap:                     &cap,
		DecayRate:               &rate,
		EquityModel:             "proportional",
		EligibilityWindowMonths: 3,
		ObjectionWindowDays:     7,
		ObjectionThreshold:      &threshold,
		VotingPeriodDays:        7,
		ApprovalThreshold:       50,
	}
	if err := repo.SaveTeamConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveTeamConfig() error = %v", err)
	}

	got, err := repo.GetTeamConfig(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("GetTeamConfig() error = %v", err)
	}
	if got.Cap == nil || *got.Cap != 100 {
		t.Fatalf("GetTeamConfig() cap = %v", got.Cap)
	}
	if got.EquityModel != "proportional" {
		t.Fatalf("GetTeamConfig() model = %q", got.EquityModel)
	}
	if got.ObjectionThreshold == nil || *got.ObjectionThreshold != 2 {
		t.Fatalf("GetTeamConfig() objection threshold = %v", got.ObjectionThreshold)
	}
	if got.CoolingOffDays != nil {
		t.Fatalf("GetTeamConfig() cooling-off days = %v, want nil", *got.CoolingOffDays)
	}

	cfg.EquityModel = "slicing"
	cfg.Cap = nil
	if err := repo.SaveTeamConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveTeamConfig(update) error = %v", err)
	}
	got, err = repo.GetTeamConfig(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("GetTeamConfig() after update error = %v", err)
	}
	if got.EquityModel != "slicing" {
		t.Fatalf("GetTeamConfig() model after update = %q", got.EquityModel)
	}
	if got.Cap != nil {
		t.Fatalf("GetTeamConfig() cap after update = %v, want nil", *got.Cap)
	}
}
