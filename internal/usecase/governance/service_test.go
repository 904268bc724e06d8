package governance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "cookledger/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "cookledger/internal/infrastructure/persistence/sqlite/uow"
	"cookledger/internal/ports"
)

type testCache struct {
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{
		data: make(map[string]string),
	}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

// testClock lets a test move the service clock forward across windows and
// voting periods.
type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time { return c.current }

func (c *testClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func setupService(t *testing.T) (*Service, *testCache, *testClock) {
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

	cache := newTestCache()
	clock := &testClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewService(
		sqliterepo.NewLedgerRepository(db),
		sqliterepo.NewConfigRepository(db),
		sqliterepo.NewGovernanceRepository(db),
		sqliterepo.NewAuditRepository(db),
		sqliterepo.NewRecomputeQueue(db),
		sqliteuow.NewUnitOfWork(db),
		cache,
		Defaults{},
	)
	svc.now = clock.now
	return svc, cache, clock
}

// seedEntry appends one ledger entry at a fixed age relative to the clock.
func seedEntry(t *testing.T, svc *Service, clock *testClock, teamID, contributorID string, value float64, age time.Duration) {
	t.Helper()

	saved := clock.current
	clock.current = saved.Add(-age)
	if _, err := svc.AppendEntry(context.Background(), AppendEntryInput{
		TaskID:        "task-seed",
		TeamID:        teamID,
		ContributorID: contributorID,
		Value:         value,
	}); err != nil {
		t.Fatalf("AppendEntry(%s) error = %v", contributorID, err)
	}
	clock.current = saved
}

func TestAppendEntryPersistsAndQueuesRecompute(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	entry, err := svc.AppendEntry(ctx, AppendEntryInput{
		TaskID:        "task-1",
		TeamID:        "team-alpha",
		ContributorID: "alice",
		Value:         40,
	})
	if err != nil {
		t.Fatalf("AppendEntry() error = %v", err)
	}
	if entry.ID == "" {
		t.Fatalf("AppendEntry() id is empty")
	}
	if entry.Attribution != ledger.AttributionSelf {
		t.Fatalf("AppendEntry() attribution = %q", entry.Attribution)
	}

	entries, err := svc.ListTeamEntries(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListTeamEntries() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ListTeamEntries() len = %d", len(entries))
	}

	tasks, err := svc.queue.DequeuePending(ctx, 10)
	if err != nil {
		t.Fatalf("DequeuePending() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("DequeuePending() len = %d, want weight and equity stages", len(tasks))
	}
	if tasks[0].Stage != ports.RecomputeStageWeight || tasks[1].Stage != ports.RecomputeStageEquity {
		t.Fatalf("stages = %q, %q", tasks[0].Stage, tasks[1].Stage)
	}

	audits, err := svc.ListAuditByEntity(ctx, entry.ID, 10)
	if err != nil {
		t.Fatalf("ListAuditByEntity() error = %v", err)
	}
	if len(audits) != 1 || audits[0].ActionType != "entry_appended" {
		t.Fatalf("audit trail = %+v", audits)
	}
}

func TestAppendEntryRejectsNonPositiveValue(t *testing.T) {
	svc, _, _ := setupService(t)

	if _, err := svc.AppendEntry(context.Background(), AppendEntryInput{
		TaskID:        "task-1",
		TeamID:        "team-alpha",
		ContributorID: "alice",
		Value:         0,
	}); err == nil {
		t.Fatalf("AppendEntry() expected error for zero value")
	}
}

func TestRecomputeTeamEquitySumsToHundred(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	seedEntry(t, svc, clock, "team-alpha", "alice", 60, 0)
	seedEntry(t, svc, clock, "team-alpha", "bob", 40, 0)

	shares, err := svc.RecomputeTeamEquity(ctx, "team-alpha", "")
	if err != nil {
		t.Fatalf("RecomputeTeamEquity() error = %v", err)
	}

	sum := 0.0
	for _, share := range shares {
		sum += share.Percent
	}
	if sum < 99.999999 || sum > 100.000001 {
		t.Fatalf("equity sum = %v", sum)
	}

	records, err := svc.ListEquity(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListEquity() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListEquity() len = %d", len(records))
	}
	if records[0].ContributorID != "alice" || records[0].Percent != 60 {
		t.Fatalf("alice record = %+v", records[0])
	}
	if records[0].Model != "proportional" {
		t.Fatalf("model = %q", records[0].Model)
	}
}

func TestRecomputeTeamEquityNoEntries(t *testing.T) {
	svc, _, _ := setupService(t)

	if _, err := svc.RecomputeTeamEquity(context.Background(), "team-empty", ""); err == nil {
		t.Fatalf("RecomputeTeamEquity() expected error for empty team")
	}
}

func TestRecomputeGovernanceWeightAppliesCapAndDecay(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	cap := 50.0
	rate := 0.05
	if err := svc.SaveTeamConfig(ctx, ports.TeamConfig{
		TeamID:    "team-alpha",
		Cap:       &cap,
		DecayRate: &rate,
	}); err != nil {
		t.Fatalf("SaveTeamConfig() error = %v", err)
	}

	// 100 issued ~12 months ago decays to ~54.88 and then caps at 50.
	seedEntry(t, svc, clock, "team-alpha", "alice", 100, 365*24*time.Hour)

	record, err := svc.RecomputeGovernanceWeight(ctx, "team-alpha", "alice")
	if err != nil {
		t.Fatalf("RecomputeGovernanceWeight() error = %v", err)
	}
	if record.Weight != 50 {
		t.Fatalf("weight = %v, want capped 50", record.Weight)
	}
	if !record.CapApplied || !record.DecayApplied {
		t.Fatalf("flags = cap %t decay %t", record.CapApplied, record.DecayApplied)
	}
	if record.RawValue != 100 {
		t.Fatalf("raw = %v", record.RawValue)
	}

	stored, err := svc.ListWeights(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListWeights() error = %v", err)
	}
	if len(stored) != 1 || stored[0].Weight != 50 {
		t.Fatalf("stored weights = %+v", stored)
	}
}

func TestGetEligibleMembersThreshold(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	// alice active inside the window, bob only outside it, carol active.
	seedEntry(t, svc, clock, "team-alpha", "alice", 100, 30*24*time.Hour)
	seedEntry(t, svc, clock, "team-alpha", "bob", 80, 200*24*time.Hour)
	seedEntry(t, svc, clock, "team-alpha", "carol", 50, 10*24*time.Hour)

	results, err := svc.GetEligibleMembers(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("GetEligibleMembers() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results len = %d, every contributor must be reported", len(results))
	}

	byID := make(map[string]bool, len(results))
	for _, r := range results {
		byID[r.ContributorID] = r.Eligible
	}
	if !byID["alice"] || !byID["carol"] {
		t.Fatalf("alice/carol eligibility = %v", byID)
	}
	if byID["bob"] {
		t.Fatalf("bob must be ineligible with no activity inside the window")
	}
}

func TestRunRecomputeWorkerDrainsQueue(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	seedEntry(t, svc, clock, "team-alpha", "alice", 60, 0)
	seedEntry(t, svc, clock, "team-alpha", "bob", 40, 0)

	done, err := svc.RunRecomputeWorker(ctx, 50)
	if err != nil {
		t.Fatalf("RunRecomputeWorker() error = %v", err)
	}
	if done != 4 {
		t.Fatalf("done = %d, want 4 (2 entries x 2 stages)", done)
	}

	weights, err := svc.ListWeights(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListWeights() error = %v", err)
	}
	if len(weights) != 2 {
		t.Fatalf("weights len = %d", len(weights))
	}
	equityRecords, err := svc.ListEquity(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListEquity() error = %v", err)
	}
	if len(equityRecords) != 2 {
		t.Fatalf("equity len = %d", len(equityRecords))
	}

	remaining, err := svc.queue.DequeuePending(ctx, 10)
	if err != nil {
		t.Fatalf("DequeuePending() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining tasks = %d", len(remaining))
	}
}

func TestFailedRecomputeTaskRetriedUntilAttemptsExhausted(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	// An equity task for a team without entries fails on every attempt.
	if err := svc.queue.Enqueue(ctx, ports.RecomputeTask{
		TeamID:     "team-empty",
		Stage:      ports.RecomputeStageEquity,
		EnqueuedAt: clock.current,
	}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	for attempt := 1; attempt < ports.RecomputeMaxAttempts; attempt++ {
		done, err := svc.RunRecomputeWorker(ctx, 10)
		if err != nil {
			t.Fatalf("RunRecomputeWorker() attempt %d error = %v", attempt, err)
		}
		if done != 0 {
			t.Fatalf("attempt %d done = %d", attempt, done)
		}

		pending, err := svc.queue.DequeuePending(ctx, 10)
		if err != nil {
			t.Fatalf("DequeuePending() error = %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("attempt %d: pending = %d, failed task must stay queued", attempt, len(pending))
		}
		if pending[0].Attempts != attempt {
			t.Fatalf("attempt %d: recorded attempts = %d", attempt, pending[0].Attempts)
		}
		if pending[0].LastError == "" {
			t.Fatalf("attempt %d: last error is empty", attempt)
		}
	}

	// The final attempt parks the task; it is never dequeued again.
	if _, err := svc.RunRecomputeWorker(ctx, 10); err != nil {
		t.Fatalf("RunRecomputeWorker() final error = %v", err)
	}
	parked, err := svc.queue.DequeuePending(ctx, 10)
	if err != nil {
		t.Fatalf("DequeuePending() error = %v", err)
	}
	if len(parked) != 0 {
		t.Fatalf("parked task redelivered: %+v", parked)
	}
}

func TestGetRecomputeStampsServedFromCache(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	stamps, err := svc.GetRecomputeStamps(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("GetRecomputeStamps() error = %v", err)
	}
	if !stamps.WeightsAt.IsZero() || !stamps.EquityAt.IsZero() {
		t.Fatalf("stamps before any recompute = %+v", stamps)
	}

	seedEntry(t, svc, clock, "team-alpha", "alice", 60, 0)
	if _, err := svc.RecomputeTeamWeights(ctx, "team-alpha"); err != nil {
		t.Fatalf("RecomputeTeamWeights() error = %v", err)
	}
	if _, err := svc.RecomputeTeamEquity(ctx, "team-alpha", ""); err != nil {
		t.Fatalf("RecomputeTeamEquity() error = %v", err)
	}

	stamps, err = svc.GetRecomputeStamps(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("GetRecomputeStamps() error = %v", err)
	}
	if !stamps.WeightsAt.Equal(clock.current) {
		t.Fatalf("weights stamp = %v, want %v", stamps.WeightsAt, clock.current)
	}
	if !stamps.EquityAt.Equal(clock.current) {
		t.Fatalf("equity stamp = %v, want %v", stamps.EquityAt, clock.current)
	}
}
