package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cookledger/internal/domain/committee"
	"cookledger/internal/domain/governance"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

func TestEquityAndWeightUpserts(t *testing.T) {
	repo := NewGovernanceRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	records := []ports.EquityRecord{
		{TeamID: "team-alpha", ContributorID: "alice", Percent: 60, EffectiveValue: 60, TotalTeamEffectiveValue: 100, Model: "proportional", LastUpdated: now},
		{TeamID: "team-alpha", ContributorID: "bob", Percent: 40, EffectiveValue: 40, TotalTeamEffectiveValue: 100, Model: "proportional", LastUpdated: now},
	}
	if err := repo.UpsertEquityRecords(ctx, records); err != nil {
		t.Fatalf("UpsertEquityRecords() error = %v", err)
	}

	records[0].Percent = 55
	records[1].Percent = 45
	if err := repo.UpsertEquityRecords(ctx, records); err != nil {
		t.Fatalf("UpsertEquityRecords(update) error = %v", err)
	}

	got, err := repo.ListEquityRecords(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListEquityRecords() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListEquityRecords() len = %d", len(got))
	}
	if got[0].ContributorID != "alice" || got[0].Percent != 55 {
		t.Fatalf("ListEquityRecords()[0] = %+v", got[0])
	}

	if _, err := repo.GetWeightRecord(ctx, "team-alpha", "alice"); !errors.Is(err, ports.ErrWeightRecordNotFound) {
		t.Fatalf("GetWeightRecord() error = %v, want not found", err)
	}
	weight := ports.WeightRecord{
		TeamID: "team-alpha", ContributorID: "alice",
		Weight: 60, RawValue: 80, EffectiveValue: 60,
		CapApplied: true, DecayApplied: true, LastUpdated: now,
	}
	if err := repo.UpsertWeightRecord(ctx, weight); err != nil {
		t.Fatalf("UpsertWeightRecord() error = %v", err)
	}
	weight.Weight = 58
	if err := repo.UpsertWeightRecord(ctx, weight); err != nil {
		t.Fatalf("UpsertWeightRecord(update) error = %v", err)
	}
	gotWeight, err := repo.GetWeightRecord(ctx, "team-alpha", "alice")
	if err != nil {
		t.Fatalf("GetWeightRecord() error = %v", err)
	}
	if gotWeight.Weight != 58 || !gotWeight.CapApplied {
		t.Fatalf("GetWeightRecord() = %+v", gotWeight)
	}
}

func TestServiceTermLifecycle(t *testing.T) {
	repo := NewGovernanceRepository(setupDB(t))
	ctx := context.Background()
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	term := committee.ServiceTerm{
		ID:            "term-1",
		CommitteeID:   "audit-committee",
		ContributorID: "alice",
		StartDate:     start,
		Status:        committee.TermStatusActive,
	}
	if err := repo.CreateServiceTerm(ctx, term); err != nil {
		t.Fatalf("CreateServiceTerm() error = %v", err)
	}

	active, err := repo.ListServiceTerms(ctx, ports.ServiceTermFilter{ContributorID: "alice", ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListServiceTerms() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != "term-1" {
		t.Fatalf("ListServiceTerms() = %+v", active)
	}

	end := start.AddDate(0, 2, 0)
	if err := term.End(end, false); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := repo.SaveServiceTerm(ctx, term); err != nil {
		t.Fatalf("SaveServiceTerm() error = %v", err)
	}

	got, err := repo.GetServiceTerm(ctx, "term-1")
	if err != nil {
		t.Fatalf("GetServiceTerm() error = %v", err)
	}
	if got.Status != committee.TermStatusCompleted {
		t.Fatalf("GetServiceTerm() status = %q", got.Status)
	}
	if got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Fatalf("GetServiceTerm() end = %v", got.EndDate)
	}
	if got.DurationDays != 59 {
		t.Fatalf("GetServiceTerm() duration = %d", got.DurationDays)
	}

	if err := repo.SaveServiceTerm(ctx, committee.ServiceTerm{ID: "missing"}); !errors.Is(err, ports.ErrServiceTermNotFound) {
		t.Fatalf("SaveServiceTerm(missing) error = %v", err)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	repo := NewGovernanceRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	pool := []committee.PoolMember{
		{ContributorID: "alice", Weight: 60},
		{ContributorID: "bob", Weight: 40},
	}
	result, err := committee.SelectMembers(pool, 1, "audit-2026-q1", now)
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}

	selection := ports.CommitteeSelection{
		ID:          "sel-1",
		CommitteeID: "audit-committee",
		TeamID:      "team-alpha",
		Result:      result,
		Eligible: []committee.EligibilityResult{
			{ContributorID: "alice", Eligible: true, ActiveValue: 80, WindowMonths: 3},
			{ContributorID: "bob", Eligible: true, ActiveValue: 50, WindowMonths: 3},
		},
		CreatedAt: now,
		CreatedBy: "alice",
	}
	if err := repo.SaveSelection(ctx, selection); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}

	got, err := repo.GetSelection(ctx, "sel-1")
	if err != nil {
		t.Fatalf("GetSelection() error = %v", err)
	}
	if got.Result.Seed != "audit-2026-q1" || len(got.Result.Selected) != 1 {
		t.Fatalf("GetSelection() result = %+v", got.Result)
	}
	if err := committee.VerifyResult(got.Result, pool); err != nil {
		t.Fatalf("VerifyResult() after round trip = %v", err)
	}
	if len(got.Eligible) != 2 || got.Eligible[1].ContributorID != "bob" {
		t.Fatalf("GetSelection() eligible = %+v", got.Eligible)
	}

	if _, err := repo.GetSelection(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("GetSelection(missing) error = %v", err)
	}
}

func TestProposalPersistence(t *testing.T) {
	repo := NewGovernanceRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	proposal := governance.Proposal{
		ID:         "prop-1",
		TeamID:     "team-alpha",
		Type:       governance.ProposalTypeOrdinary,
		Title:      "raise cap",
		ProposedBy: "alice",
		Status:     governance.StatusDraft,
		CreatedAt:  now,
	}
	if err := repo.CreateProposal(ctx, proposal); err != nil {
		t.Fatalf("CreateProposal() error = %v", err)
	}

	if err := proposal.OpenObjectionWindow(7*24*time.Hour, now); err != nil {
		t.Fatalf("OpenObjectionWindow() error = %v", err)
	}
	if err := proposal.AddObjection(governance.Objection{
		ContributorID: "bob",
		Reason:        "too high",
		Weight:        12.5,
		RaisedAt:      now.Add(time.Hour),
	}, now.Add(time.Hour)); err != nil {
		t.Fatalf("AddObjection() error = %v", err)
	}
	if err := repo.SaveProposal(ctx, proposal); err != nil {
		t.Fatalf("SaveProposal() error = %v", err)
	}

	got, err := repo.GetProposal(ctx, "prop-1")
	if err != nil {
		t.Fatalf("GetProposal() error = %v", err)
	}
	if got.Status != governance.StatusObjectionWindowOpen {
		t.Fatalf("GetProposal() status = %q", got.Status)
	}
	if len(got.Objections) != 1 || got.Objections[0].Weight != 12.5 {
		t.Fatalf("GetProposal() objections = %+v", got.Objections)
	}
	if got.WindowClosesAt == nil || !got.WindowClosesAt.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("GetProposal() window closes = %v", got.WindowClosesAt)
	}

	all, err := repo.ListProposals(ctx, "team-alpha")
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ListProposals() len = %d", len(all))
	}

	if err := repo.SaveProposal(ctx, governance.Proposal{ID: "missing"}); !errors.Is(err, ports.ErrProposalNotFound) {
		t.Fatalf("SaveProposal(missing) error = %v", err)
	}
}

func TestVotingPersistence(t *testing.T) {
	repo := NewGovernanceRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	voting, err := governance.NewVoting("vote-1", "prop-1", []string{"approve", "reject"}, 7*24*time.Hour, now)
	if err != nil {
		t.Fatalf("NewVoting() error = %v", err)
	}
	if err := repo.CreateVoting(ctx, voting); err != nil {
		t.Fatalf("CreateVoting() error = %v", err)
	}

	if err := voting.Cast("alice", "approve", 60, now.Add(time.Hour)); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if err := voting.Cast("bob", "reject", 20, now.Add(time.Hour)); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if err := voting.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := voting.Tally(50); err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if err := repo.SaveVoting(ctx, voting); err != nil {
		t.Fatalf("SaveVoting() error = %v", err)
	}

	got, err := repo.GetVoting(ctx, "vote-1")
	if err != nil {
		t.Fatalf("GetVoting() error = %v", err)
	}
	if got.Winning != "approve" {
		t.Fatalf("GetVoting() winning = %q", got.Winning)
	}
	if len(got.Votes) != 2 || len(got.Results) != 2 {
		t.Fatalf("GetVoting() votes = %d, results = %d", len(got.Votes), len(got.Results))
	}
	if len(got.Options) != 2 || got.Options[0] != "approve" {
		t.Fatalf("GetVoting() options = %v", got.Options)
	}
}

func TestConstitutionalChangeVersionOrdering(t *testing.T) {
	repo := NewGovernanceRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	latest, err := repo.LatestConstitutionalChange(ctx, "objection_threshold")
	if err != nil {
		t.Fatalf("LatestConstitutionalChange() error = %v", err)
	}
	if latest != nil {
		t.Fatalf("LatestConstitutionalChange() = %+v, want nil for fresh rule", latest)
	}

	v1 := 1
	changes := []governance.ConstitutionalChange{
		{ID: "c1", RuleName: "objection_threshold", Version: 1, ChangeType: "modify", ApprovalPercentage: 70, AdoptedAt: now, AdoptedBy: "alice"},
		{ID: "c2", RuleName: "objection_threshold", Version: 2, PreviousVersion: &v1, ChangeType: "modify", ApprovalPercentage: 72, AdoptedAt: now.AddDate(0, 1, 0), AdoptedBy: "bob"},
	}
	for _, change := range changes {
		if err := repo.AppendConstitutionalChange(ctx, change); err != nil {
			t.Fatalf("AppendConstitutionalChange(%s) error = %v", change.ID, err)
		}
	}

	latest, err = repo.LatestConstitutionalChange(ctx, "objection_threshold")
	if err != nil {
		t.Fatalf("LatestConstitutionalChange() error = %v", err)
	}
	if latest == nil || latest.Version != 2 || latest.PreviousVersion == nil || *latest.PreviousVersion != 1 {
		t.Fatalf("LatestConstitutionalChange() = %+v", latest)
	}

	history, err := repo.ListConstitutionalChanges(ctx, "objection_threshold")
	if err != nil {
		t.Fatalf("ListConstitutionalChanges() error = %v", err)
	}
	if len(history) != 2 || history[0].Version != 1 || history[1].Version != 2 {
		t.Fatalf("ListConstitutionalChanges() = %+v", history)
	}

	dup := governance.ConstitutionalChange{ID: "c3", RuleName: "objection_threshold", Version: 2, AdoptedAt: now, AdoptedBy: "eve"}
	if err := repo.AppendConstitutionalChange(ctx, dup); err == nil {
		t.Fatalf("AppendConstitutionalChange(duplicate version) expected error")
	}
}
