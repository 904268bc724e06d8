package governance

import (
	"errors"
	"math"
	"testing"
	"time"

	"cookledger/internal/errs"
)

func openVoting(t *testing.T) Voting {
	t.Helper()
	voting, err := NewVoting("v1", "p1", []string{"adopt", "reject"}, 7*24*time.Hour, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewVoting() error = %v", err)
	}
	return voting
}

func TestCastAndTally(t *testing.T) {
	voting := openVoting(t)
	now := time.Now().UTC()

	votes := []struct {
		voter  string
		option string
		weight float64
	}{
		{"alice", "adopt", 60},
		{"bob", "adopt", 15},
		{"carol", "reject", 25},
	}
	for _, vote := range votes {
		if err := voting.Cast(vote.voter, vote.option, vote.weight, now); err != nil {
			t.Fatalf("Cast(%s) error = %v", vote.voter, err)
		}
	}

	if err := voting.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := voting.Tally(50); err != nil {
		t.Fatalf("Tally() error = %v", err)
	}

	if voting.Status != VotingStatusCompleted {
		t.Fatalf("status = %s, want completed", voting.Status)
	}
	if voting.Winning != "adopt" {
		t.Fatalf("winning = %q, want adopt at 75%%", voting.Winning)
	}

	byOption := make(map[string]OptionTally)
	for _, tally := range voting.Results {
		byOption[tally.Option] = tally
	}
	adopt := byOption["adopt"]
	if adopt.Count != 2 || adopt.WeightedCount != 75 {
		t.Fatalf("adopt tally = %+v, want count 2 weighted 75", adopt)
	}
	if math.Abs(adopt.Percent-75) > 1e-9 {
		t.Fatalf("adopt percent = %v, want 75", adopt.Percent)
	}
}

func TestTallyNoWinnerBelowThreshold(t *testing.T) {
	voting := openVoting(t)
	now := time.Now().UTC()

	if err := voting.Cast("alice", "adopt", 50, now); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if err := voting.Cast("bob", "reject", 50, now); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if err := voting.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := voting.Tally(66.67); err != nil {
		t.Fatalf("Tally() error = %v", err)
	}

	if voting.Winning != "" {
		t.Fatalf("winning = %q, want none under constitutional threshold", voting.Winning)
	}
}

func TestCastGuards(t *testing.T) {
	voting := openVoting(t)
	now := time.Now().UTC()

	if err := voting.Cast("alice", "adopt", 10, now); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if err := voting.Cast("alice", "reject", 10, now); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("re-vote error = %v, want state conflict", err)
	}
	if err := voting.Cast("bob", "abstain", 10, now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown option error = %v, want validation", err)
	}
	if err := voting.Cast("bob", "adopt", 10, voting.ClosesAt.Add(time.Hour)); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("late vote error = %v, want state conflict", err)
	}

	if err := voting.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := voting.Cast("bob", "adopt", 10, now); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("vote on closed voting error = %v, want state conflict", err)
	}
}

func TestTallyRequiresVotes(t *testing.T) {
	voting := openVoting(t)
	if err := voting.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := voting.Tally(50); !errors.Is(err, errs.ErrInsufficientData) {
		t.Fatalf("empty tally error = %v, want insufficient data", err)
	}
}

func TestNewVotingValidation(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewVoting("v1", "p1", []string{"only"}, time.Hour, now); err == nil {
		t.Fatal("single option accepted")
	}
	if _, err := NewVoting("v1", "p1", []string{"a", "a"}, time.Hour, now); err == nil {
		t.Fatal("duplicate options accepted")
	}
	if _, err := NewVoting("v1", "p1", []string{"a", "b"}, 0, now); err == nil {
		t.Fatal("zero period accepted")
	}
}

func TestConstitutionalVersioning(t *testing.T) {
	now := time.Now().UTC()
	proposal := Proposal{
		ID:       "p1",
		TeamID:   "team-a",
		Type:     ProposalTypeConstitutional,
		Title:    "raise quorum",
		RuleName: "quorum",
		Status:   StatusApproved,
	}

	first, err := NewConstitutionalChange("c1", proposal, nil, 70, "alice", now)
	if err != nil {
		t.Fatalf("NewConstitutionalChange() error = %v", err)
	}
	if first.Version != 1 || first.PreviousVersion != nil {
		t.Fatalf("first change = %+v, want version 1 with no previous", first)
	}

	second, err := NewConstitutionalChange("c2", proposal, &first, 72, "bob", now)
	if err != nil {
		t.Fatalf("NewConstitutionalChange() error = %v", err)
	}
	if second.Version != 2 || second.PreviousVersion == nil || *second.PreviousVersion != 1 {
		t.Fatalf("second change = %+v, want version 2 over 1", second)
	}

	third, err := NewConstitutionalChange("c3", proposal, &second, 75, "carol", now)
	if err != nil {
		t.Fatalf("NewConstitutionalChange() error = %v", err)
	}
	if third.Version != 3 {
		t.Fatalf("third version = %d, want 3", third.Version)
	}
}

func TestConstitutionalChangeGuards(t *testing.T) {
	now := time.Now().UTC()

	ordinary := Proposal{ID: "p1", Type: ProposalTypeOrdinary, Status: StatusApproved}
	if _, err := NewConstitutionalChange("c1", ordinary, nil, 70, "alice", now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("ordinary proposal error = %v, want validation", err)
	}

	pending := Proposal{ID: "p2", Type: ProposalTypeConstitutional, RuleName: "quorum", Status: StatusVotingTriggered}
	if _, err := NewConstitutionalChange("c1", pending, nil, 70, "alice", now); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("unapproved proposal error = %v, want state conflict", err)
	}

	approved := Proposal{ID: "p3", Type: ProposalTypeConstitutional, RuleName: "quorum", Status: StatusApproved}
	otherRule := ConstitutionalChange{RuleName: "cadence", Version: 4}
	if _, err := NewConstitutionalChange("c1", approved, &otherRule, 70, "alice", now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("cross-rule previous error = %v, want validation", err)
	}
}
