package governance

import (
	"errors"
	"testing"
	"time"

	"cookledger/internal/errs"
)

func draftProposal() Proposal {
	return Proposal{
		ID:         "p1",
		TeamID:     "team-a",
		Type:       ProposalTypeOrdinary,
		Title:      "adjust sprint cadence",
		Status:     StatusDraft,
		ProposedBy: "alice",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestOpenObjectionWindowStampsTimes(t *testing.T) {
	p := draftProposal()
	now := time.Now().UTC()

	if err := p.OpenObjectionWindow(7*24*time.Hour, now); err != nil {
		t.Fatalf("OpenObjectionWindow() error = %v", err)
	}
	if p.Status != StatusObjectionWindowOpen {
		t.Fatalf("status = %s, want %s", p.Status, StatusObjectionWindowOpen)
	}
	if p.WindowOpensAt == nil || !p.WindowOpensAt.Equal(now) {
		t.Fatalf("opens at = %v, want %v", p.WindowOpensAt, now)
	}
	if p.WindowClosesAt == nil || !p.WindowClosesAt.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("closes at = %v, want +7d", p.WindowClosesAt)
	}

	if err := p.OpenObjectionWindow(7*24*time.Hour, now); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("reopen error = %v, want state conflict", err)
	}
}

func TestThresholdTriggersExactlyOnce(t *testing.T) {
	p := draftProposal()
	now := time.Now().UTC()
	if err := p.OpenObjectionWindow(7*24*time.Hour, now); err != nil {
		t.Fatalf("OpenObjectionWindow() error = %v", err)
	}

	threshold := 2.0
	for i, who := range []string{"bob", "carol", "dave"} {
		err := p.AddObjection(Objection{ContributorID: who, Reason: "concern"}, now)
		if err != nil {
			t.Fatalf("AddObjection(%d) error = %v", i, err)
		}
	}

	if !p.ThresholdExceeded(threshold) {
		t.Fatalf("3 objections should exceed threshold %v", threshold)
	}

	if err := p.TriggerVoting("v1"); err != nil {
		t.Fatalf("TriggerVoting() error = %v", err)
	}
	if p.Status != StatusVotingTriggered || p.VotingID != "v1" {
		t.Fatalf("proposal = %+v, want voting triggered with v1", p)
	}

	// Re-checking after the flip must not re-trigger.
	for i := 0; i < 3; i++ {
		if err := p.TriggerVoting("v2"); !errors.Is(err, errs.ErrStateConflict) {
			t.Fatalf("re-trigger error = %v, want state conflict", err)
		}
	}
	if p.VotingID != "v1" {
		t.Fatalf("voting id = %s, re-trigger overwrote it", p.VotingID)
	}
}

func TestWeightedObjectionThreshold(t *testing.T) {
	p := draftProposal()
	now := time.Now().UTC()
	if err := p.OpenObjectionWindow(time.Hour, now); err != nil {
		t.Fatalf("OpenObjectionWindow() error = %v", err)
	}

	if err := p.AddObjection(Objection{ContributorID: "bob", Weight: 55.5}, now); err != nil {
		t.Fatalf("AddObjection() error = %v", err)
	}

	if !p.ThresholdExceeded(50) {
		t.Fatal("weighted count 55.5 should exceed threshold 50")
	}
	if p.ThresholdExceeded(60) {
		t.Fatal("single objection of weight 55.5 should not exceed threshold 60")
	}
}

func TestCloseObjectionWindowAutoApproves(t *testing.T) {
	p := draftProposal()
	now := time.Now().UTC()
	if err := p.OpenObjectionWindow(time.Hour, now); err != nil {
		t.Fatalf("OpenObjectionWindow() error = %v", err)
	}

	if err := p.CloseObjectionWindow(now.Add(2 * time.Hour)); err != nil {
		t.Fatalf("CloseObjectionWindow() error = %v", err)
	}
	if p.Status != StatusApproved {
		t.Fatalf("status = %s, want auto-approved", p.Status)
	}
}

func TestAddObjectionAfterWindowClosed(t *testing.T) {
	p := draftProposal()
	now := time.Now().UTC()
	if err := p.OpenObjectionWindow(time.Hour, now); err != nil {
		t.Fatalf("OpenObjectionWindow() error = %v", err)
	}

	err := p.AddObjection(Objection{ContributorID: "bob"}, now.Add(2*time.Hour))
	if !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("late objection error = %v, want state conflict", err)
	}
}

func TestWithdrawFromTerminalStatus(t *testing.T) {
	p := draftProposal()
	now := time.Now().UTC()

	if err := p.Withdraw(now); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	if p.Status != StatusWithdrawn {
		t.Fatalf("status = %s, want withdrawn", p.Status)
	}
	if err := p.Withdraw(now); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("double withdraw error = %v, want state conflict", err)
	}
}

func TestValidateProposal(t *testing.T) {
	good := draftProposal()
	if err := ValidateProposal(good); err != nil {
		t.Fatalf("ValidateProposal() error = %v", err)
	}

	constitutional := good
	constitutional.Type = ProposalTypeConstitutional
	if err := ValidateProposal(constitutional); err == nil {
		t.Fatal("constitutional proposal without rule name accepted")
	}
	constitutional.RuleName = "quorum"
	if err := ValidateProposal(constitutional); err != nil {
		t.Fatalf("ValidateProposal() error = %v", err)
	}

	unknown := good
	unknown.Type = "emergency"
	if err := ValidateProposal(unknown); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown type error = %v, want validation", err)
	}
}
