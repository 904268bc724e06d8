package governance

import (
	"strings"
	"time"

	"cookledger/internal/errs"
)

const (
	ProposalTypeOrdinary       = "ordinary"
	ProposalTypeConstitutional = "constitutional"
)

// Proposal statuses. Approved, rejected and withdrawn are terminal.
const (
	StatusDraft                 = "draft"
	StatusObjectionWindowOpen   = "objection_window_open"
	StatusObjectionWindowClosed = "objection_window_closed"
	StatusVotingTriggered       = "voting_triggered"
	StatusApproved              = "approved"
	StatusRejected              = "rejected"
	StatusWithdrawn             = "withdrawn"
)

// Objection is one raised objection, optionally weighted by the objector's
// governance weight at the time it was raised.
type Objection struct {
	ContributorID string
	Reason        string
	Weight        float64
	RaisedAt      time.Time
}

type Proposal struct {
	ID          string
	TeamID      string
	Type        string
	Title       string
	Description string

	// Constitutional proposals name the rule they amend.
	RuleName   string
	ChangeType string

	Status         string
	ProposedBy     string
	CreatedAt      time.Time
	WindowOpensAt  *time.Time
	WindowClosesAt *time.Time
	Objections     []Objection
	VotingID       string
	DecidedAt      *time.Time
}

func (p Proposal) Terminal() bool {
	switch p.Status {
	case StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

func (p Proposal) Constitutional() bool { return p.Type == ProposalTypeConstitutional }

func (p Proposal) ObjectionCount() int { return len(p.Objections) }

func (p Proposal) WeightedObjectionCount() float64 {
	sum := 0.0
	for _, objection := range p.Objections {
		sum += objection.Weight
	}
	return sum
}

func ValidateProposal(p Proposal) error {
	if strings.TrimSpace(p.TeamID) == "" {
		return errs.Validationf("proposal team id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return errs.Validationf("proposal title is required")
	}
	switch p.Type {
	case ProposalTypeOrdinary:
	case ProposalTypeConstitutional:
		if strings.TrimSpace(p.RuleName) == "" {
			return errs.Validationf("constitutional proposal requires a rule name")
		}
	default:
		return errs.Validationf("unknown proposal type %q", p.Type)
	}
	return nil
}

// OpenObjectionWindow moves a draft proposal into its objection window,
// stamping open and close times from the configured length.
func (p *Proposal) OpenObjectionWindow(length time.Duration, now time.Time) error {
	if p.Status != StatusDraft {
		return errs.StateConflictf("cannot open objection window from status %s", p.Status)
	}
	if length <= 0 {
		return errs.Validationf("objection window length must be positive, got %s", length)
	}

	closes := now.Add(length)
	p.Status = StatusObjectionWindowOpen
	p.WindowOpensAt = &now
	p.WindowClosesAt = &closes
	return nil
}

// AddObjection appends an objection while the window is open.
func (p *Proposal) AddObjection(objection Objection, now time.Time) error {
	if p.Status != StatusObjectionWindowOpen {
		return errs.StateConflictf("cannot object to proposal in status %s", p.Status)
	}
	if p.WindowClosesAt != nil && now.After(*p.WindowClosesAt) {
		return errs.StateConflictf("objection window closed at %s", p.WindowClosesAt.Format(time.RFC3339))
	}
	if strings.TrimSpace(objection.ContributorID) == "" {
		return errs.Validationf("objection contributor id is required")
	}
	if objection.Weight < 0 {
		return errs.Validationf("objection weight must not be negative, got %v", objection.Weight)
	}

	objection.RaisedAt = now
	p.Objections = append(p.Objections, objection)
	return nil
}

// ThresholdExceeded reports whether the objection count or the weighted
// objection count exceeds the configured threshold.
func (p Proposal) ThresholdExceeded(threshold float64) bool {
	return float64(p.ObjectionCount()) > threshold || p.WeightedObjectionCount() > threshold
}

// TriggerVoting flips the proposal to voting exactly once. Re-evaluating
// after the threshold was already exceeded must not re-trigger; callers see
// a state conflict and treat it as "already triggered".
func (p *Proposal) TriggerVoting(votingID string) error {
	if p.Status == StatusVotingTriggered {
		return errs.StateConflictf("voting already triggered for proposal %s", p.ID)
	}
	if p.Status != StatusObjectionWindowOpen {
		return errs.StateConflictf("cannot trigger voting from status %s", p.Status)
	}
	if strings.TrimSpace(votingID) == "" {
		return errs.Validationf("voting id is required")
	}

	p.Status = StatusVotingTriggered
	p.VotingID = votingID
	return nil
}

// CloseObjectionWindow closes an un-triggered window and auto-approves the
// proposal: an objection window that passes without exceeding the threshold
// is consent.
func (p *Proposal) CloseObjectionWindow(now time.Time) error {
	if p.Status != StatusObjectionWindowOpen {
		return errs.StateConflictf("cannot close objection window from status %s", p.Status)
	}

	p.Status = StatusObjectionWindowClosed
	return p.Approve(now)
}

func (p *Proposal) Approve(now time.Time) error {
	if p.Status != StatusObjectionWindowClosed && p.Status != StatusVotingTriggered {
		return errs.StateConflictf("cannot approve proposal from status %s", p.Status)
	}
	p.Status = StatusApproved
	p.DecidedAt = &now
	return nil
}

func (p *Proposal) Reject(now time.Time) error {
	if p.Status != StatusVotingTriggered {
		return errs.StateConflictf("cannot reject proposal from status %s", p.Status)
	}
	p.Status = StatusRejected
	p.DecidedAt = &now
	return nil
}

func (p *Proposal) Withdraw(now time.Time) error {
	if p.Terminal() {
		return errs.StateConflictf("cannot withdraw proposal in terminal status %s", p.Status)
	}
	p.Status = StatusWithdrawn
	p.DecidedAt = &now
	return nil
}
