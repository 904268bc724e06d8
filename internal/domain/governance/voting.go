package governance

import (
	"strings"
	"time"

	"cookledger/internal/errs"
)

const (
	VotingStatusOpen      = "open"
	VotingStatusClosed    = "closed"
	VotingStatusTallying  = "tallying"
	VotingStatusCompleted = "completed"
)

// Vote is one cast ballot, weighted by the voter's governance weight at the
// moment of casting.
type Vote struct {
	VoterID string
	Option  string
	Weight  float64
	CastAt  time.Time
}

// OptionTally is the per-option result of a completed tally.
type OptionTally struct {
	Option        string
	Count         int
	WeightedCount float64
	Percent       float64
}

type Voting struct {
	ID         string
	ProposalID string
	Options    []string
	Status     string
	OpensAt    time.Time
	ClosesAt   time.Time
	Votes      []Vote
	Results    []OptionTally
	Winning    string
}

// NewVoting opens a voting over the given options for the configured
// period.
func NewVoting(id, proposalID string, options []string, period time.Duration, now time.Time) (Voting, error) {
	if strings.TrimSpace(id) == "" {
		return Voting{}, errs.Validationf("voting id is required")
	}
	if len(options) < 2 {
		return Voting{}, errs.Validationf("voting requires at least two options, got %d", len(options))
	}
	if period <= 0 {
		return Voting{}, errs.Validationf("voting period must be positive, got %s", period)
	}

	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		if strings.TrimSpace(option) == "" {
			return Voting{}, errs.Validationf("voting option must not be empty")
		}
		if _, dup := seen[option]; dup {
			return Voting{}, errs.Validationf("duplicate voting option %q", option)
		}
		seen[option] = struct{}{}
	}

	return Voting{
		ID:         id,
		ProposalID: proposalID,
		Options:    append([]string(nil), options...),
		Status:     VotingStatusOpen,
		OpensAt:    now,
		ClosesAt:   now.Add(period),
	}, nil
}

func (v Voting) hasOption(option string) bool {
	for _, candidate := range v.Options {
		if candidate == option {
			return true
		}
	}
	return false
}

// Cast records one ballot. One vote per voter; casting on anything but an
// open voting is a state conflict.
func (v *Voting) Cast(voterID, option string, weight float64, now time.Time) error {
	if v.Status != VotingStatusOpen {
		return errs.StateConflictf("cannot cast vote on voting in status %s", v.Status)
	}
	if now.After(v.ClosesAt) {
		return errs.StateConflictf("voting period ended at %s", v.ClosesAt.Format(time.RFC3339))
	}
	if strings.TrimSpace(voterID) == "" {
		return errs.Validationf("voter id is required")
	}
	if !v.hasOption(option) {
		return errs.Validationf("unknown voting option %q", option)
	}
	if weight < 0 {
		return errs.Validationf("vote weight must not be negative, got %v", weight)
	}
	for _, vote := range v.Votes {
		if vote.VoterID == voterID {
			return errs.StateConflictf("voter %s already voted", voterID)
		}
	}

	v.Votes = append(v.Votes, Vote{
		VoterID: voterID,
		Option:  option,
		Weight:  weight,
		CastAt:  now,
	})
	return nil
}

func (v *Voting) Close() error {
	if v.Status != VotingStatusOpen {
		return errs.StateConflictf("cannot close voting in status %s", v.Status)
	}
	v.Status = VotingStatusClosed
	return nil
}

// Tally computes per-option counts, weighted counts and percentages of the
// total weighted votes cast, then completes the voting. The winning option
// is the one whose weighted percentage exceeds approvalThreshold (0..100);
// no option exceeding it means no winner.
func (v *Voting) Tally(approvalThreshold float64) error {
	if v.Status != VotingStatusClosed {
		return errs.StateConflictf("cannot tally voting in status %s", v.Status)
	}
	if approvalThreshold <= 0 || approvalThreshold > 100 {
		return errs.Validationf("approval threshold must be within (0,100], got %v", approvalThreshold)
	}
	if len(v.Votes) == 0 {
		return errs.InsufficientDataf("no votes cast on voting %s", v.ID)
	}

	v.Status = VotingStatusTallying

	totalWeighted := 0.0
	for _, vote := range v.Votes {
		totalWeighted += vote.Weight
	}

	v.Results = make([]OptionTally, 0, len(v.Options))
	v.Winning = ""
	for _, option := range v.Options {
		tally := OptionTally{Option: option}
		for _, vote := range v.Votes {
			if vote.Option != option {
				continue
			}
			tally.Count++
			tally.WeightedCount += vote.Weight
		}
		if totalWeighted > 0 {
			tally.Percent = tally.WeightedCount / totalWeighted * 100
		}
		if tally.Percent > approvalThreshold {
			v.Winning = option
		}
		v.Results = append(v.Results, tally)
	}

	v.Status = VotingStatusCompleted
	return nil
}
