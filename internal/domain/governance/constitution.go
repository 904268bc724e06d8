package governance

import (
	"strings"
	"time"

	"cookledger/internal/errs"
)

// ConstitutionalChange is one adopted, versioned rule modification.
// Versions are monotonic per rule name: previous version + 1, starting at 1,
// never skipped or reused.
type ConstitutionalChange struct {
	ID                 string
	RuleName           string
	Version            int
	PreviousVersion    *int
	ChangeType         string
	ApprovalPercentage float64
	AdoptedAt          time.Time
	AdoptedBy          string
}

// NewConstitutionalChange builds the next version for a rule. previous is
// nil for a rule adopted for the first time.
func NewConstitutionalChange(id string, proposal Proposal, previous *ConstitutionalChange, approvalPercentage float64, adoptedBy string, now time.Time) (ConstitutionalChange, error) {
	if !proposal.Constitutional() {
		return ConstitutionalChange{}, errs.Validationf("proposal %s is not constitutional", proposal.ID)
	}
	if proposal.Status != StatusApproved {
		return ConstitutionalChange{}, errs.StateConflictf("cannot adopt change for proposal in status %s", proposal.Status)
	}
	if strings.TrimSpace(adoptedBy) == "" {
		return ConstitutionalChange{}, errs.Validationf("adopted-by actor is required")
	}

	change := ConstitutionalChange{
		ID:                 id,
		RuleName:           proposal.RuleName,
		Version:            1,
		ChangeType:         proposal.ChangeType,
		ApprovalPercentage: approvalPercentage,
		AdoptedAt:          now,
		AdoptedBy:          adoptedBy,
	}

	if previous != nil {
		if previous.RuleName != proposal.RuleName {
			return ConstitutionalChange{}, errs.Validationf("previous change is for rule %q, proposal amends %q",
				previous.RuleName, proposal.RuleName)
		}
		prev := previous.Version
		change.PreviousVersion = &prev
		change.Version = previous.Version + 1
	}

	return change, nil
}
