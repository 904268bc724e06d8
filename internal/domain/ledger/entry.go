package ledger

import (
	"strings"
	"time"

	"cookledger/internal/errs"
)

// Attribution marks how a contribution entry was granted.
const (
	AttributionSelf  = "self"
	AttributionSpend = "spend"
)

// Entry is one immutable contribution record. Entries are append-only:
// nothing in this module mutates or deletes one after creation.
type Entry struct {
	ID            string
	TaskID        string
	TeamID        string
	ContributorID string
	Value         float64
	Attribution   string
	IssuedAt      time.Time
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.TeamID) == "" {
		return errs.Validationf("entry team id is required")
	}
	if strings.TrimSpace(e.ContributorID) == "" {
		return errs.Validationf("entry contributor id is required")
	}
	if e.Value <= 0 {
		return errs.Validationf("entry value must be positive, got %v", e.Value)
	}
	switch e.Attribution {
	case AttributionSelf, AttributionSpend:
	default:
		return errs.Validationf("unknown attribution %q", e.Attribution)
	}
	if e.IssuedAt.IsZero() {
		return errs.Validationf("entry issued_at is required")
	}
	return nil
}
