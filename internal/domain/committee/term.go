package committee

import (
	"fmt"
	"time"

	"cookledger/internal/errs"
)

const (
	TermStatusActive     = "active"
	TermStatusCompleted  = "completed"
	TermStatusTerminated = "terminated"
)

// ServiceTerm is one recorded period of committee service. At most one
// active term may exist per (contributor, committee); the usecase layer
// enforces that before starting a new one.
type ServiceTerm struct {
	ID            string
	CommitteeID   string
	ContributorID string
	StartDate     time.Time
	EndDate       *time.Time
	DurationDays  int
	Status        string
}

func (t ServiceTerm) Active() bool { return t.Status == TermStatusActive }

// End closes the term. Ending an already-ended term is a state conflict.
func (t *ServiceTerm) End(endDate time.Time, terminated bool) error {
	if !t.Active() {
		return errs.StateConflictf("service term %s already ended with status %s", t.ID, t.Status)
	}
	if endDate.Before(t.StartDate) {
		return errs.Validationf("end date %s precedes start date %s", endDate, t.StartDate)
	}

	t.EndDate = &endDate
	t.DurationDays = int(endDate.Sub(t.StartDate).Hours() / 24)
	t.Status = TermStatusCompleted
	if terminated {
		t.Status = TermStatusTerminated
	}
	return nil
}

// ExclusionsFromTerms derives the per-contributor exclusion reasons the
// eligibility filter consumes: currently serving on any committee, or still
// inside the cooling-off period after an ended term.
func ExclusionsFromTerms(terms []ServiceTerm, coolingOffDays int, now time.Time) map[string][]string {
	out := make(map[string][]string)
	for _, term := range terms {
		if term.Active() {
			out[term.ContributorID] = append(out[term.ContributorID],
				fmt.Sprintf("serving:%s", term.CommitteeID))
			continue
		}
		if term.EndDate == nil || coolingOffDays <= 0 {
			continue
		}
		if now.Sub(*term.EndDate) < time.Duration(coolingOffDays)*24*time.Hour {
			out[term.ContributorID] = append(out[term.ContributorID],
				fmt.Sprintf("cooling_off:%s", term.CommitteeID))
		}
	}
	return out
}
