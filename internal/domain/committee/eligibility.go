package committee

import (
	"time"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
)

const ReasonInsufficientActivity = "insufficient_activity"

// EligibilityConfig is the windowed-activity slice of team configuration.
type EligibilityConfig struct {
	WindowMonths       int
	MinimumActiveValue float64
}

func (c EligibilityConfig) Validate() error {
	if c.WindowMonths <= 0 {
		return errs.Validationf("eligibility window must be positive months, got %d", c.WindowMonths)
	}
	if c.MinimumActiveValue < 0 {
		return errs.Validationf("minimum active value must not be negative, got %v", c.MinimumActiveValue)
	}
	return nil
}

// Candidate is one contributor's entry history offered to the filter.
type Candidate struct {
	ContributorID string
	Entries       []ledger.Entry
}

// EligibilityResult carries the full reasoning for one contributor,
// eligible or not, for transparency.
type EligibilityResult struct {
	ContributorID string
	Eligible      bool
	ActiveValue   float64
	TotalValue    float64
	WindowMonths  int
	Reasons       []string
}

// ActiveValue is the raw (undecayed) sum of entry values issued within the
// trailing window. Deliberately distinct from the decayed effective-value
// pipeline: eligibility measures recent raw activity.
func ActiveValue(entries []ledger.Entry, windowMonths int, now time.Time) float64 {
	cutoff := now.Add(-time.Duration(float64(windowMonths) * ledger.AvgDaysPerMonth * 24 * float64(time.Hour)))

	sum := 0.0
	for _, entry := range entries {
		if entry.IssuedAt.Before(cutoff) {
			continue
		}
		sum += entry.Value
	}
	return sum
}

// FilterEligible applies the windowed-activity threshold and the supplied
// service-term exclusions. A contributor is eligible iff activeValue exceeds
// the minimum and no exclusion reasons apply. Results are returned for every
// candidate in input order.
func FilterEligible(candidates []Candidate, cfg EligibilityConfig, exclusions map[string][]string, now time.Time) ([]EligibilityResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]EligibilityResult, 0, len(candidates))
	for _, candidate := range candidates {
		total := 0.0
		for _, entry := range candidate.Entries {
			total += entry.Value
		}

		result := EligibilityResult{
			ContributorID: candidate.ContributorID,
			ActiveValue:   ActiveValue(candidate.Entries, cfg.WindowMonths, now),
			TotalValue:    total,
			WindowMonths:  cfg.WindowMonths,
		}

		if result.ActiveValue <= cfg.MinimumActiveValue {
			result.Reasons = append(result.Reasons, ReasonInsufficientActivity)
		}
		result.Reasons = append(result.Reasons, exclusions[candidate.ContributorID]...)
		result.Eligible = len(result.Reasons) == 0

		results = append(results, result)
	}

	return results, nil
}

// EligibleOnly keeps the eligible subset, preserving order.
func EligibleOnly(results []EligibilityResult) []EligibilityResult {
	out := make([]EligibilityResult, 0, len(results))
	for _, result := range results {
		if result.Eligible {
			out = append(out, result)
		}
	}
	return out
}
