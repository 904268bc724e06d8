package ledger

import (
	"math"
	"time"
)

// AvgDaysPerMonth is the average-month divisor used for all age arithmetic
// (365.25 / 12). Eligibility windows use the same divisor so both sides
// agree on what "a month" means.
const AvgDaysPerMonth = 365.25 / 12

// AgeInMonths returns the elapsed time from issuedAt to now in average
// months. Never negative: entries issued "in the future" count as age 0.
func AgeInMonths(issuedAt, now time.Time) float64 {
	age := now.Sub(issuedAt).Hours() / (24 * AvgDaysPerMonth)
	if age < 0 {
		return 0
	}
	return age
}

// DecayFactor is the exponential decay multiplier for a single entry.
// A rate of zero (or no rate at all) disables decay entirely.
func DecayFactor(rate float64, ageMonths float64) float64 {
	if rate <= 0 {
		return 1
	}
	return math.Exp(-rate * ageMonths)
}

// ApplyCap clamps an aggregate value against a configured ceiling. The
// second return reports whether the ceiling actually bit.
func ApplyCap(sum float64, cap float64) (float64, bool) {
	if cap <= 0 || sum <= cap {
		return sum, false
	}
	return cap, true
}
