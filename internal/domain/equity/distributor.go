package equity

import (
	"sort"

	"cookledger/internal/errs"
)

// Equity models. Slicing and proportional currently compute identically;
// custom falls back to slicing. The split is a named extension point, not a
// bug, so the chosen tag is still recorded on every share.
const (
	ModelSlicing      = "slicing"
	ModelProportional = "proportional"
	ModelCustom       = "custom"
)

func ValidateModel(model string) error {
	switch model {
	case ModelSlicing, ModelProportional, ModelCustom:
		return nil
	default:
		return errs.Validationf("unknown equity model %q", model)
	}
}

// ContributorValue is one contributor's pipeline output feeding the
// distributor.
type ContributorValue struct {
	ContributorID  string
	RawValue       float64
	EffectiveValue float64
	CapApplied     bool
	DecayApplied   bool
}

// Share is one contributor's normalized slice of the team.
type Share struct {
	ContributorID  string
	Percent        float64
	RawValue       float64
	EffectiveValue float64
	CapApplied     bool
	DecayApplied   bool
}

// Distribute normalizes effective values across a team into ownership
// percentages. A zero team total yields all-zero shares rather than a
// division by zero. Output is ordered by contributor id so repeated runs
// over the same snapshot persist identically.
func Distribute(model string, values []ContributorValue) ([]Share, float64, error) {
	if err := ValidateModel(model); err != nil {
		return nil, 0, err
	}
	if len(values) == 0 {
		return nil, 0, errs.InsufficientDataf("no contributors to distribute equity over")
	}

	total := 0.0
	for _, v := range values {
		total += v.EffectiveValue
	}

	shares := make([]Share, 0, len(values))
	for _, v := range values {
		percent := 0.0
		if total > 0 {
			percent = v.EffectiveValue / total * 100
		}
		shares = append(shares, Share{
			ContributorID:  v.ContributorID,
			Percent:        percent,
			RawValue:       v.RawValue,
			EffectiveValue: v.EffectiveValue,
			CapApplied:     v.CapApplied,
			DecayApplied:   v.DecayApplied,
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		return shares[i].ContributorID < shares[j].ContributorID
	})

	return shares, total, nil
}
