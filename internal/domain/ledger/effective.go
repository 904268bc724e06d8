package ledger

import (
	"time"

	"cookledger/internal/errs"
)

// PipelineConfig is the slice of team configuration the effective-value
// pipeline needs. Nil pointers mean "not configured".
type PipelineConfig struct {
	Cap       *float64
	DecayRate *float64
}

func (c PipelineConfig) Validate() error {
	if c.Cap != nil && *c.Cap <= 0 {
		return errs.Validationf("cap must be positive, got %v", *c.Cap)
	}
	if c.DecayRate != nil && (*c.DecayRate < 0 || *c.DecayRate > 1) {
		return errs.Validationf("decay rate must be within [0,1], got %v", *c.DecayRate)
	}
	return nil
}

// EntryDetail records how one entry fared through the decay stage, kept for
// audit and display.
type EntryDetail struct {
	EntryID   string
	AgeMonths float64
	RawValue  float64
	Decayed   float64
	Factor    float64
}

// EffectiveValue is the decay+cap composition over one contributor's
// history. Derived on demand, never persisted as its own entity.
type EffectiveValue struct {
	RawValue       float64
	EffectiveValue float64
	CapApplied     bool
	DecayApplied   bool
	Excess         float64
	Details        []EntryDetail
}

// ComputeEffectiveValue runs the full pipeline over one contributor's
// entries. Decay is applied per entry first, then the cap clamps the sum;
// the order is load-bearing and must not be reversed.
func ComputeEffectiveValue(entries []Entry, cfg PipelineConfig, now time.Time) (EffectiveValue, error) {
	if err := cfg.Validate(); err != nil {
		return EffectiveValue{}, err
	}

	rate := 0.0
	if cfg.DecayRate != nil {
		rate = *cfg.DecayRate
	}

	out := EffectiveValue{
		Details: make([]EntryDetail, 0, len(entries)),
	}

	decayedSum := 0.0
	for _, entry := range entries {
		age := AgeInMonths(entry.IssuedAt, now)
		factor := DecayFactor(rate, age)
		decayed := entry.Value * factor

		out.RawValue += entry.Value
		decayedSum += decayed
		out.Details = append(out.Details, EntryDetail{
			EntryID:   entry.ID,
			AgeMonths: age,
			RawValue:  entry.Value,
			Decayed:   decayed,
			Factor:    factor,
		})
	}

	out.DecayApplied = rate > 0
	out.EffectiveValue = decayedSum

	if cfg.Cap != nil {
		capped, applied := ApplyCap(decayedSum, *cfg.Cap)
		out.EffectiveValue = capped
		out.CapApplied = applied
		if applied {
			out.Excess = decayedSum - capped
		}
	}

	return out, nil
}
