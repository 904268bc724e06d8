package equity

import "cookledger/internal/domain/ledger"

// GovernanceWeight is a contributor's voting and lottery weight. It is
// defined as the effective value, but kept as its own named quantity so
// voting and selection stay valid even if the equity models above change
// shape.
type GovernanceWeight struct {
	ContributorID  string
	Weight         float64
	RawValue       float64
	EffectiveValue float64
	CapApplied     bool
	DecayApplied   bool
}

// WeightFromEffective derives the governance weight from a pipeline result.
func WeightFromEffective(contributorID string, ev ledger.EffectiveValue) GovernanceWeight {
	return GovernanceWeight{
		ContributorID:  contributorID,
		Weight:         ev.EffectiveValue,
		RawValue:       ev.RawValue,
		EffectiveValue: ev.EffectiveValue,
		CapApplied:     ev.CapApplied,
		DecayApplied:   ev.DecayApplied,
	}
}
