package committee

import (
	"math"

	"cookledger/internal/errs"
)

const weightTolerance = 1e-9

// VerifyResult independently checks a lottery outcome against the eligible
// pool it claims to have drawn from. A selection that fails verification
// must be discarded, never persisted.
func VerifyResult(result LotteryResult, pool []PoolMember) error {
	if result.Seats != len(result.Selected) {
		return errs.StateConflictf("selection has %d members for %d seats", len(result.Selected), result.Seats)
	}

	weights := make(map[string]float64, len(pool))
	totalWeight := 0.0
	for _, member := range pool {
		weights[member.ContributorID] = member.Weight
		totalWeight += member.Weight
	}

	seen := make(map[string]struct{}, len(result.Selected))
	for _, id := range result.Selected {
		if _, ok := weights[id]; !ok {
			return errs.StateConflictf("selected contributor %s was not in the eligible pool", id)
		}
		if _, dup := seen[id]; dup {
			return errs.StateConflictf("contributor %s selected twice", id)
		}
		seen[id] = struct{}{}
	}

	if math.Abs(totalWeight-result.TotalWeight) > weightTolerance {
		return errs.StateConflictf("recorded total weight %v does not match pool total %v",
			result.TotalWeight, totalWeight)
	}

	return nil
}
