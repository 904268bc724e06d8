package committee

import (
	"strconv"
	"time"

	"cookledger/internal/errs"
)

// PoolMember is one eligible candidate entering the lottery.
type PoolMember struct {
	ContributorID string
	Weight        float64
}

// DrawRecord is the audit trail for a single draw attempt over one
// candidate: its cumulative-weight boundary, the value drawn for the seat,
// and whether this candidate won the seat.
type DrawRecord struct {
	Seat          int
	ContributorID string
	Weight        float64
	CumulativeEnd float64
	DrawnValue    float64
	Selected      bool
	UniformDraw   bool
}

// LotteryResult is the full, independently verifiable outcome of one
// selection run.
type LotteryResult struct {
	Seed        string
	SeedDerived bool
	Seats       int
	TotalWeight float64
	Pool        []PoolMember
	Selected    []string
	Draws       []DrawRecord
	DrawnAt     time.Time
}

// SelectMembers performs without-replacement weighted sampling over the
// pool. Seat draws are strictly sequential: each draw removes its winner
// and thereby changes every later draw. When every remaining weight is
// zero the run falls back to uniform selection over the remainder, still
// driven by the same seeded generator.
//
// An empty seed is derived from now; such results are flagged SeedDerived
// because they cannot be reproduced after the fact.
func SelectMembers(pool []PoolMember, seats int, seed string, now time.Time) (LotteryResult, error) {
	if len(pool) == 0 {
		return LotteryResult{}, errs.InsufficientDataf("eligible pool is empty")
	}
	if seats <= 0 {
		return LotteryResult{}, errs.Validationf("seats must be positive, got %d", seats)
	}
	if seats > len(pool) {
		return LotteryResult{}, errs.Validationf("seats %d exceeds pool size %d", seats, len(pool))
	}
	for _, member := range pool {
		if member.Weight < 0 {
			return LotteryResult{}, errs.Validationf("candidate %s has negative weight %v", member.ContributorID, member.Weight)
		}
	}

	derived := false
	if seed == "" {
		seed = strconv.FormatInt(now.UnixNano(), 10)
		derived = true
	}

	result := LotteryResult{
		Seed:        seed,
		SeedDerived: derived,
		Seats:       seats,
		Pool:        append([]PoolMember(nil), pool...),
		DrawnAt:     now,
	}
	for _, member := range pool {
		result.TotalWeight += member.Weight
	}

	rng := newDrawRand(seed)
	remaining := append([]PoolMember(nil), pool...)

	for seat := 0; seat < seats; seat++ {
		remainingWeight := 0.0
		for _, member := range remaining {
			remainingWeight += member.Weight
		}

		winner := -1
		if remainingWeight > 0 {
			drawn := rng.Float64() * remainingWeight
			cumulative := 0.0
			for i, member := range remaining {
				cumulative += member.Weight
				selected := winner == -1 && drawn < cumulative
				// Float accumulation can leave drawn just past the final
				// boundary; the last candidate then owns the draw.
				if winner == -1 && i == len(remaining)-1 {
					selected = true
				}
				if selected {
					winner = i
				}
				result.Draws = append(result.Draws, DrawRecord{
					Seat:          seat,
					ContributorID: member.ContributorID,
					Weight:        member.Weight,
					CumulativeEnd: cumulative,
					DrawnValue:    drawn,
					Selected:      selected,
				})
				if selected {
					break
				}
			}
		} else {
			// All remaining weights are zero: uniform fallback.
			drawn := rng.Float64() * float64(len(remaining))
			winner = int(drawn)
			if winner >= len(remaining) {
				winner = len(remaining) - 1
			}
			member := remaining[winner]
			result.Draws = append(result.Draws, DrawRecord{
				Seat:          seat,
				ContributorID: member.ContributorID,
				Weight:        member.Weight,
				CumulativeEnd: float64(winner + 1),
				DrawnValue:    drawn,
				Selected:      true,
				UniformDraw:   true,
			})
		}

		result.Selected = append(result.Selected, remaining[winner].ContributorID)
		remaining = append(remaining[:winner], remaining[winner+1:]...)
	}

	return result, nil
}
