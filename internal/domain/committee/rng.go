package committee

import "github.com/cespare/xxhash/v2"

// drawRand is a small linear-congruential generator seeded from a string
// hash. The binding contract for selections is determinism and
// auditability, not statistical strength: the same seed string must always
// reproduce the same draw sequence, including across releases, so the
// generator is frozen here rather than delegated to a library whose
// sequence may change.
type drawRand struct {
	state uint64
}

// Knuth MMIX multiplier/increment.
const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407
)

func newDrawRand(seed string) *drawRand {
	return &drawRand{state: xxhash.Sum64String(seed)}
}

func (r *drawRand) next() uint64 {
	r.state = r.state*lcgMultiplier + lcgIncrement
	return r.state
}

// Float64 returns a uniform value in [0,1) built from the high 53 bits,
// which are the strong bits of an LCG.
func (r *drawRand) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}
