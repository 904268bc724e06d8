package committee

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"cookledger/internal/errs"
)

func testPool() []PoolMember {
	return []PoolMember{
		{ContributorID: "alice", Weight: 3},
		{ContributorID: "bob", Weight: 1},
		{ContributorID: "carol", Weight: 2.5},
		{ContributorID: "dave", Weight: 0.5},
	}
}

func TestSelectMembersSeatCountAndUniqueness(t *testing.T) {
	now := time.Now().UTC()

	for seats := 1; seats <= 4; seats++ {
		result, err := SelectMembers(testPool(), seats, "fixed", now)
		if err != nil {
			t.Fatalf("SelectMembers(seats=%d) error = %v", seats, err)
		}
		if len(result.Selected) != seats {
			t.Fatalf("selected %d, want %d", len(result.Selected), seats)
		}

		seen := make(map[string]struct{})
		known := make(map[string]struct{})
		for _, member := range testPool() {
			known[member.ContributorID] = struct{}{}
		}
		for _, id := range result.Selected {
			if _, dup := seen[id]; dup {
				t.Fatalf("duplicate selection %s", id)
			}
			seen[id] = struct{}{}
			if _, ok := known[id]; !ok {
				t.Fatalf("selected %s not drawn from pool", id)
			}
		}
	}
}

func TestSelectMembersDeterministic(t *testing.T) {
	now := time.Now().UTC()

	first, err := SelectMembers(testPool(), 2, "fixed", now)
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}
	second, err := SelectMembers(testPool(), 2, "fixed", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}

	if !reflect.DeepEqual(first.Selected, second.Selected) {
		t.Fatalf("same seed selections differ: %v vs %v", first.Selected, second.Selected)
	}
	if first.SeedDerived {
		t.Fatal("explicit seed reported as derived")
	}

	other, err := SelectMembers(testPool(), 2, "other-seed", now)
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}
	// Not guaranteed in general, but for this pool the two seeds diverge;
	// the draws must at least record different drawn values.
	if reflect.DeepEqual(first.Draws, other.Draws) {
		t.Fatal("different seeds produced identical draw records")
	}
}

func TestSelectMembersDerivedSeedFlagged(t *testing.T) {
	result, err := SelectMembers(testPool(), 1, "", time.Now().UTC())
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}
	if !result.SeedDerived {
		t.Fatal("omitted seed not flagged as derived")
	}
	if result.Seed == "" {
		t.Fatal("derived seed not recorded")
	}
}

func TestSelectMembersZeroWeightFallback(t *testing.T) {
	pool := []PoolMember{
		{ContributorID: "alice", Weight: 0},
		{ContributorID: "bob", Weight: 0},
		{ContributorID: "carol", Weight: 0},
	}

	result, err := SelectMembers(pool, 2, "fixed", time.Now().UTC())
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}
	if len(result.Selected) != 2 {
		t.Fatalf("selected %d, want 2", len(result.Selected))
	}
	for _, draw := range result.Draws {
		if !draw.UniformDraw {
			t.Fatalf("draw %+v, want uniform fallback", draw)
		}
	}

	again, err := SelectMembers(pool, 2, "fixed", time.Now().UTC())
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}
	if !reflect.DeepEqual(result.Selected, again.Selected) {
		t.Fatalf("uniform fallback not deterministic: %v vs %v", result.Selected, again.Selected)
	}
}

func TestSelectMembersMixedZeroWeights(t *testing.T) {
	pool := []PoolMember{
		{ContributorID: "alice", Weight: 5},
		{ContributorID: "bob", Weight: 0},
	}

	result, err := SelectMembers(pool, 2, "fixed", time.Now().UTC())
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}
	if len(result.Selected) != 2 {
		t.Fatalf("selected %d, want both members", len(result.Selected))
	}
}

func TestSelectMembersValidation(t *testing.T) {
	now := time.Now().UTC()

	if _, err := SelectMembers(nil, 1, "s", now); !errors.Is(err, errs.ErrInsufficientData) {
		t.Fatalf("empty pool error = %v, want insufficient data", err)
	}
	if _, err := SelectMembers(testPool(), 0, "s", now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("zero seats error = %v, want validation", err)
	}
	if _, err := SelectMembers(testPool(), 9, "s", now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("too many seats error = %v, want validation", err)
	}
	if _, err := SelectMembers([]PoolMember{{ContributorID: "a", Weight: -1}}, 1, "s", now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("negative weight error = %v, want validation", err)
	}
}

func TestVerifyResultRoundTrip(t *testing.T) {
	result, err := SelectMembers(testPool(), 3, "fixed", time.Now().UTC())
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}
	if err := VerifyResult(result, testPool()); err != nil {
		t.Fatalf("VerifyResult() error = %v, want pass", err)
	}
}

func TestVerifyResultRejectsTampering(t *testing.T) {
	result, err := SelectMembers(testPool(), 2, "fixed", time.Now().UTC())
	if err != nil {
		t.Fatalf("SelectMembers() error = %v", err)
	}

	injected := result
	injected.Selected = append([]string{"mallory"}, injected.Selected[1:]...)
	if err := VerifyResult(injected, testPool()); err == nil {
		t.Fatal("injected outsider passed verification")
	}

	doubled := result
	doubled.Selected = []string{result.Selected[0], result.Selected[0]}
	if err := VerifyResult(doubled, testPool()); err == nil {
		t.Fatal("duplicate selection passed verification")
	}

	wrongWeight := result
	wrongWeight.TotalWeight += 1
	if err := VerifyResult(wrongWeight, testPool()); err == nil {
		t.Fatal("mismatched total weight passed verification")
	}
}

func TestDrawRandStableSequence(t *testing.T) {
	a := newDrawRand("seed")
	b := newDrawRand("seed")
	for i := 0; i < 100; i++ {
		av, bv := a.Float64(), b.Float64()
		if av != bv {
			t.Fatalf("sequence diverged at %d: %v vs %v", i, av, bv)
		}
		if av < 0 || av >= 1 {
			t.Fatalf("draw %v outside [0,1)", av)
		}
	}
}
