package peptide

import "testing"

func TestEnumerateCountVectorsProducesDisjointResiduals(t *testing.T) {
	low, high := int64(1000), int64(1010)
	modMass := []int64{100}
	maxCounts := []int{3}
	vectors := EnumerateCountVectors(low, high, modMass, maxCounts)
	if len(vectors) == 0 {
		t.Fatal("expected at least one count vector")
	}
	seen := make(map[int]bool)
	for _, v := range vectors {
		c := v.Counts[0]
		if seen[c] {
			t.Errorf("count %d emitted more than once", c)
		}
		seen[c] = true
		wantLow := low - int64(c)*modMass[0]
		wantHigh := high - int64(c)*modMass[0]
		if v.Low != wantLow || v.High != wantHigh {
			t.Errorf("count %d: got (%d,%d), want (%d,%d)", c, v.Low, v.High, wantLow, wantHigh)
		}
		if v.Low <= 0 {
			t.Errorf("count %d produced non-positive low bound %d, should have been pruned", c, v.Low)
		}
	}
}

func TestEnumerateCountVectorsPrunesWhenLowGoesNonPositive(t *testing.T) {
	low, high := int64(150), int64(200)
	modMass := []int64{100}
	maxCounts := []int{5}
	vectors := EnumerateCountVectors(low, high, modMass, maxCounts)
	for _, v := range vectors {
		if v.Counts[0] > 1 {
			t.Errorf("count %d should have been pruned: low = %d", v.Counts[0], v.Low)
		}
	}
}

func TestEnumerateCountVectorsMultiResidue(t *testing.T) {
	low, high := int64(1000), int64(1020)
	modMass := []int64{50, 30}
	maxCounts := []int{2, 2}
	vectors := EnumerateCountVectors(low, high, modMass, maxCounts)
	total := 0
	for a := 0; a <= maxCounts[0]; a++ {
		for b := 0; b <= maxCounts[1]; b++ {
			if low-int64(a)*modMass[0]-int64(b)*modMass[1] > 0 {
				total++
			}
		}
	}
	if len(vectors) != total {
		t.Errorf("got %d vectors, want %d", len(vectors), total)
	}
}

func TestMaxModificationCount(t *testing.T) {
	got := MaxModificationCount(1000, 100, 0)
	if got != 10 {
		t.Errorf("MaxModificationCount = %d, want 10", got)
	}
}

func TestCombinationsCoversAllKSubsets(t *testing.T) {
	n, k := 5, 2
	want := 10 // C(5,2)
	count := 0
	seen := make(map[[2]int]bool)
	for combo := range Combinations(n, k) {
		if len(combo) != k {
			t.Fatalf("combo %v has length %d, want %d", combo, len(combo), k)
		}
		key := [2]int{combo[0], combo[1]}
		if combo[0] > combo[1] {
			key = [2]int{combo[1], combo[0]}
		}
		if seen[key] {
			t.Errorf("combination %v emitted twice", combo)
		}
		seen[key] = true
		count++
	}
	if count != want {
		t.Errorf("got %d combinations, want %d", count, want)
	}
}

func TestCombinationsZero(t *testing.T) {
	count := 0
	for combo := range Combinations(5, 0) {
		if combo != nil {
			t.Errorf("expected nil combo for k=0, got %v", combo)
		}
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one empty combination, got %d", count)
	}
}
