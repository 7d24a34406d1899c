package peptide

// CountVector is one candidate assignment of "assumed modified occurrence
// count" to each of a fixed, ordered list of modifiable residues, together
// with the residual mass window obtained by subtracting those
// modifications' total mass from the original window.
type CountVector struct {
	Counts []int
	Low    int64
	High   int64
}

// EnumerateCountVectors walks the ordered list of modifiable residues
// (residues, parallel modMass) and, for each residue, every assumed
// modification count from 0 up to maxCounts[i], emitting one CountVector
// per full assignment. A branch is pruned as soon as its own freshly
// computed low bound is <= 0 — the guard is evaluated against the
// candidate's own low, not a bound captured before this residue's count was
// chosen, so narrowing continues to recurse correctly deeper into the
// residue list.
func EnumerateCountVectors(low, high int64, modMass []int64, maxCounts []int) []CountVector {
	var results []CountVector
	counts := make([]int, len(modMass))
	var recurse func(i int, curLow, curHigh int64)
	recurse = func(i int, curLow, curHigh int64) {
		if i == len(modMass) {
			assigned := make([]int, len(counts))
			copy(assigned, counts)
			results = append(results, CountVector{Counts: assigned, Low: curLow, High: curHigh})
			return
		}
		for c := 0; c <= maxCounts[i]; c++ {
			nextLow := curLow - int64(c)*modMass[i]
			nextHigh := curHigh - int64(c)*modMass[i]
			if nextLow <= 0 {
				break
			}
			counts[i] = c
			recurse(i+1, nextLow, nextHigh)
		}
		counts[i] = 0
	}
	recurse(0, low, high)
	return results
}

// MaxModificationCount returns floor(precursor / (residueMass+modMass)),
// the largest number of times a single residue could carry this
// modification within the precursor mass, used to bound EnumerateCountVectors'
// per-residue loop.
func MaxModificationCount(precursor, residueMass, modMass int64) int {
	unit := residueMass + modMass
	if unit <= 0 {
		return 0
	}
	return int(precursor / unit)
}
