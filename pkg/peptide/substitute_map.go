package peptide

import "github.com/mpc-bioinformatics/decoydb/pkg/core"

// SubstituteMap precomputes, for every ordered pair (a, b) of decoy-
// alphabet letters with a != b, the signed mass delta
// (mass(b)+fixModMass(b)) - (mass(a)+fixModMass(a)). The decoy generator
// and SwapAminoAcidsToHitMassTolerance use it to find, for a residue
// already in a sequence, the substitution that moves the total mass
// closest to the precursor target without re-deriving residue masses on
// every trial.
type SubstituteMap map[byte]map[byte]int64

// NewSubstituteMap builds the table over core.DecoyAlphabet, folding in
// fixMap's fixed-modification masses where present.
func NewSubstituteMap(fixMap map[byte]core.Modification) (SubstituteMap, error) {
	effectiveMass := make(map[byte]int64, len(core.DecoyAlphabet))
	for _, letter := range core.DecoyAlphabet {
		aa, err := core.Get(letter)
		if err != nil {
			return nil, err
		}
		total := aa.MonoMass
		if mod, ok := fixMap[letter]; ok {
			total += mod.Mass
		}
		effectiveMass[letter] = total
	}
	table := make(SubstituteMap, len(core.DecoyAlphabet))
	for _, a := range core.DecoyAlphabet {
		row := make(map[byte]int64, len(core.DecoyAlphabet)-1)
		for _, b := range core.DecoyAlphabet {
			if a == b {
				continue
			}
			row[b] = effectiveMass[b] - effectiveMass[a]
		}
		table[a] = row
	}
	return table, nil
}

// BestImprovement looks at all substitutions available for residue 'from'
// and returns the letter whose delta brings the sequence mass strictly
// closer to the precursor target. signedRemaining is precursor-mass minus
// current mass (positive means the sequence is too light); a substitution
// with delta d results in a new remaining of signedRemaining-d. found is
// false when no substitution improves on the current distance.
func (s SubstituteMap) BestImprovement(from byte, signedRemaining int64) (letter byte, delta int64, found bool) {
	row, ok := s[from]
	if !ok {
		return 0, 0, false
	}
	bestDistance := absInt64(signedRemaining)
	for candidate, d := range row {
		resultingDistance := absInt64(signedRemaining - d)
		if resultingDistance < bestDistance {
			bestDistance = resultingDistance
			letter = candidate
			delta = d
			found = true
		}
	}
	return letter, delta, found
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
