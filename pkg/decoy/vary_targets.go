package decoy

import (
	"context"
	"math/rand"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/peptide"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

// maxShuffleAttemptsPerTarget bounds how many letter-shuffles of one
// target sequence are tried before moving on to the next target.
const maxShuffleAttemptsPerTarget = 1000

// VaryTargets is the cheaper decoy strategy tried before falling back to
// Generate's full random-walk search: it reuses an existing target's own
// amino-acid composition (already biologically plausible) by shuffling its
// letters, accepting a shuffle as a decoy once it both avoids colliding
// with any known Peptide and, after fixed modifications, falls inside the
// precursor tolerance (swapping residues via
// SwapAminoAcidsToHitMassTolerance when the raw shuffle doesn't land in
// range).
func VaryTargets(
	ctx context.Context, st store.Store, targets []core.Peptide, count int,
	precursor, low, high int64, fixMap map[byte]core.Modification, variableMap map[byte]core.Modification, maxVariableMods int,
	rng *rand.Rand,
) ([]core.Decoy, error) {
	substitutes, err := peptide.NewSubstituteMap(fixMap)
	if err != nil {
		return nil, err
	}
	var found []core.Decoy
	for _, target := range targets {
		if len(found) >= count {
			break
		}
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
		decoy, ok, err := varyOneTarget(ctx, st, target, precursor, low, high, fixMap, variableMap, maxVariableMods, substitutes, rng)
		if err != nil {
			return found, err
		}
		if ok {
			found = append(found, decoy)
		}
	}
	return found, nil
}

func varyOneTarget(
	ctx context.Context, st store.Store, target core.Peptide,
	precursor, low, high int64, fixMap map[byte]core.Modification, variableMap map[byte]core.Modification, maxVariableMods int,
	substitutes peptide.SubstituteMap, rng *rand.Rand,
) (core.Decoy, bool, error) {
	letters := []byte(target.AASequence)
	for attempt := 0; attempt < maxShuffleAttemptsPerTarget; attempt++ {
		shuffled := make([]byte, len(letters))
		copy(shuffled, letters)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		generalized := core.Generalize(string(shuffled))
		exists, err := st.PeptideExists(ctx, generalized)
		if err != nil {
			return core.Decoy{}, false, err
		}
		if exists {
			continue
		}

		mp := peptide.New("", precursor, low, high)
		for _, aa := range shuffled {
			var fixMod *core.Modification
			if mod, ok := fixMap[aa]; ok {
				m := mod
				fixMod = &m
			}
			if _, err := mp.PushAminoAcidAndFixModification(aa, fixMod); err != nil {
				return core.Decoy{}, false, err
			}
		}

		hit := mp.HitsMassTolerance()
		if !hit {
			hit = mp.SwapAminoAcidsToHitMassTolerance(substitutes, fixMap, maxVariableMods, variableMap, rng)
			if hit {
				swappedExists, err := st.PeptideExists(ctx, core.Generalize(string(mp.Residues)))
				if err != nil {
					return core.Decoy{}, false, err
				}
				if swappedExists {
					continue
				}
			}
		}
		if !hit {
			continue
		}

		base, err := mp.AsBaseDecoy()
		if err != nil {
			return core.Decoy{}, false, err
		}
		var toSave core.Decoy
		if mp.ModCount == 0 {
			toSave = base
		} else {
			toSave = mp.AsModifiedDecoy(base)
		}
		id, _, err := st.UpsertDecoy(ctx, toSave)
		if err != nil {
			return core.Decoy{}, false, err
		}
		toSave.ID = id
		return toSave, true, nil
	}
	return core.Decoy{}, false, nil
}
