// Package identify implements the spectrum-driven candidate retrieval
// driver: for each observed precursor, find matching targets and decoys
// and emit a combined FASTA plus a Comet parameters file.
package identify

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/decoy"
	"github.com/mpc-bioinformatics/decoydb/pkg/mass"
	"github.com/mpc-bioinformatics/decoydb/pkg/peptide"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

// Config bundles the tunables a single identify run needs.
type Config struct {
	LowerPPM, UpperPPM float64
	DecoyCount         int
	DecoyWorkers       int
	MaxVariableMods    int
	MaxDecoyDuration   time.Duration
	FragmentTolerance  float64
}

// SpectrumResult is one spectrum's retrieval outcome.
type SpectrumResult struct {
	Spectrum               core.Spectrum
	Targets                map[string]core.Peptide
	TargetModSummary       map[string]string
	Decoys                 map[string]core.Decoy
	DecoyTimeout           bool
	LowerDelta, UpperDelta int64
}

// Run processes one spectrum against st, returning the matched targets and
// decoys (generating new decoys on shortfall).
func Run(
	ctx context.Context, st store.Store, spectrum core.Spectrum, cfg Config,
	fixMap map[byte]core.Modification, variableMap map[byte]core.Modification, rng *rand.Rand,
) (SpectrumResult, error) {
	precursor := spectrum.PrecursorMass()
	low, high := mass.PrecursorTolerance(precursor, cfg.LowerPPM, cfg.UpperPPM)

	residues, modMass, maxCounts := modificationBounds(precursor, fixMap, variableMap)
	vectors := peptide.EnumerateCountVectors(low, high, modMass, maxCounts)

	result := SpectrumResult{
		Spectrum:         spectrum,
		Targets:          make(map[string]core.Peptide),
		TargetModSummary: make(map[string]string),
		Decoys:           make(map[string]core.Decoy),
		LowerDelta:       precursor - low,
		UpperDelta:       high - precursor,
	}

	for _, v := range vectors {
		counts := store.ResidueCounts{}
		for i, c := range v.Counts {
			counts[residues[i]] = int16(c)
		}
		if err := collectTargets(ctx, st, precursor, low, high, v, counts, cfg.MaxVariableMods, fixMap, variableMap, &result); err != nil {
			return result, err
		}
		if err := collectDecoys(ctx, st, precursor, low, high, v, counts, cfg.MaxVariableMods, cfg.DecoyCount-len(result.Decoys), fixMap, variableMap, &result); err != nil {
			return result, err
		}
	}

	if shortfall := cfg.DecoyCount - len(result.Decoys); shortfall > 0 {
		if err := fillDecoyShortfall(ctx, st, precursor, low, high, shortfall, cfg, fixMap, variableMap, &result, rng); err != nil {
			return result, err
		}
	}

	return result, nil
}

func collectTargets(
	ctx context.Context, st store.Store, precursor, low, high int64, v peptide.CountVector, counts store.ResidueCounts,
	maxVariableMods int, fixMap, variableMap map[byte]core.Modification, result *SpectrumResult,
) error {
	candidates, err := st.FindPeptidesWhere(ctx, v.Low, v.High, counts)
	if err != nil {
		return fmt.Errorf("querying peptides: %w", err)
	}
	for _, candidate := range candidates {
		if _, already := result.Targets[candidate.AASequence]; already {
			continue
		}
		mp, err := rebuildModifiedPeptide(candidate.AASequence, precursor, low, high, fixMap)
		if err != nil {
			return fmt.Errorf("rebuilding candidate %q: %w", candidate.AASequence, err)
		}
		hit := mp.HitsMassTolerance()
		if !hit {
			hit = mp.TryVariableModifications(maxVariableMods, variableMap)
		}
		if !hit {
			continue
		}
		result.Targets[candidate.AASequence] = candidate
		result.TargetModSummary[candidate.AASequence] = core.ModificationSummary(mp.AppliedModifications())
	}
	return nil
}

func collectDecoys(
	ctx context.Context, st store.Store, precursor, low, high int64, v peptide.CountVector, counts store.ResidueCounts,
	maxVariableMods, limit int, fixMap, variableMap map[byte]core.Modification, result *SpectrumResult,
) error {
	if limit <= 0 {
		return nil
	}
	candidates, err := st.FindDecoysWhere(ctx, v.Low, v.High, counts, limit)
	if err != nil {
		return fmt.Errorf("querying decoys: %w", err)
	}
	added := 0
	for _, d := range candidates {
		if _, already := result.Decoys[d.AASequence]; already {
			continue
		}
		mp, err := rebuildModifiedPeptide(d.AASequence, precursor, low, high, fixMap)
		if err != nil {
			return fmt.Errorf("rebuilding decoy %q: %w", d.AASequence, err)
		}
		hit := mp.HitsMassTolerance()
		if !hit {
			hit = mp.TryVariableModifications(maxVariableMods, variableMap)
		}
		if !hit {
			continue
		}
		d.AppliedModifications = mp.AppliedModifications()
		result.Decoys[d.AASequence] = d
		added++
		if added >= limit {
			break
		}
	}
	return nil
}

// rebuildModifiedPeptide replays sequence through the fixed-modification
// push loop under the full precursor window, matching the original's
// ModifiedPeptide::from_peptide/from_decoy.
func rebuildModifiedPeptide(sequence string, precursor, low, high int64, fixMap map[byte]core.Modification) (*peptide.ModifiedPeptide, error) {
	mp := peptide.New("", precursor, low, high)
	for _, aa := range []byte(sequence) {
		var fixMod *core.Modification
		if mod, ok := fixMap[aa]; ok {
			m := mod
			fixMod = &m
		}
		if _, err := mp.PushAminoAcidAndFixModification(aa, fixMod); err != nil {
			return nil, err
		}
	}
	return mp, nil
}

func fillDecoyShortfall(
	ctx context.Context, st store.Store, precursor, low, high int64, shortfall int, cfg Config,
	fixMap, variableMap map[byte]core.Modification, result *SpectrumResult, rng *rand.Rand,
) error {
	existingTargets := make([]core.Peptide, 0, len(result.Targets))
	for _, t := range result.Targets {
		existingTargets = append(existingTargets, t)
	}
	sort.Slice(existingTargets, func(i, j int) bool { return existingTargets[i].AASequence < existingTargets[j].AASequence })

	shuffled, err := decoy.VaryTargets(ctx, st, existingTargets, shortfall, precursor, low, high, fixMap, variableMap, cfg.MaxVariableMods, rng)
	if err != nil {
		return fmt.Errorf("vary-targets decoy strategy: %w", err)
	}
	for _, d := range shuffled {
		result.Decoys[d.AASequence] = d
	}

	remaining := shortfall - len(shuffled)
	if remaining <= 0 {
		return nil
	}

	genResult, err := decoy.Generate(ctx, st, decoy.Params{
		Precursor: precursor, Low: low, High: high,
		TargetCount: remaining, Workers: cfg.DecoyWorkers, MaxVariableMods: cfg.MaxVariableMods,
		FixMap: fixMap, VariableMap: variableMap, MaxDuration: cfg.MaxDecoyDuration,
	})
	if err != nil {
		return fmt.Errorf("generating decoys: %w", err)
	}
	result.DecoyTimeout = genResult.Timeout
	for _, d := range genResult.Decoys {
		result.Decoys[d.AASequence] = d
	}
	return nil
}

// modificationBounds returns the sorted list of residues carrying any
// modification, their per-residue modification mass, and the maximum
// plausible occurrence count of each within precursor's mass.
func modificationBounds(precursor int64, fixMap, variableMap map[byte]core.Modification) (residues []byte, modMass []int64, maxCounts []int) {
	seen := make(map[byte]core.Modification)
	for r, m := range fixMap {
		seen[r] = m
	}
	for r, m := range variableMap {
		seen[r] = m
	}
	for r := range seen {
		residues = append(residues, r)
	}
	sort.Slice(residues, func(i, j int) bool { return residues[i] < residues[j] })
	for _, r := range residues {
		mod := seen[r]
		aa, err := core.Get(r)
		if err != nil {
			continue
		}
		modMass = append(modMass, mod.Mass)
		maxCounts = append(maxCounts, peptide.MaxModificationCount(precursor, aa.MonoMass, mod.Mass))
	}
	return residues, modMass, maxCounts
}
