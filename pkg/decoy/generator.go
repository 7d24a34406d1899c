// Package decoy implements the parallel random-sequence decoy generator
// and the cheaper target-shuffling supplement.
package decoy

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/peptide"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

// Result reports the outcome of one generation run.
type Result struct {
	Decoys  []core.Decoy
	Timeout bool
}

// Params bundles one generation run's inputs.
type Params struct {
	Precursor, Low, High int64
	TargetCount          int
	Workers              int
	MaxVariableMods      int
	FixMap               map[byte]core.Modification
	VariableMap          map[byte]core.Modification
	MaxDuration          time.Duration
	ReportInterval       time.Duration
}

// accepted is the shared, mutex-guarded set of decoys found so far,
// deduplicated by generalized sequence.
type accepted struct {
	mu   sync.Mutex
	byAA map[string]core.Decoy
}

func newAccepted() *accepted {
	return &accepted{byAA: make(map[string]core.Decoy)}
}

func (a *accepted) tryAdd(d core.Decoy) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byAA[d.AASequence]; exists {
		return false
	}
	a.byAA[d.AASequence] = d
	return true
}

func (a *accepted) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byAA)
}

func (a *accepted) values() []core.Decoy {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Decoy, 0, len(a.byAA))
	for _, d := range a.byAA {
		out = append(out, d)
	}
	return out
}

// Generate runs Params.Workers worker goroutines, each performing a
// random-walk-and-substitution search for sequences landing in
// [Params.Low, Params.High], persisting accepted decoys via st, until
// either TargetCount distinct decoys are accepted or MaxDuration elapses.
func Generate(ctx context.Context, st store.Store, p Params) (Result, error) {
	if p.ReportInterval == 0 {
		p.ReportInterval = 20 * time.Second
	}
	substitutes, err := peptide.NewSubstituteMap(p.FixMap)
	if err != nil {
		return Result{}, fmt.Errorf("building substitute map: %w", err)
	}
	runCtx, cancel := context.WithTimeout(ctx, p.MaxDuration)
	defer cancel()

	set := newAccepted()
	var cancelled atomic.Bool
	group, groupCtx := errgroup.WithContext(runCtx)

	ticker := time.NewTicker(p.ReportInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-groupCtx.Done():
				return
			case <-ticker.C:
				fmt.Printf("decoy generation progress: %d/%d accepted\n", set.size(), p.TargetCount)
			}
		}
	}()

	for w := 0; w < p.Workers; w++ {
		seed := int64(w) + 1
		group.Go(func() error {
			return runWorker(groupCtx, st, p, substitutes, set, &cancelled, rand.New(rand.NewSource(seed)))
		})
	}

	err = group.Wait()
	timedOut := runCtx.Err() != nil
	if err != nil && !timedOut {
		return Result{}, err
	}
	return Result{Decoys: set.values(), Timeout: timedOut || set.size() < p.TargetCount}, nil
}

func runWorker(
	ctx context.Context, st store.Store, p Params, substitutes peptide.SubstituteMap,
	set *accepted, cancelled *atomic.Bool, rng *rand.Rand,
) error {
	for {
		if ctx.Err() != nil || cancelled.Load() {
			return nil
		}
		if set.size() >= p.TargetCount {
			cancelled.Store(true)
			return nil
		}

		mp := peptide.New("", p.Precursor, p.Low, p.High)
		growRandomWalk(mp, p.FixMap, rng)

		hit := mp.HitsMassTolerance()
		if !hit {
			hit = mp.SwapAminoAcidsToHitMassTolerance(substitutes, p.FixMap, p.MaxVariableMods, p.VariableMap, rng)
		}
		if !hit {
			continue
		}
		if err := persist(ctx, st, mp, set); err != nil && ctx.Err() == nil {
			return err
		}
	}
}

// growRandomWalk uniformly draws letters from core.DecoyAlphabet and
// appends them until the running mass would exceed the window's high
// bound.
func growRandomWalk(mp *peptide.ModifiedPeptide, fixMap map[byte]core.Modification, rng *rand.Rand) {
	for {
		letter := core.DecoyAlphabet[rng.Intn(len(core.DecoyAlphabet))]
		var fixMod *core.Modification
		if mod, ok := fixMap[letter]; ok {
			m := mod
			fixMod = &m
		}
		aa, err := core.Get(letter)
		if err != nil {
			continue
		}
		addedMass := aa.MonoMass
		if fixMod != nil {
			addedMass += fixMod.Mass
		}
		if mp.Mass+addedMass > mp.High {
			return
		}
		if _, err := mp.PushAminoAcidAndFixModification(letter, fixMod); err != nil {
			continue
		}
	}
}

// persist checks the candidate is not already a known Peptide, then
// inserts it as a new base (or modified) decoy. UpsertDecoy retries
// transient store errors internally; any error it returns here is treated
// as permanent and this candidate is skipped.
func persist(ctx context.Context, st store.Store, mp *peptide.ModifiedPeptide, set *accepted) error {
	base, err := mp.AsBaseDecoy()
	if err != nil {
		return err
	}
	exists, err := st.PeptideExists(ctx, base.AASequence)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var decoyToSave core.Decoy
	if mp.ModCount == 0 {
		decoyToSave = base
	} else {
		decoyToSave = mp.AsModifiedDecoy(base)
	}

	id, outcome, err := st.UpsertDecoy(ctx, decoyToSave)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil // permanent failure: skip this decoy, do not abort the run
	}
	decoyToSave.ID = id
	if outcome == store.Created {
		set.tryAdd(decoyToSave)
	}
	return nil
}
