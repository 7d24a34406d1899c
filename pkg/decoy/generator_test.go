package decoy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

// fakeStore is an in-memory store.Store sufficient for exercising the
// generator and VaryTargets without a database.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	peptides map[string]core.Peptide
	decoys   map[string]core.Decoy
}

func newFakeStore() *fakeStore {
	return &fakeStore{peptides: make(map[string]core.Peptide), decoys: make(map[string]core.Decoy)}
}

func (f *fakeStore) UpsertProtein(ctx context.Context, p core.Protein) (int64, store.Outcome, error) {
	return 0, store.Created, nil
}

func (f *fakeStore) UpsertPeptide(ctx context.Context, p core.Peptide) (int64, store.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.peptides[p.AASequence]; ok {
		return existing.ID, store.AlreadyExists, nil
	}
	f.nextID++
	p.ID = f.nextID
	f.peptides[p.AASequence] = p
	return p.ID, store.Created, nil
}

func (f *fakeStore) UpsertAssociation(ctx context.Context, peptideID, proteinID int64) (store.Outcome, error) {
	return store.Created, nil
}

func (f *fakeStore) CommitPeptide(ctx context.Context, p core.Peptide, proteinID int64) (int64, store.Outcome, error) {
	return f.UpsertPeptide(ctx, p)
}

func (f *fakeStore) UpsertDecoy(ctx context.Context, d core.Decoy) (int64, store.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.decoys[d.AASequence]; ok {
		return existing.ID, store.AlreadyExists, nil
	}
	f.nextID++
	d.ID = f.nextID
	f.decoys[d.AASequence] = d
	return d.ID, store.Created, nil
}

func (f *fakeStore) PeptideExists(ctx context.Context, generalizedSequence string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.peptides[generalizedSequence]
	return ok, nil
}

func (f *fakeStore) FindPeptidesWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts) ([]core.Peptide, error) {
	return nil, nil
}

func (f *fakeStore) FindDecoysWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts, limit int) ([]core.Decoy, error) {
	return nil, nil
}

func (f *fakeStore) MarkProteinDigested(ctx context.Context, proteinID int64, complete bool) error {
	return nil
}

func TestGenerateTimesOutOnPathologicalWindow(t *testing.T) {
	st := newFakeStore()
	result, err := Generate(context.Background(), st, Params{
		Precursor:       100,
		Low:             1,  // unreachable: no composition of the decoy alphabet is this light
		High:            2,
		TargetCount:     10,
		Workers:         2,
		MaxVariableMods: 0,
		MaxDuration:     200 * time.Millisecond,
		ReportInterval:  50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !result.Timeout {
		t.Error("expected Timeout = true for a pathological window")
	}
	if len(result.Decoys) > 10 {
		t.Errorf("got %d decoys, want <= 10", len(result.Decoys))
	}
}

func TestGenerateFindsDecoysWithinAchievableWindow(t *testing.T) {
	st := newFakeStore()
	low := core.WaterMass + 4*100_000_000 // a generous window any 4-residue-ish sequence can land in
	result, err := Generate(context.Background(), st, Params{
		Precursor:       low + 50_000_000,
		Low:             low,
		High:            low + 500_000_000,
		TargetCount:     3,
		Workers:         2,
		MaxVariableMods: 0,
		MaxDuration:     2 * time.Second,
		ReportInterval:  500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Decoys) == 0 {
		t.Fatal("expected at least one decoy in an achievable window")
	}
	for _, d := range result.Decoys {
		if d.Weight < low || d.Weight > low+500_000_000 {
			t.Errorf("decoy %q weight %d outside window", d.AASequence, d.Weight)
		}
	}
}
