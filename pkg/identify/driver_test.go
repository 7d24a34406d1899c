package identify

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/mass"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

// memStore is a minimal in-memory store.Store for driver tests.
type memStore struct {
	peptides []core.Peptide
	decoys   []core.Decoy
	nextID   int64
}

func (m *memStore) UpsertProtein(ctx context.Context, p core.Protein) (int64, store.Outcome, error) {
	return 0, store.Created, nil
}

func (m *memStore) UpsertPeptide(ctx context.Context, p core.Peptide) (int64, store.Outcome, error) {
	m.nextID++
	p.ID = m.nextID
	m.peptides = append(m.peptides, p)
	return p.ID, store.Created, nil
}

func (m *memStore) UpsertAssociation(ctx context.Context, peptideID, proteinID int64) (store.Outcome, error) {
	return store.Created, nil
}

func (m *memStore) CommitPeptide(ctx context.Context, p core.Peptide, proteinID int64) (int64, store.Outcome, error) {
	return m.UpsertPeptide(ctx, p)
}

func (m *memStore) UpsertDecoy(ctx context.Context, d core.Decoy) (int64, store.Outcome, error) {
	m.nextID++
	d.ID = m.nextID
	m.decoys = append(m.decoys, d)
	return d.ID, store.Created, nil
}

func (m *memStore) PeptideExists(ctx context.Context, generalizedSequence string) (bool, error) {
	for _, p := range m.peptides {
		if p.AASequence == generalizedSequence {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindPeptidesWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts) ([]core.Peptide, error) {
	var out []core.Peptide
	for _, p := range m.peptides {
		if p.Weight >= massLow && p.Weight <= massHigh {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) FindDecoysWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts, limit int) ([]core.Decoy, error) {
	var out []core.Decoy
	for _, d := range m.decoys {
		if d.Weight >= massLow && d.Weight <= massHigh {
			out = append(out, d)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) MarkProteinDigested(ctx context.Context, proteinID int64, complete bool) error {
	return nil
}

func TestRunFindsExistingTargetWithinTolerance(t *testing.T) {
	peptide, err := core.NewPeptide("PEPTIDE", 0)
	if err != nil {
		t.Fatalf("NewPeptide: %v", err)
	}
	st := &memStore{}
	if _, _, err := st.UpsertPeptide(context.Background(), peptide); err != nil {
		t.Fatalf("UpsertPeptide: %v", err)
	}

	spectrum := core.Spectrum{SpectrumID: "scan=1", Charge: 1}
	// Pick an m/z that reconstructs exactly the peptide's mass for charge 1.
	spectrum.MZ = float64(peptide.Weight)/1_000_000.0 + 1.007276

	cfg := Config{LowerPPM: 50, UpperPPM: 50, DecoyCount: 0}
	result, err := Run(context.Background(), st, spectrum, cfg, nil, nil, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, found := result.Targets[peptide.AASequence]; !found {
		t.Errorf("expected target %q to be found, got %v", peptide.AASequence, result.Targets)
	}
}

func TestRunFillsDecoyShortfallViaGenerator(t *testing.T) {
	peptide, err := core.NewPeptide("PEPTIDE", 0)
	if err != nil {
		t.Fatalf("NewPeptide: %v", err)
	}
	st := &memStore{}
	if _, _, err := st.UpsertPeptide(context.Background(), peptide); err != nil {
		t.Fatalf("UpsertPeptide: %v", err)
	}

	spectrum := core.Spectrum{SpectrumID: "scan=1", Charge: 1}
	spectrum.MZ = float64(peptide.Weight)/1_000_000.0 + 1.007276

	cfg := Config{
		LowerPPM: 1_000_000, UpperPPM: 1_000_000, // wide tolerance so there is room to grow decoys
		DecoyCount: 1, DecoyWorkers: 1, MaxDecoyDuration: 500 * time.Millisecond,
	}
	result, err := Run(context.Background(), st, spectrum, cfg, nil, nil, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Decoys) == 0 && !result.DecoyTimeout {
		t.Error("expected either a generated decoy or an explicit timeout")
	}
}

func TestRunFindsTargetWithFixedModificationAgainstFullPrecursorWindow(t *testing.T) {
	peptide, err := core.NewPeptide("CCPEPTIDE", 0)
	if err != nil {
		t.Fatalf("NewPeptide: %v", err)
	}
	st := &memStore{}
	if _, _, err := st.UpsertPeptide(context.Background(), peptide); err != nil {
		t.Fatalf("UpsertPeptide: %v", err)
	}

	modMass := mass.ToInt(57.021464) // carbamidomethyl on C
	fixMap := map[byte]core.Modification{
		'C': {Accession: "unimod:4", Name: "Carbamidomethyl", Residue: 'C', IsFix: true, Mass: modMass},
	}

	// The observed precursor carries both fixed modifications; the stored
	// peptide row only carries the unmodified weight.
	precursorMass := peptide.Weight + 2*modMass
	spectrum := core.Spectrum{SpectrumID: "scan=2", Charge: 1}
	spectrum.MZ = float64(precursorMass)/1_000_000.0 + 1.007276

	cfg := Config{LowerPPM: 50, UpperPPM: 50, DecoyCount: 0}
	result, err := Run(context.Background(), st, spectrum, cfg, fixMap, nil, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, found := result.Targets[peptide.AASequence]; !found {
		t.Errorf("expected modified target %q to be found against the full precursor window, got %v", peptide.AASequence, result.Targets)
	}
}
