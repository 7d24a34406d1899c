package digest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/fasta"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

// recordingStore is a minimal in-memory store.Store that also remembers
// which protein IDs it was asked to mark digested, and whether commits for
// a given protein ID should fail (to exercise the unsuccessful-protein
// path).
type recordingStore struct {
	mu          sync.Mutex
	nextID      int64
	peptides    map[string]int64
	marked      map[int64]bool
	failProtein map[int64]bool
	failFor     string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		peptides:    make(map[string]int64),
		marked:      make(map[int64]bool),
		failProtein: make(map[int64]bool),
	}
}

func (s *recordingStore) UpsertProtein(ctx context.Context, p core.Protein) (int64, store.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if p.Accession == s.failFor {
		s.failProtein[s.nextID] = true
	}
	return s.nextID, store.Created, nil
}

func (s *recordingStore) UpsertPeptide(ctx context.Context, p core.Peptide) (int64, store.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.peptides[p.AASequence]; ok {
		return id, store.AlreadyExists, nil
	}
	s.nextID++
	s.peptides[p.AASequence] = s.nextID
	return s.nextID, store.Created, nil
}

func (s *recordingStore) UpsertAssociation(ctx context.Context, peptideID, proteinID int64) (store.Outcome, error) {
	return store.Created, nil
}

func (s *recordingStore) CommitPeptide(ctx context.Context, p core.Peptide, proteinID int64) (int64, store.Outcome, error) {
	s.mu.Lock()
	fail := s.failProtein[proteinID]
	s.mu.Unlock()
	if fail {
		return 0, 0, errCommitFailed
	}
	return s.UpsertPeptide(ctx, p)
}

func (s *recordingStore) UpsertDecoy(ctx context.Context, d core.Decoy) (int64, store.Outcome, error) {
	return 0, store.Created, nil
}

func (s *recordingStore) PeptideExists(ctx context.Context, generalizedSequence string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.peptides[generalizedSequence]
	return ok, nil
}

func (s *recordingStore) FindPeptidesWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts) ([]core.Peptide, error) {
	return nil, nil
}

func (s *recordingStore) FindDecoysWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts, limit int) ([]core.Decoy, error) {
	return nil, nil
}

func (s *recordingStore) MarkProteinDigested(ctx context.Context, proteinID int64, complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked[proteinID] = complete
	return nil
}

type commitFailedError struct{}

func (commitFailedError) Error() string { return "commit failed" }

var errCommitFailed = commitFailedError{}

func TestRunDigestionCommitsPeptidesAndMarksComplete(t *testing.T) {
	st := newRecordingStore()
	reader := fasta.NewReader(strings.NewReader(">sp|P00001|TEST_HUMAN\nMKPEPTIDEKR\n"))
	enzyme := NewTrypsin(1, 2, 50)

	summary, err := RunDigestion(context.Background(), st, reader, nil, enzyme, 2)
	if err != nil {
		t.Fatalf("RunDigestion: %v", err)
	}
	if summary.ProteinsProcessed != 1 {
		t.Errorf("ProteinsProcessed = %d, want 1", summary.ProteinsProcessed)
	}
	if summary.ProteinsFailed != 0 {
		t.Errorf("ProteinsFailed = %d, want 0", summary.ProteinsFailed)
	}
	if summary.PeptidesCreated == 0 {
		t.Error("expected at least one peptide created")
	}
	if len(st.marked) != 1 {
		t.Fatalf("expected exactly one protein marked digested, got %d", len(st.marked))
	}
	for _, complete := range st.marked {
		if !complete {
			t.Error("expected protein to be marked completely digested")
		}
	}
}

func TestRunDigestionWritesUnsuccessfulProteinOnCommitFailure(t *testing.T) {
	st := newRecordingStore()
	// The header carries no UniProt accession, so the accession falls back
	// to the trimmed header.
	st.failFor = "sp|FAIL1|BAD_HUMAN"
	reader := fasta.NewReader(strings.NewReader(">sp|FAIL1|BAD_HUMAN\nMKPEPTIDEKR\n"))
	enzyme := NewTrypsin(1, 2, 50)

	var sideCar strings.Builder
	writer := fasta.NewWriter(&sideCar)

	summary, err := RunDigestion(context.Background(), st, reader, writer, enzyme, 1)
	if err != nil {
		t.Fatalf("RunDigestion: %v", err)
	}
	if summary.ProteinsFailed != 1 {
		t.Errorf("ProteinsFailed = %d, want 1", summary.ProteinsFailed)
	}
	for _, complete := range st.marked {
		if complete {
			t.Error("expected protein to be marked incomplete")
		}
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.Contains(sideCar.String(), "FAIL1") {
		t.Errorf("expected unsuccessful-protein sidecar to contain FAIL1, got %q", sideCar.String())
	}
}
