package digest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/fasta"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

// Summary accumulates the digestion driver's per-run counters, logged once
// at the end of a run in place of a separate performance-logging file.
type Summary struct {
	ProteinsProcessed    int
	ProteinsFailed       int
	PeptidesCreated      int
	PeptidesAlreadyExist int
	Elapsed              time.Duration
}

// RunDigestion streams proteins from r through a bounded pool of at most
// threads concurrent per-protein digesters, committing each emitted
// peptide transactionally via st.CommitPeptide. A protein whose every
// peptide commits successfully is marked completely digested; one that
// hits a permanent failure is marked incomplete and its record appended to
// unsuccessful.
func RunDigestion(
	ctx context.Context, st store.Store, r *fasta.Reader, unsuccessful *fasta.Writer,
	enzyme Enzyme, threads int,
) (Summary, error) {
	start := time.Now()
	var summary Summary
	var mu sync.Mutex

	semaphore := make(chan struct{}, threads)
	group, groupCtx := errgroup.WithContext(ctx)

	for r.Next() {
		protein := *r.Protein()
		semaphore <- struct{}{}
		group.Go(func() error {
			defer func() { <-semaphore }()
			return digestOneProtein(groupCtx, st, protein, enzyme, unsuccessful, &summary, &mu)
		})
	}
	if err := r.Err(); err != nil {
		return summary, fmt.Errorf("reading FASTA: %w", err)
	}
	if err := group.Wait(); err != nil {
		return summary, err
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

func digestOneProtein(
	ctx context.Context, st store.Store, protein core.Protein, enzyme Enzyme,
	unsuccessful *fasta.Writer, summary *Summary, mu *sync.Mutex,
) error {
	proteinID, _, err := st.UpsertProtein(ctx, protein)
	if err != nil {
		return fmt.Errorf("upserting protein %s: %w", protein.Accession, err)
	}

	results, err := Digest(enzyme, protein)
	complete := err == nil

	if err == nil {
		for _, r := range results {
			_, outcome, commitErr := st.CommitPeptide(ctx, r.Peptide, proteinID)
			if commitErr != nil {
				complete = false
				break
			}
			mu.Lock()
			if outcome == store.Created {
				summary.PeptidesCreated++
			} else {
				summary.PeptidesAlreadyExist++
			}
			mu.Unlock()
		}
	}

	mu.Lock()
	summary.ProteinsProcessed++
	if !complete {
		summary.ProteinsFailed++
	}
	mu.Unlock()

	if markErr := st.MarkProteinDigested(ctx, proteinID, complete); markErr != nil {
		return fmt.Errorf("marking protein %s digested: %w", protein.Accession, markErr)
	}

	if !complete && unsuccessful != nil {
		mu.Lock()
		writeErr := unsuccessful.WriteProtein(protein)
		mu.Unlock()
		if writeErr != nil {
			return fmt.Errorf("writing unsuccessful protein %s: %w", protein.Accession, writeErr)
		}
	}
	return nil
}
