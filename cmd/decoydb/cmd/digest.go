package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpc-bioinformatics/decoydb/pkg/digest"
	"github.com/mpc-bioinformatics/decoydb/pkg/fasta"
	"github.com/mpc-bioinformatics/decoydb/pkg/store/postgres"
)

var digestCmd = &cobra.Command{
	Use:   "digest <fasta>",
	Short: "Digest a protein FASTA and populate the peptide store",
	Args:  cobra.ExactArgs(1),
	RunE:  runDigest,
}

func runDigest(cmd *cobra.Command, args []string) error {
	if digestMinLength > digestMaxLength {
		return fmt.Errorf("--min-length (%d) must not exceed --max-length (%d)", digestMinLength, digestMaxLength)
	}
	constructor, ok := digest.Registry[digestEnzyme]
	if !ok {
		return fmt.Errorf("unknown enzyme %q", digestEnzyme)
	}
	enzyme := constructor(digestMissedCleavages, digestMinLength, digestMaxLength)

	inFile, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening FASTA: %w", err)
	}
	defer inFile.Close()

	ctx := context.Background()
	st, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}
	defer st.Close()
	if err := st.InitSchema(ctx); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	sideCarFile, err := os.Create("unsuccessful_proteins.fasta")
	if err != nil {
		return fmt.Errorf("creating unsuccessful-protein sidecar: %w", err)
	}
	defer sideCarFile.Close()
	sideCar := fasta.NewWriter(sideCarFile)

	reader := fasta.NewReader(inFile)
	summary, err := digest.RunDigestion(ctx, st, reader, sideCar, enzyme, digestThreads)
	if err != nil {
		return fmt.Errorf("digesting: %w", err)
	}
	if err := sideCar.Flush(); err != nil {
		return fmt.Errorf("flushing unsuccessful-protein sidecar: %w", err)
	}

	success(
		"digested %d proteins in %s: %d peptides created, %d already existed",
		summary.ProteinsProcessed, summary.Elapsed.Round(time.Millisecond),
		summary.PeptidesCreated, summary.PeptidesAlreadyExist,
	)
	if summary.ProteinsFailed > 0 {
		warn("%d proteins failed and were written to unsuccessful_proteins.fasta", summary.ProteinsFailed)
	}
	return nil
}
