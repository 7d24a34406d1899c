// Package cmd provides the decoydb CLI command implementations.
package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	dsn string

	// digest flags
	digestThreads         int
	digestMissedCleavages int
	digestMinLength       int
	digestMaxLength       int
	digestEnzyme          string

	// identify flags
	identifyModsCSV       string
	identifyDecoyCount    int
	identifyLowerPPM      float64
	identifyUpperPPM      float64
	identifyFragTolerance float64
	identifyThreads       int
	identifyMaxDecoySecs  int
	identifyOut           string
)

var rootCmd = &cobra.Command{
	Use:     "decoydb",
	Short:   "decoydb builds and queries a proteomics target/decoy peptide database",
	Version: "1.0.0",
}

// Execute runs the decoydb CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (required)")
	rootCmd.MarkPersistentFlagRequired("dsn")

	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(identifyCmd)

	digestCmd.Flags().IntVarP(&digestThreads, "threads", "t", 4, "number of proteins to digest concurrently")
	digestCmd.Flags().IntVarP(&digestMissedCleavages, "missed-cleavages", "k", 2, "maximum missed cleavages per peptide")
	digestCmd.Flags().IntVar(&digestMinLength, "min-length", 6, "minimum peptide length")
	digestCmd.Flags().IntVar(&digestMaxLength, "max-length", 50, "maximum peptide length")
	digestCmd.Flags().StringVar(&digestEnzyme, "enzyme", "trypsin", "digestion enzyme")

	identifyCmd.Flags().StringVar(&identifyModsCSV, "mods", "", "path to modification CSV (accession,name,position,is_fix,residue,mass)")
	identifyCmd.Flags().IntVar(&identifyDecoyCount, "decoys", 10, "target number of decoys per spectrum")
	identifyCmd.Flags().Float64Var(&identifyLowerPPM, "lower-ppm", 10, "lower precursor tolerance in ppm")
	identifyCmd.Flags().Float64Var(&identifyUpperPPM, "upper-ppm", 10, "upper precursor tolerance in ppm")
	identifyCmd.Flags().Float64Var(&identifyFragTolerance, "frag-tol", 0.02, "fragment bin tolerance passed through to the Comet parameters file")
	identifyCmd.Flags().IntVarP(&identifyThreads, "threads", "w", 4, "decoy generator worker count")
	identifyCmd.Flags().IntVar(&identifyMaxDecoySecs, "max-decoy-time", 60, "maximum seconds to spend generating decoys per spectrum")
	identifyCmd.Flags().StringVarP(&identifyOut, "out", "o", "identify_out.fasta", "output FASTA path")
}

func success(format string, args ...any) {
	color.New(color.FgGreen).Printf(format+"\n", args...)
}

func warn(format string, args ...any) {
	color.New(color.FgYellow).Printf(format+"\n", args...)
}

func fail(format string, args ...any) {
	color.New(color.FgRed).Printf(format+"\n", args...)
}
