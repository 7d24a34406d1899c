// decoydb builds a target/decoy peptide database from a protein FASTA and
// answers spectrum-driven candidate retrieval queries against it.
package main

import (
	"fmt"
	"os"

	"github.com/mpc-bioinformatics/decoydb/cmd/decoydb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
