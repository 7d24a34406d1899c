package digest

import "github.com/mpc-bioinformatics/decoydb/pkg/core"

// Result pairs a digested, generalized Peptide with its missed-cleavage
// count.
type Result struct {
	Peptide         core.Peptide
	MissedCleavages int
}

// Digest splits protein's sequence with enzyme, expands every contiguous
// run of up to MaxMissedCleavages+1 fragments (that is, up to
// MaxMissedCleavages missed cleavages), and keeps only the
// concatenations whose length falls in [MinLength, MaxLength]. The length
// filter is applied to the concatenated peptide, never to the shorter
// fragments it's built from.
func Digest(enzyme Enzyme, protein core.Protein) ([]Result, error) {
	fragments := enzyme.Split(protein.AASequence)
	n := len(fragments)
	var results []Result
	for start := 0; start < n; start++ {
		built := fragments[start]
		for missed := 0; missed <= enzyme.MaxMissedCleavages(); missed++ {
			end := start + missed
			if end >= n {
				break
			}
			if missed > 0 {
				built += fragments[end]
			}
			if len(built) < enzyme.MinLength() || len(built) > enzyme.MaxLength() {
				continue
			}
			peptide, err := core.NewPeptide(built, int16(missed))
			if err != nil {
				return nil, err
			}
			results = append(results, Result{Peptide: peptide, MissedCleavages: missed})
		}
	}
	return results, nil
}
