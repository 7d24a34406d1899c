package core

import "strconv"

// PeptideHeaderPrefix begins every target FASTA header.
const PeptideHeaderPrefix = ">PEPTIDE_"

// Peptide is a digested, generalized amino-acid sequence together with its
// integer mass and per-residue composition. Equality is by generalized
// sequence.
type Peptide struct {
	ID                      int64
	AASequence              string // already generalized (I/L -> J)
	Length                  int
	NumberOfMissedCleavages int16
	Weight                  int64 // fixed-point Daltons, includes one water
	ResidueCounts           map[byte]int16
}

// NewPeptide builds a Peptide from a raw (non-generalized) sequence and its
// missed-cleavage count.
func NewPeptide(aaSequence string, numberOfMissedCleavages int16) (Peptide, error) {
	generalized := Generalize(aaSequence)
	weight, err := SequenceWeight(generalized)
	if err != nil {
		return Peptide{}, err
	}
	return Peptide{
		AASequence:              generalized,
		Length:                  len(generalized),
		NumberOfMissedCleavages: numberOfMissedCleavages,
		Weight:                  weight,
		ResidueCounts:           CountResidues(generalized),
	}, nil
}

// Equal compares two peptides by generalized sequence only.
func (p Peptide) Equal(other Peptide) bool {
	return p.AASequence == other.AASequence
}

// Header renders the FASTA target header, including the supplied
// modification summary (empty string for no modifications).
func (p Peptide) Header(modificationSummary string) string {
	header := PeptideHeaderPrefix + p.AASequence + " MaxDecoyId=" + strconv.FormatInt(p.ID, 10)
	if modificationSummary != "" {
		header += " ModRes=" + modificationSummary
	}
	return header
}
