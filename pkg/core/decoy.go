package core

import "strconv"

// DecoyHeaderPrefix begins every decoy FASTA header.
const DecoyHeaderPrefix = ">DECOY_"

// Decoy has the same shape as Peptide but is stored separately: a base
// decoy row for the unmodified synthesized sequence, optionally paired with
// a modified-decoy row when the generator applied modifications while
// searching for the mass. A Decoy is only valid if its generalized sequence
// does not also exist as a Peptide.
type Decoy struct {
	ID                   int64
	BaseID               int64 // id of the unmodified base decoy this was derived from; 0 if this is itself a base decoy
	AASequence           string
	Length               int
	Weight               int64
	ResidueCounts        map[byte]int16
	AppliedModifications []Modification
}

// NewBaseDecoy builds an unmodified Decoy row from a generalized sequence.
func NewBaseDecoy(aaSequence string) (Decoy, error) {
	weight, err := SequenceWeight(aaSequence)
	if err != nil {
		return Decoy{}, err
	}
	return Decoy{
		AASequence:    aaSequence,
		Length:        len(aaSequence),
		Weight:        weight,
		ResidueCounts: CountResidues(aaSequence),
	}, nil
}

// Equal compares two decoys by generalized sequence only.
func (d Decoy) Equal(other Decoy) bool {
	return d.AASequence == other.AASequence
}

// Header renders the FASTA decoy header.
func (d Decoy) Header() string {
	header := DecoyHeaderPrefix + d.AASequence
	if summary := ModificationSummary(d.AppliedModifications); summary != "" {
		header += " ModRes=" + summary
	}
	return header
}

// String is a debug representation, in the spirit of the teacher's
// diagnostic Spectrum.Name()/ModString() helpers.
func (d Decoy) String() string {
	return d.AASequence + " (id=" + strconv.FormatInt(d.ID, 10) + ")"
}
