// Package core holds the immutable, process-wide data tables and the plain
// data types (Protein, Peptide, Decoy, Spectrum, Modification) shared by the
// rest of the module.
package core

import (
	"fmt"
	"strings"

	"github.com/mpc-bioinformatics/decoydb/pkg/mass"
)

// WaterMass is the monoisotopic mass of one water molecule, in fixed-point
// units. Every peptide mass starts from this constant.
var WaterMass = mass.ToInt(18.010565)

// AminoAcid describes one of the 26 one-letter residue codes this module
// recognizes: the 20 canonical amino acids, the three ambiguity codes B
// (Asx), J (Xle), Z (Glx), the catch-all X, and the two rare proteinogenic
// residues O (pyrrolysine) and U (selenocysteine).
type AminoAcid struct {
	OneLetter    byte
	Name         string
	ThreeLetter  string
	Formula      string
	MonoMass     int64 // fixed-point Daltons
	AverageMass  int64 // fixed-point Daltons
	Distribution int32 // natural abundance, tenths of a percent
}

// aminoAcids is the immutable, process-wide registry. Values for the 20
// canonical residues are the standard monoisotopic/average residue masses;
// distribution percentages are the Swiss-Prot average amino-acid
// composition. J collapses I and L (same mass, summed distribution); B, Z
// and X are ambiguity codes with no fixed composition so they carry the
// mean mass of the residues they stand in for (X uses the overall average
// residue mass) and a zero distribution weight, since they do not occur in
// real sequences.
var aminoAcids = map[byte]AminoAcid{
	'A': {'A', "Alanine", "Ala", "C3H5NO", mass.ToInt(71.037114), mass.ToInt(71.078800), 825},
	'R': {'R', "Arginine", "Arg", "C6H12N4O", mass.ToInt(156.101111), mass.ToInt(156.187500), 553},
	'N': {'N', "Asparagine", "Asn", "C4H6N2O2", mass.ToInt(114.042927), mass.ToInt(114.103800), 406},
	'D': {'D', "Aspartate", "Asp", "C4H5NO3", mass.ToInt(115.026943), mass.ToInt(115.088600), 545},
	'C': {'C', "Cysteine", "Cys", "C3H5NOS", mass.ToInt(103.009185), mass.ToInt(103.138800), 137},
	'E': {'E', "Glutamate", "Glu", "C5H7NO3", mass.ToInt(129.042593), mass.ToInt(129.115800), 675},
	'Q': {'Q', "Glutamine", "Gln", "C5H8N2O2", mass.ToInt(128.058578), mass.ToInt(128.129200), 393},
	'G': {'G', "Glycine", "Gly", "C2H3NO", mass.ToInt(57.021464), mass.ToInt(57.051320), 707},
	'H': {'H', "Histidine", "His", "C6H7N3O", mass.ToInt(137.058912), mass.ToInt(137.141100), 227},
	'I': {'I', "Isoleucine", "Ile", "C6H11NO", mass.ToInt(113.084064), mass.ToInt(113.158600), 596},
	'L': {'L', "Leucine", "Leu", "C6H11NO", mass.ToInt(113.084064), mass.ToInt(113.158600), 966},
	'J': {'J', "Isoleucine/Leucine", "Xle", "C6H11NO", mass.ToInt(113.084064), mass.ToInt(113.158600), 1562},
	'K': {'K', "Lysine", "Lys", "C6H12N2O", mass.ToInt(128.094963), mass.ToInt(128.174200), 584},
	'M': {'M', "Methionine", "Met", "C5H9NOS", mass.ToInt(131.040485), mass.ToInt(131.192600), 242},
	'F': {'F', "Phenylalanine", "Phe", "C9H9NO", mass.ToInt(147.068414), mass.ToInt(147.176600), 386},
	'P': {'P', "Proline", "Pro", "C5H7NO", mass.ToInt(97.052764), mass.ToInt(97.116700), 470},
	'O': {'O', "Pyrrolysine", "Pyl", "C12H19N3O2", mass.ToInt(237.147727), mass.ToInt(237.301800), 0},
	'S': {'S', "Serine", "Ser", "C3H5NO2", mass.ToInt(87.032028), mass.ToInt(87.078200), 656},
	'T': {'T', "Threonine", "Thr", "C4H7NO2", mass.ToInt(101.047679), mass.ToInt(101.104800), 534},
	'U': {'U', "Selenocysteine", "Sec", "C3H5NOSe", mass.ToInt(150.953636), mass.ToInt(150.038800), 0},
	'V': {'V', "Valine", "Val", "C5H9NO", mass.ToInt(99.068414), mass.ToInt(99.132600), 687},
	'W': {'W', "Tryptophan", "Trp", "C11H10N2O", mass.ToInt(186.079313), mass.ToInt(186.213200), 108},
	'X': {'X', "Unknown", "Xaa", "", mass.ToInt(110.000000), mass.ToInt(110.000000), 0},
	'Y': {'Y', "Tyrosine", "Tyr", "C9H9NO2", mass.ToInt(163.063329), mass.ToInt(163.176000), 292},
	'B': {'B', "Asparagine/Aspartate", "Asx", "", mass.ToInt(114.534935), mass.ToInt(114.596200), 0},
	'Z': {'Z', "Glutamine/Glutamate", "Glx", "", mass.ToInt(128.550586), mass.ToInt(128.622500), 0},
}

// ErrUnknownAminoAcid is returned by Get when the one-letter code is not in
// the registry.
var ErrUnknownAminoAcid = fmt.Errorf("unknown amino acid code")

// Get looks up an amino acid by its (uppercase) one-letter code.
func Get(oneLetter byte) (AminoAcid, error) {
	aa, ok := aminoAcids[oneLetter]
	if !ok {
		return AminoAcid{}, fmt.Errorf("%w: %q", ErrUnknownAminoAcid, oneLetter)
	}
	return aa, nil
}

// Heaviest returns the canonical amino acid with the greatest monoisotopic
// mass (Tryptophan); the rare residue O is heavier and is not considered.
func Heaviest() AminoAcid {
	return aminoAcids['W']
}

// Lightest returns the amino acid with the smallest monoisotopic mass
// (Glycine).
func Lightest() AminoAcid {
	return aminoAcids['G']
}

// Generalize replaces every I and L in sequence with J. It must be applied
// before any sequence is hashed, persisted, or compared for equality.
func Generalize(sequence string) string {
	replacer := strings.NewReplacer("I", "J", "L", "J")
	return replacer.Replace(sequence)
}

// SequenceWeight returns the monoisotopic mass of sequence plus one water,
// in fixed-point units. sequence should already be generalized.
func SequenceWeight(sequence string) (int64, error) {
	weight := WaterMass
	for i := 0; i < len(sequence); i++ {
		aa, err := Get(sequence[i])
		if err != nil {
			return 0, err
		}
		weight += aa.MonoMass
	}
	return weight, nil
}

// CountedResidues are the 20 one-letter codes whose occurrence counts are
// tracked on every persisted Peptide/Decoy row, matching the store schema's
// <letter>_count columns.
var CountedResidues = []byte{'R', 'N', 'D', 'C', 'E', 'Q', 'G', 'H', 'J', 'K', 'M', 'F', 'P', 'O', 'S', 'T', 'U', 'V', 'W', 'Y'}

// CountResidues tallies occurrences of each of CountedResidues in a
// generalized sequence.
func CountResidues(generalizedSequence string) map[byte]int16 {
	counts := make(map[byte]int16, len(CountedResidues))
	for _, letter := range CountedResidues {
		counts[letter] = 0
	}
	for i := 0; i < len(generalizedSequence); i++ {
		letter := generalizedSequence[i]
		if _, tracked := counts[letter]; tracked {
			counts[letter]++
		}
	}
	return counts
}

// DecoyAlphabet is the set of one-letter codes the decoy generator's random
// walk draws from: the 20 canonical amino acids, excluding the ambiguity
// and rare codes I, L, X, B, Z, O, U (J stands in for I/L).
var DecoyAlphabet = []byte{'A', 'R', 'N', 'D', 'C', 'E', 'Q', 'G', 'H', 'J', 'K', 'M', 'F', 'P', 'S', 'T', 'V', 'W', 'Y'}
