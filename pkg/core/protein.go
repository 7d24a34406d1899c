package core

import "regexp"

// accessionPattern is the UniProt accession regex. It contains no lookaround
// assertions, so Go's stdlib RE2-based regexp package handles it directly.
var accessionPattern = regexp.MustCompile(`[OPQ][0-9][A-Z0-9]{3}[0-9]|[A-NR-Z][0-9]([A-Z][A-Z0-9]{2}[0-9]){1,2}`)

// Protein is a FASTA record: an accession extracted from its header, the
// full header line, and its raw amino-acid sequence. Equality is by
// accession.
type Protein struct {
	ID                   int64
	Accession            string
	Header               string
	AASequence           string
	IsCompletelyDigested bool
}

// NewProtein builds a Protein from a FASTA header (including the leading
// '>') and its concatenated sequence lines.
func NewProtein(header, aaSequence string) Protein {
	return Protein{
		Accession:  ExtractAccession(header),
		Header:     header,
		AASequence: aaSequence,
	}
}

// ExtractAccession pulls the UniProt-style accession out of a FASTA header.
// If no accession pattern matches, the header itself (trimmed of its
// leading '>') is returned so callers always have a usable identity key.
func ExtractAccession(header string) string {
	if match := accessionPattern.FindString(header); match != "" {
		return match
	}
	trimmed := header
	if len(trimmed) > 0 && trimmed[0] == '>' {
		trimmed = trimmed[1:]
	}
	return trimmed
}

// Equal compares two proteins by accession only.
func (p Protein) Equal(other Protein) bool {
	return p.Accession == other.Accession
}
