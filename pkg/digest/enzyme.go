// Package digest implements enzymatic protein digestion: splitting a
// protein into cleavage fragments and expanding those fragments into the
// full missed-cleavage peptide set.
package digest

// Enzyme is the capability set an enzymatic digestion rule must provide.
// There is one concrete implementation today (Trypsin); new enzymes are
// added by implementing this interface and registering a constructor in
// Registry, not by branching on enzyme name throughout the codebase.
type Enzyme interface {
	Name() string
	// Split divides a protein sequence into cleavage fragments. The
	// concatenation of all fragments, in order, reproduces the input
	// sequence exactly.
	Split(sequence string) []string
	MaxMissedCleavages() int
	MinLength() int
	MaxLength() int
}

// Registry maps an enzyme name (as accepted by the --enzyme CLI flag) to a
// constructor. Only "trypsin" is registered today; the map shape is what
// lets a second enzyme be added without touching any call site.
var Registry = map[string]func(maxMissedCleavages, minLength, maxLength int) Enzyme{
	"trypsin": func(maxMissedCleavages, minLength, maxLength int) Enzyme {
		return NewTrypsin(maxMissedCleavages, minLength, maxLength)
	},
}
