package digest

// Trypsin implements the Enzyme interface for the rule "cleave after K or R
// unless followed by P". That rule is conventionally expressed as the
// regex lookaround (?<=[KR])(?!P), but Go's stdlib regexp package (RE2)
// cannot evaluate lookaround assertions, so the split is implemented here
// as a direct character scan that produces an identical fragment sequence.
type Trypsin struct {
	maxMissedCleavages int
	minLength          int
	maxLength          int
}

// NewTrypsin builds a Trypsin enzyme with the given digestion parameters.
func NewTrypsin(maxMissedCleavages, minLength, maxLength int) Trypsin {
	return Trypsin{
		maxMissedCleavages: maxMissedCleavages,
		minLength:          minLength,
		maxLength:          maxLength,
	}
}

func (t Trypsin) Name() string           { return "trypsin" }
func (t Trypsin) MaxMissedCleavages() int { return t.maxMissedCleavages }
func (t Trypsin) MinLength() int          { return t.minLength }
func (t Trypsin) MaxLength() int          { return t.maxLength }

// Split divides sequence into fragments at every position following a K or
// R that is not itself followed by a P.
func (t Trypsin) Split(sequence string) []string {
	if len(sequence) == 0 {
		return nil
	}
	var fragments []string
	start := 0
	for i := 0; i < len(sequence); i++ {
		c := sequence[i]
		if c != 'K' && c != 'R' {
			continue
		}
		followedByP := i+1 < len(sequence) && sequence[i+1] == 'P'
		if followedByP {
			continue
		}
		fragments = append(fragments, sequence[start:i+1])
		start = i + 1
	}
	if start < len(sequence) {
		fragments = append(fragments, sequence[start:])
	}
	return fragments
}
