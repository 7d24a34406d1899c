package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mpc-bioinformatics/decoydb/pkg/mass"
)

// Position tags where a Modification may attach.
type Position int

const (
	Anywhere Position = iota
	NTerminus
	CTerminus
)

// PositionFromChar parses the modification CSV's position column (A|C|N).
func PositionFromChar(c byte) (Position, error) {
	switch c {
	case 'A', 'a':
		return Anywhere, nil
	case 'N', 'n':
		return NTerminus, nil
	case 'C', 'c':
		return CTerminus, nil
	default:
		return 0, fmt.Errorf("invalid modification position char %q, want one of A|C|N", c)
	}
}

// Modification is a chemical mass shift attached to a residue or terminus.
// Identity is the tuple (Accession, Position, IsFix, Residue, Mass); the
// hash/map key used throughout this module is Accession alone.
type Modification struct {
	Accession string
	Name      string
	Position  Position
	IsFix     bool
	Residue   byte
	Mass      int64 // fixed-point Daltons
}

// NewModificationFromCSVRow parses one row of the 6-column modification
// table: accession, name, position char (A|C|N), is_fix (0|1), target
// residue, monoisotopic mass.
func NewModificationFromCSVRow(row []string) (Modification, error) {
	if len(row) != 6 {
		return Modification{}, fmt.Errorf("modification row has %d columns, want 6", len(row))
	}
	position, err := PositionFromChar(strings.TrimSpace(row[2])[0])
	if err != nil {
		return Modification{}, err
	}
	isFixInt, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil || (isFixInt != 0 && isFixInt != 1) {
		return Modification{}, fmt.Errorf("invalid is_fix column %q, want 0 or 1", row[3])
	}
	residue := strings.ToUpper(strings.TrimSpace(row[4]))
	if len(residue) != 1 {
		return Modification{}, fmt.Errorf("invalid target residue column %q, want a single letter", row[4])
	}
	massFloat, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
	if err != nil {
		return Modification{}, fmt.Errorf("invalid mass column %q: %w", row[5], err)
	}
	return Modification{
		Accession: strings.ToLower(strings.TrimSpace(row[0])),
		Name:      strings.TrimSpace(row[1]),
		Position:  position,
		IsFix:     isFixInt == 1,
		Residue:   residue[0],
		Mass:      mass.ToInt(massFloat),
	}, nil
}

// LoadModificationsFromCSV reads a headerless 6-column modification table
// and splits it into fixed and variable maps keyed by target residue. A
// residue may only carry one fixed modification; a later row for the same
// residue overrides the earlier one, matching a last-write-wins CSV
// convention.
func LoadModificationsFromCSV(r io.Reader) (fix map[byte]Modification, variable map[byte]Modification, err error) {
	fix = make(map[byte]Modification)
	variable = make(map[byte]Modification)
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6
	for {
		row, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("reading modification CSV: %w", readErr)
		}
		mod, parseErr := NewModificationFromCSVRow(row)
		if parseErr != nil {
			return nil, nil, fmt.Errorf("parsing modification row %v: %w", row, parseErr)
		}
		if mod.IsFix {
			fix[mod.Residue] = mod
		} else {
			variable[mod.Residue] = mod
		}
	}
	return fix, variable, nil
}

// ToCometStaticParam renders this modification as a Comet
// add_<residue>_<name> static-modification parameter line. Residue J has no
// native Comet slot, so it is expressed via Comet's
// add_J_user_amino_acid total-residue-mass parameter instead.
func (m Modification) ToCometStaticParam(jBaseMass int64) string {
	if m.Residue == 'J' {
		return fmt.Sprintf("add_J_user_amino_acid = %.6f", mass.ToFloat(jBaseMass+m.Mass))
	}
	name := strings.ToLower(m.Name)
	return fmt.Sprintf("add_%c_%s = %.6f", m.Residue, name, mass.ToFloat(m.Mass))
}

// ToCometVariableParam renders this modification as a Comet variable_modNN
// parameter line. modNumber is 1-based (Comet supports up to nine,
// variable_mod01..variable_mod09).
func (m Modification) ToCometVariableParam(modNumber int, maxCountPerPeptide int) string {
	distantToTerminus := -1
	if m.Position != Anywhere {
		distantToTerminus = 1
	}
	distantReferToTerminus := 2
	if m.Position == CTerminus {
		distantReferToTerminus = 3
	}
	return fmt.Sprintf(
		"variable_mod%02d = %.6f %c 0 %d %d %d 0",
		modNumber, mass.ToFloat(m.Mass), m.Residue, maxCountPerPeptide, distantToTerminus, distantReferToTerminus,
	)
}

// ModificationSummary renders the FASTA header modification annotation:
// "(count|accession|name)" groups sorted alphabetically by "accession|name".
func ModificationSummary(applied []Modification) string {
	type group struct {
		key   string
		count int
		mod   Modification
	}
	groups := make(map[string]*group)
	order := make([]string, 0, len(applied))
	for _, mod := range applied {
		key := mod.Accession + "|" + mod.Name
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, mod: mod}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
	}
	sort.Strings(order)
	var sb strings.Builder
	for _, key := range order {
		g := groups[key]
		fmt.Fprintf(&sb, "(%d|%s|%s)", g.count, g.mod.Accession, g.mod.Name)
	}
	return sb.String()
}
