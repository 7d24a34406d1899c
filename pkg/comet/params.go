// Package comet renders a Comet search-engine parameters file for one
// identification run's output FASTA.
package comet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/mass"
)

const paramsBegin = `
# comet_version 2018.01 rev. 4
# Comet MS/MS search engine parameters file.
# Everything following the '#' symbol is treated as a comment.

decoy_search = 0
peff_format = 0
peff_obo =

num_threads = 0

peptide_mass_units = 2
mass_type_parent = 1
mass_type_fragment = 1
precursor_tolerance_type = 1
isotope_error = 3

search_enzyme_number = 1
num_enzyme_termini = 2
allowed_missed_cleavage = 2

max_variable_mods_in_peptide = 5
require_variable_mod = 0

theoretical_fragment_ions = 1
use_A_ions = 0
use_B_ions = 1
use_C_ions = 0
use_X_ions = 0
use_Y_ions = 1
use_Z_ions = 0
use_NL_ions = 0

output_sqtstream = 0
output_sqtfile = 0
output_txtfile = 1
output_pepxmlfile = 0
output_percolatorfile = 0
print_expect_score = 1
show_fragment_ions = 0

sample_enzyme_number = 1

scan_range = 0 0
precursor_charge = 0 0
override_charge = 0
ms_level = 2
activation_method = ALL

digest_mass_range = 600.0 5000.0
skip_researching = 1
max_fragment_charge = 3
max_precursor_charge = 6
nucleotide_reading_frame = 0
clip_nterm_methionine = 0
spectrum_batch_size = 0
decoy_prefix = DECOY_
equal_I_and_L = 1
output_suffix =
mass_offsets =

minimum_peaks = 10
minimum_intensity = 0
remove_precursor_peak = 0
remove_precursor_tolerance = 1.5
clear_mz_range = 0.0 0.0

add_Cterm_peptide = 0.0
add_Nterm_peptide = 0.0
add_Cterm_protein = 0.0
add_Nterm_protein = 0.0

fragment_bin_offset = 0

`

const paramsEnd = `
[COMET_ENZYME_INFO]
0.  No_enzyme              0      -           -
1.  Trypsin                1      KR          P
2.  Trypsin/P              1      KR          -
3.  Lys_C                  1      K           P
4.  Lys_N                  0      K           -
5.  Arg_C                  1      R           P
6.  Asp_N                  0      D           -
7.  CNBr                   1      M           -
8.  Glu_C                  1      DE          P
9.  PepsinA                1      FL          P
10. Chymotrypsin           1      FWYL        P
`

// defaultJBaseMass is the literal fallback residue mass Comet's
// user-amino-acid slot receives for J (Isoleucine/Leucine) when no fixed
// modification targets J: Xle's monoisotopic mass to five decimal places.
const defaultJBaseMass = 113.08406

// Params holds everything needed to render one Comet parameters file.
type Params struct {
	FixMap                   map[byte]core.Modification
	VariableMap              map[byte]core.Modification
	FASTAPath                string
	NumTargetAndDecoys       int
	MaxVariableModsInPeptide int
	FragmentTolerance        float64
	LowerPrecursorDelta      int64
	UpperPrecursorDelta      int64
}

// Render builds the full parameters file text: fixed preamble, computed
// search parameters, sorted static/variable modification lines (for
// deterministic output), fixed epilogue.
func Render(p Params) string {
	var sb strings.Builder
	sb.WriteString(paramsBegin)

	greatest := p.LowerPrecursorDelta
	if p.UpperPrecursorDelta > greatest {
		greatest = p.UpperPrecursorDelta
	}
	fmt.Fprintf(&sb, "peptide_mass_tolerance = %.4f\n", mass.ToFloat(greatest))
	fmt.Fprintf(&sb, "fragment_bin_tol = %v\n", p.FragmentTolerance)
	fmt.Fprintf(&sb, "num_results = %d\n", p.NumTargetAndDecoys)
	fmt.Fprintf(&sb, "num_output_lines = %d\n", p.NumTargetAndDecoys)
	fmt.Fprintf(&sb, "database_name = %s\n", p.FASTAPath)

	for _, residue := range sortedKeys(p.FixMap) {
		sb.WriteString(p.FixMap[residue].ToCometStaticParam(mass.ToInt(defaultJBaseMass)))
		sb.WriteString("\n")
	}
	if _, hasJ := p.FixMap['J']; !hasJ {
		fmt.Fprintf(&sb, "add_J_user_amino_acid = %.5f\n", defaultJBaseMass)
	}

	modNumber := 1
	for _, residue := range sortedKeys(p.VariableMap) {
		sb.WriteString(p.VariableMap[residue].ToCometVariableParam(modNumber, p.MaxVariableModsInPeptide))
		sb.WriteString("\n")
		if modNumber == 9 {
			break
		}
		modNumber++
	}

	sb.WriteString(paramsEnd)
	return sb.String()
}

func sortedKeys(m map[byte]core.Modification) []byte {
	keys := make([]byte, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
