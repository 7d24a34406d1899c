// Package mass implements fixed-point mass arithmetic.
//
// Masses are represented as signed 64-bit integers in units of 10⁻⁶ Da so
// that tolerance comparisons are exact instead of being subject to
// floating-point rounding.
package mass

import "math"

// Scale is the number of integer mass units per Dalton.
const Scale = 1_000_000.0

// ProtonMass is the mass of a single proton (H⁺) in Daltons.
const ProtonMass = 1.007276

// ToInt converts a floating-point Dalton mass to the fixed-point integer
// representation, truncating toward zero.
func ToInt(daltons float64) int64 {
	return int64(daltons * Scale)
}

// ToFloat converts a fixed-point integer mass back to Daltons.
func ToFloat(units int64) float64 {
	return float64(units) / Scale
}

// PPM returns the absolute mass delta, in integer units, that corresponds to
// the given parts-per-million fraction of value.
func PPM(value int64, ppm float64) int64 {
	return int64(math.Round(float64(value) * ppm / 1_000_000.0))
}

// PrecursorTolerance returns the (low, high) integer mass bounds around m
// implied by the given lower/upper ppm tolerances.
func PrecursorTolerance(m int64, lowerPPM, upperPPM float64) (low, high int64) {
	return m - PPM(m, lowerPPM), m + PPM(m, upperPPM)
}

// ThomsonToDalton converts an observed m/z (in Thomson) at the given charge
// state to the neutral monoisotopic mass in Daltons.
func ThomsonToDalton(mz float64, charge int) float64 {
	z := float64(charge)
	return mz*z - ProtonMass*z
}
