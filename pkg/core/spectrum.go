// Package core provides the intermediate representation (IR) models and
// validation logic used across the digestion and identification drivers.
package core

import (
	"fmt"
	"strings"

	"github.com/mpc-bioinformatics/decoydb/pkg/mass"
)

// Spectrum is an MS² precursor observation extracted from an mzML document:
// a spectrum/scan identity plus the observed mass-to-charge ratio and
// charge state.
type Spectrum struct {
	SpectrumID string
	ScanID     string
	MZ         float64
	Charge     int
}

// ValidationError represents one or more problems found while validating a
// Spectrum.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a spectrum carries everything the identification
// driver needs before it derives a precursor mass from it.
func (s *Spectrum) Validate() error {
	var errs []string
	if s.SpectrumID == "" && s.ScanID == "" {
		errs = append(errs, "spectrum must have a spectrum id or a scan id")
	}
	if s.MZ <= 0 {
		errs = append(errs, "m/z must be positive")
	}
	if s.Charge <= 0 {
		errs = append(errs, "charge must be positive")
	}
	if len(errs) > 0 {
		return &ValidationError{Field: "Spectrum", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// PrecursorMass returns the neutral monoisotopic precursor mass implied by
// this spectrum's m/z and charge, in fixed-point units.
func (s Spectrum) PrecursorMass() int64 {
	return mass.ToInt(mass.ThomsonToDalton(s.MZ, s.Charge))
}

// Name returns a human-readable identity, preferring the scan id.
func (s Spectrum) Name() string {
	if s.ScanID != "" {
		return s.ScanID
	}
	return s.SpectrumID
}
