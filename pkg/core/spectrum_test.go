package core

import "testing"

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name:    "valid spectrum",
			spec:    &Spectrum{SpectrumID: "controllerType=0 controllerNumber=1 scan=42", MZ: 500.25, Charge: 2},
			wantErr: false,
		},
		{
			name:    "missing identity",
			spec:    &Spectrum{MZ: 500.25, Charge: 2},
			wantErr: true,
		},
		{
			name:    "non-positive mz",
			spec:    &Spectrum{ScanID: "42", MZ: 0, Charge: 2},
			wantErr: true,
		},
		{
			name:    "non-positive charge",
			spec:    &Spectrum{ScanID: "42", MZ: 500.25, Charge: 0},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpectrumPrecursorMass(t *testing.T) {
	s := Spectrum{ScanID: "1", MZ: 500.0, Charge: 2}
	got := s.PrecursorMass()
	want := int64((500.0*2 - 1.007276*2) * 1_000_000)
	if got != want {
		t.Errorf("PrecursorMass() = %d, want %d", got, want)
	}
}

func TestSpectrumName(t *testing.T) {
	withScan := Spectrum{SpectrumID: "spec-1", ScanID: "42"}
	if got := withScan.Name(); got != "42" {
		t.Errorf("Name() = %q, want %q (scan id preferred)", got, "42")
	}
	withoutScan := Spectrum{SpectrumID: "spec-1"}
	if got := withoutScan.Name(); got != "spec-1" {
		t.Errorf("Name() = %q, want %q", got, "spec-1")
	}
}
