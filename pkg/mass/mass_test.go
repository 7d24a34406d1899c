package mass

import "testing"

func TestToInt(t *testing.T) {
	tests := []struct {
		name    string
		daltons float64
		want    int64
	}{
		{"water", 18.010565, 18010565},
		{"zero", 0.0, 0},
		{"truncates fractional unit", 1.0000009, 1000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToInt(tt.daltons); got != tt.want {
				t.Errorf("ToInt(%v) = %d, want %d", tt.daltons, got, tt.want)
			}
		})
	}
}

func TestToFloatRoundTrip(t *testing.T) {
	units := ToInt(57.021464)
	got := ToFloat(units)
	want := 57.021464
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("ToFloat(ToInt(%v)) = %v, want approximately %v", want, got, want)
	}
}

func TestPrecursorTolerance(t *testing.T) {
	m := ToInt(1000.0)
	low, high := PrecursorTolerance(m, 5, 5)
	wantDelta := PPM(m, 5)
	if m-low != wantDelta {
		t.Errorf("low delta = %d, want %d", m-low, wantDelta)
	}
	if high-m != wantDelta {
		t.Errorf("high delta = %d, want %d", high-m, wantDelta)
	}
}

func TestThomsonToDalton(t *testing.T) {
	mz := 500.5
	charge := 2
	got := ThomsonToDalton(mz, charge)
	want := mz*float64(charge) - ProtonMass*float64(charge)
	if got != want {
		t.Errorf("ThomsonToDalton(%v, %v) = %v, want %v", mz, charge, got, want)
	}
}
