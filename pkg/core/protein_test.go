package core

import "testing"

func TestExtractAccession(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"sp header", ">sp|P77377|YIDC_ECOLI Membrane protein insertase YidC", "P77377"},
		{"O-prefixed", ">sp|O43426|SYNJ1_HUMAN Synaptojanin-1", "O43426"},
		{"no match falls back to trimmed header", ">not_an_accession", "not_an_accession"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractAccession(tt.header); got != tt.want {
				t.Errorf("ExtractAccession(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestProteinEqualByAccession(t *testing.T) {
	a := NewProtein(">sp|P77377|YIDC_ECOLI", "MSEQ")
	b := NewProtein(">sp|P77377|OTHER_NAME", "DIFFERENTSEQ")
	if !a.Equal(b) {
		t.Error("expected proteins with the same accession to be equal regardless of header/sequence")
	}
}
