package fasta

import (
	"strings"
	"testing"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
)

func TestWriteDecoyHeaderAndWrap(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	d := core.Decoy{AASequence: strings.Repeat("A", 65)}
	if err := w.WriteDecoy(d); err != nil {
		t.Fatalf("WriteDecoy: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 wrapped sequence lines)", len(lines))
	}
	if !strings.HasPrefix(lines[0], core.DecoyHeaderPrefix) {
		t.Errorf("header %q missing prefix %q", lines[0], core.DecoyHeaderPrefix)
	}
	if len(lines[1]) != 60 || len(lines[2]) != 5 {
		t.Errorf("wrap lengths = %d,%d, want 60,5", len(lines[1]), len(lines[2]))
	}
}

func TestWritePeptideHeaderHasModSummary(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	p, err := core.NewPeptide("PEPTIDE", 0)
	if err != nil {
		t.Fatalf("NewPeptide: %v", err)
	}
	p.ID = 42
	if err := w.WritePeptide(p, "(1|test:mod|test)"); err != nil {
		t.Fatalf("WritePeptide: %v", err)
	}
	w.Flush()
	if !strings.Contains(sb.String(), "ModRes=(1|test:mod|test)") {
		t.Errorf("output %q missing modification summary", sb.String())
	}
	if !strings.Contains(sb.String(), core.PeptideHeaderPrefix) {
		t.Errorf("output %q missing prefix %q", sb.String(), core.PeptideHeaderPrefix)
	}
}
