package fasta

import (
	"strings"
	"testing"
)

func TestReaderSplitsRecordsOnHeaderLines(t *testing.T) {
	input := ">sp|P77377|TEST1\nABCDE\nFGH\n>sp|O43426|TEST2\nIJKLM\n"
	r := NewReader(strings.NewReader(input))

	var got []struct {
		accession, sequence string
	}
	for r.Next() {
		p := r.Protein()
		got = append(got, struct{ accession, sequence string }{p.Accession, p.AASequence})
	}
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].sequence != "ABCDEFGH" {
		t.Errorf("record 0 sequence = %q, want %q", got[0].sequence, "ABCDEFGH")
	}
	if got[1].sequence != "IJKLM" {
		t.Errorf("record 1 sequence = %q, want %q", got[1].sequence, "IJKLM")
	}
}

func TestReaderSingleRecordNoTrailingNewline(t *testing.T) {
	input := ">sp|P77377|TEST1\nABCDE"
	r := NewReader(strings.NewReader(input))
	if !r.Next() {
		t.Fatalf("expected one record, got none (err=%v)", r.Err())
	}
	if r.Protein().AASequence != "ABCDE" {
		t.Errorf("sequence = %q, want %q", r.Protein().AASequence, "ABCDE")
	}
	if r.Next() {
		t.Error("expected no second record")
	}
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if r.Next() {
		t.Error("expected no records from empty input")
	}
	if r.Err() != nil {
		t.Errorf("unexpected error: %v", r.Err())
	}
}
