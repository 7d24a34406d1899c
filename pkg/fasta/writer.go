package fasta

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
)

// lineWidth is the conventional FASTA sequence line wrap length.
const lineWidth = 60

// Writer renders Peptide and Decoy records to FASTA, using the header
// conventions in core.Peptide.Header/core.Decoy.Header.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w for FASTA output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WritePeptide emits one target record.
func (fw *Writer) WritePeptide(p core.Peptide, modificationSummary string) error {
	return fw.writeRecord(p.Header(modificationSummary), p.AASequence)
}

// WriteDecoy emits one decoy record.
func (fw *Writer) WriteDecoy(d core.Decoy) error {
	return fw.writeRecord(d.Header(), d.AASequence)
}

// WriteProtein emits one raw protein record, used by the unsuccessful-
// protein sidecar.
func (fw *Writer) WriteProtein(p core.Protein) error {
	return fw.writeRecord(p.Header, p.AASequence)
}

func (fw *Writer) writeRecord(header, sequence string) error {
	if fw.err != nil {
		return fw.err
	}
	if _, err := fmt.Fprintln(fw.w, header); err != nil {
		fw.err = err
		return err
	}
	for i := 0; i < len(sequence); i += lineWidth {
		end := i + lineWidth
		if end > len(sequence) {
			end = len(sequence)
		}
		if _, err := fmt.Fprintln(fw.w, sequence[i:end]); err != nil {
			fw.err = err
			return err
		}
	}
	return nil
}

// Flush flushes the underlying buffered writer.
func (fw *Writer) Flush() error {
	if fw.err != nil {
		return fw.err
	}
	return fw.w.Flush()
}
