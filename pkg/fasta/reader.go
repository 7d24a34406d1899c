// Package fasta provides a streaming FASTA reader/writer for protein
// databases and a target/decoy output writer for the identification
// driver.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
)

// Reader provides streaming access to a FASTA file: a line starting with
// '>' opens a new record, closing whatever record was being accumulated;
// every other line is appended to the current record's sequence.
type Reader struct {
	scanner        *bufio.Scanner
	pendingHeader  string
	sequenceBuffer strings.Builder
	haveHeader     bool
	current        *core.Protein
	err            error
	done           bool
}

// NewReader wraps r for streaming FASTA iteration.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner}
}

// Next advances to the next protein record. Returns false at EOF or on
// error; check Err() to distinguish the two.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			protein, hadPrevious := r.closeCurrentRecord()
			r.pendingHeader = line
			r.haveHeader = true
			if hadPrevious {
				r.current = &protein
				return true
			}
			continue
		}
		if !r.haveHeader {
			r.err = fmt.Errorf("fasta: sequence data before any header")
			return false
		}
		r.sequenceBuffer.WriteString(line)
	}
	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("fasta: reading: %w", err)
		return false
	}
	r.done = true
	if r.haveHeader {
		protein, _ := r.closeCurrentRecord()
		r.current = &protein
		r.haveHeader = false
		return true
	}
	return false
}

func (r *Reader) closeCurrentRecord() (core.Protein, bool) {
	if !r.haveHeader {
		return core.Protein{}, false
	}
	protein := core.NewProtein(r.pendingHeader, r.sequenceBuffer.String())
	r.sequenceBuffer.Reset()
	return protein, true
}

// Protein returns the most recently read record.
func (r *Reader) Protein() *core.Protein {
	return r.current
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}
