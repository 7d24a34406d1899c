// Package mzml provides a streaming reader over indexed mzML documents,
// extracting MS level 2 precursor m/z and charge.
package mzml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
)

// cvParam mirrors the mzML <cvParam> element's attributes this reader
// cares about.
type cvParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// selectedIon mirrors <selectedIon>, which carries the precursor m/z and
// charge as sibling cvParams.
type selectedIon struct {
	CVParams []cvParam `xml:"cvParam"`
}

type precursor struct {
	SelectedIonList struct {
		SelectedIon []selectedIon `xml:"selectedIon"`
	} `xml:"selectedIonList"`
}

// spectrumXML mirrors the subset of mzML's <spectrum> element this reader
// needs: its id, the "ms level" cvParam, and the precursor list.
type spectrumXML struct {
	ID            string    `xml:"id,attr"`
	CVParams      []cvParam `xml:"cvParam"`
	PrecursorList struct {
		Precursor []precursor `xml:"precursor"`
	} `xml:"precursorList"`
}

// Reader streams <spectrum> elements out of an mzML document one at a
// time, skipping anything that is not an MS level 2 scan carrying both a
// precursor m/z and charge.
type Reader struct {
	decoder *xml.Decoder
	current *core.Spectrum
	err     error
}

// NewReader wraps r for streaming mzML spectrum extraction.
func NewReader(r io.Reader) *Reader {
	return &Reader{decoder: xml.NewDecoder(r)}
}

// Next advances to the next MS2 spectrum with a usable precursor. Returns
// false at end of document or on error; check Err() to distinguish.
func (r *Reader) Next() bool {
	for {
		tok, err := r.decoder.Token()
		if err == io.EOF {
			return false
		}
		if err != nil {
			r.err = fmt.Errorf("mzml: reading token: %w", err)
			return false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "spectrum" {
			continue
		}
		var raw spectrumXML
		if err := r.decoder.DecodeElement(&raw, &start); err != nil {
			r.err = fmt.Errorf("mzml: decoding spectrum: %w", err)
			return false
		}
		spectrum, ok, parseErr := toSpectrum(raw)
		if parseErr != nil {
			r.err = fmt.Errorf("mzml: spectrum %s: %w", raw.ID, parseErr)
			return false
		}
		if !ok {
			continue
		}
		r.current = &spectrum
		return true
	}
}

// Spectrum returns the most recently read spectrum.
func (r *Reader) Spectrum() *core.Spectrum {
	return r.current
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

func cvParamValue(params []cvParam, name string) (string, bool) {
	for _, p := range params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func toSpectrum(raw spectrumXML) (core.Spectrum, bool, error) {
	level, ok := cvParamValue(raw.CVParams, "ms level")
	if !ok || level != "2" {
		return core.Spectrum{}, false, nil
	}
	if len(raw.PrecursorList.Precursor) == 0 || len(raw.PrecursorList.Precursor[0].SelectedIonList.SelectedIon) == 0 {
		return core.Spectrum{}, false, nil
	}
	ion := raw.PrecursorList.Precursor[0].SelectedIonList.SelectedIon[0]
	mzStr, ok := cvParamValue(ion.CVParams, "selected ion m/z")
	if !ok {
		return core.Spectrum{}, false, nil
	}
	chargeStr, ok := cvParamValue(ion.CVParams, "charge state")
	if !ok {
		return core.Spectrum{}, false, nil
	}
	mz, err := strconv.ParseFloat(mzStr, 64)
	if err != nil {
		return core.Spectrum{}, false, fmt.Errorf("invalid selected ion m/z %q: %w", mzStr, err)
	}
	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return core.Spectrum{}, false, fmt.Errorf("invalid charge state %q: %w", chargeStr, err)
	}
	return core.Spectrum{SpectrumID: raw.ID, MZ: mz, Charge: charge}, true, nil
}
