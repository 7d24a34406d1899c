// Package peptide implements the incrementally-mutable modified-peptide
// mass model used by the identification driver and the decoy generator to
// test candidate sequences against a precursor mass window.
package peptide

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/mass"
)

// ErrModificationResidueMismatch is returned when a modification's target
// residue does not match the residue it is being attached to.
var ErrModificationResidueMismatch = errors.New("modification residue mismatch")

// ErrModificationKindMismatch is returned when a fixed modification is
// offered where a variable one is required, or vice versa.
var ErrModificationKindMismatch = errors.New("modification fix/variable mismatch")

// ErrSlotOccupied is returned when SetVariableModificationAt targets a
// position that already carries a modification.
var ErrSlotOccupied = errors.New("modification slot already occupied")

// ModifiedPeptide is a transient, per-candidate container: a growing
// sequence of residues with an aligned vector of optional Anywhere
// modifications, separate N-/C-terminus slots, and a running integer mass.
// It is never persisted directly; AsBaseDecoy/AsModifiedDecoy project it
// into the persisted shape.
type ModifiedPeptide struct {
	Header    string
	Residues  []byte
	Anywhere  []*core.Modification
	NTerm     *core.Modification
	CTerm     *core.Modification
	Mass      int64
	Precursor int64
	Low       int64
	High      int64
	ModCount  int
}

// New seeds an empty ModifiedPeptide carrying just the water mass, ready to
// grow via PushAminoAcidAndFixModification.
func New(header string, precursor, low, high int64) *ModifiedPeptide {
	return &ModifiedPeptide{
		Header:    header,
		Mass:      core.WaterMass,
		Precursor: precursor,
		Low:       low,
		High:      high,
	}
}

// PushAminoAcidAndFixModification appends aa to the sequence. If fixMod is
// non-nil it must be fixed and target aa, or a wrapped
// ErrModificationResidueMismatch/ErrModificationKindMismatch is returned and
// the peptide is left unchanged. Appending a residue strips C-terminus
// status from the previous last residue: any C-terminus modification
// attached there is removed (its mass subtracted) and returned so a caller
// that needs to undo the push can restore it exactly.
func (m *ModifiedPeptide) PushAminoAcidAndFixModification(aa byte, fixMod *core.Modification) (removedCTerm *core.Modification, err error) {
	if fixMod != nil {
		if !fixMod.IsFix {
			return nil, fmt.Errorf("%w: %q is not a fixed modification", ErrModificationKindMismatch, fixMod.Accession)
		}
		if fixMod.Residue != aa {
			return nil, fmt.Errorf("%w: modification targets %q, residue is %q", ErrModificationResidueMismatch, fixMod.Residue, aa)
		}
	}
	aminoAcid, lookupErr := core.Get(aa)
	if lookupErr != nil {
		return nil, lookupErr
	}
	removedCTerm = m.CTerm
	if removedCTerm != nil {
		m.Mass -= removedCTerm.Mass
		m.ModCount--
		m.CTerm = nil
	}
	m.Residues = append(m.Residues, aa)
	m.Anywhere = append(m.Anywhere, nil)
	m.Mass += aminoAcid.MonoMass
	if fixMod != nil {
		m.Anywhere[len(m.Anywhere)-1] = fixMod
		m.Mass += fixMod.Mass
		m.ModCount++
	}
	return removedCTerm, nil
}

// UndoPush reverses the most recent PushAminoAcidAndFixModification call,
// optionally restoring a C-terminus modification that the push had
// stripped.
func (m *ModifiedPeptide) UndoPush(restoreCTerm *core.Modification) error {
	if len(m.Residues) == 0 {
		return errors.New("nothing to undo")
	}
	last := len(m.Residues) - 1
	aa, err := core.Get(m.Residues[last])
	if err != nil {
		return err
	}
	m.Mass -= aa.MonoMass
	if mod := m.Anywhere[last]; mod != nil {
		m.Mass -= mod.Mass
		m.ModCount--
	}
	m.Residues = m.Residues[:last]
	m.Anywhere = m.Anywhere[:last]
	if restoreCTerm != nil {
		m.CTerm = restoreCTerm
		m.Mass += restoreCTerm.Mass
		m.ModCount++
	}
	return nil
}

// SetVariableModificationAt attaches mod, which must be variable (not
// IsFix), to position i. Position 0 with an NTerminus tag and position
// len-1 with a CTerminus tag route to the terminus slots; an Anywhere tag
// writes the i-th Anywhere slot directly. Returns ErrSlotOccupied if the
// target slot already carries a modification.
func (m *ModifiedPeptide) SetVariableModificationAt(i int, mod core.Modification) error {
	if mod.IsFix {
		return fmt.Errorf("%w: %q is a fixed modification", ErrModificationKindMismatch, mod.Accession)
	}
	if i < 0 || i >= len(m.Residues) {
		return fmt.Errorf("position %d out of range [0,%d)", i, len(m.Residues))
	}
	if m.Residues[i] != mod.Residue {
		return fmt.Errorf("%w: modification targets %q, residue at %d is %q", ErrModificationResidueMismatch, mod.Residue, i, m.Residues[i])
	}
	switch {
	case i == 0 && mod.Position == core.NTerminus:
		if m.NTerm != nil {
			return ErrSlotOccupied
		}
		m.NTerm = &mod
	case i == len(m.Residues)-1 && mod.Position == core.CTerminus:
		if m.CTerm != nil {
			return ErrSlotOccupied
		}
		m.CTerm = &mod
	case mod.Position == core.Anywhere:
		if m.Anywhere[i] != nil {
			return ErrSlotOccupied
		}
		m.Anywhere[i] = &mod
	default:
		return fmt.Errorf("modification %q position %v does not apply at index %d", mod.Accession, mod.Position, i)
	}
	m.Mass += mod.Mass
	m.ModCount++
	return nil
}

// RemoveAllVariableModifications clears every non-fixed modification slot
// (Anywhere, NTerm, CTerm), subtracting each one's mass. Fixed
// modifications attached via PushAminoAcidAndFixModification are left in
// place.
func (m *ModifiedPeptide) RemoveAllVariableModifications() {
	for i, mod := range m.Anywhere {
		if mod != nil && !mod.IsFix {
			m.Mass -= mod.Mass
			m.ModCount--
			m.Anywhere[i] = nil
		}
	}
	if m.NTerm != nil && !m.NTerm.IsFix {
		m.Mass -= m.NTerm.Mass
		m.ModCount--
		m.NTerm = nil
	}
	if m.CTerm != nil && !m.CTerm.IsFix {
		m.Mass -= m.CTerm.Mass
		m.ModCount--
		m.CTerm = nil
	}
}

// HitsMassTolerance reports whether the running mass falls in [Low, High].
func (m *ModifiedPeptide) HitsMassTolerance() bool {
	return m.Mass >= m.Low && m.Mass <= m.High
}

// DistanceToPrecursorMass is the absolute distance between the running
// mass and the target precursor mass.
func (m *ModifiedPeptide) DistanceToPrecursorMass() int64 {
	d := m.Precursor - m.Mass
	if d < 0 {
		d = -d
	}
	return d
}

// AppliedModifications collects every non-nil modification slot, in
// sequence order with the terminus slots appended last, for
// ModificationSummary rendering.
func (m *ModifiedPeptide) AppliedModifications() []core.Modification {
	var applied []core.Modification
	for _, mod := range m.Anywhere {
		if mod != nil {
			applied = append(applied, *mod)
		}
	}
	if m.NTerm != nil {
		applied = append(applied, *m.NTerm)
	}
	if m.CTerm != nil {
		applied = append(applied, *m.CTerm)
	}
	return applied
}

// TryVariableModifications searches k = 1..maxK subsets of positions whose
// residue appears in variableMap, in the bitmask-descending order
// Combinations produces, applying each subset's modifications and
// testing HitsMassTolerance. Returns true on the first hit, leaving those
// modifications applied; on exhaustion returns false with M restored to
// the state it had on entry.
func (m *ModifiedPeptide) TryVariableModifications(maxK int, variableMap map[byte]core.Modification) bool {
	var eligible []int
	for i, aa := range m.Residues {
		if _, ok := variableMap[aa]; ok && m.Anywhere[i] == nil {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return false
	}
	if maxK > len(eligible) {
		maxK = len(eligible)
	}
	entryNTerm, entryCTerm := m.NTerm, m.CTerm
	for k := 1; k <= maxK; k++ {
		for combo := range Combinations(len(eligible), k) {
			applied := 0
			ok := true
			for _, idx := range combo {
				pos := eligible[idx]
				mod := variableMap[m.Residues[pos]]
				if err := m.SetVariableModificationAt(pos, mod); err != nil {
					ok = false
					break
				}
				applied++
			}
			if ok && m.HitsMassTolerance() {
				return true
			}
			m.undoLastVariable(combo, eligible, entryNTerm, entryCTerm)
		}
	}
	return false
}

// undoLastVariable clears the slots a failed or rejected
// TryVariableModifications trial had just set: the Anywhere slots of the
// trial's positions and any terminus slot that differs from its entry
// value (nTerm, cTerm).
func (m *ModifiedPeptide) undoLastVariable(combo []int, eligible []int, nTerm, cTerm *core.Modification) {
	for _, idx := range combo {
		pos := eligible[idx]
		if mod := m.Anywhere[pos]; mod != nil {
			m.Mass -= mod.Mass
			m.ModCount--
			m.Anywhere[pos] = nil
		}
	}
	if m.NTerm != nTerm {
		m.Mass -= m.NTerm.Mass
		m.ModCount--
		m.NTerm = nTerm
	}
	if m.CTerm != cTerm {
		m.Mass -= m.CTerm.Mass
		m.ModCount--
		m.CTerm = cTerm
	}
}

// SwapAminoAcidsToHitMassTolerance runs up to 100 outer rounds of
// mass-improving single-residue substitution, falling back to
// TryVariableModifications after each improving swap and, on a round with
// no improving swap, perturbing with a uniformly random substitution
// before trying again. Returns true as soon as the mass tolerance is hit.
func (m *ModifiedPeptide) SwapAminoAcidsToHitMassTolerance(
	substitutes SubstituteMap, fixMap map[byte]core.Modification, maxK int, variableMap map[byte]core.Modification,
	rng *rand.Rand,
) bool {
	if len(m.Residues) == 0 {
		return m.HitsMassTolerance()
	}
	for round := 0; round < 100; round++ {
		if m.HitsMassTolerance() {
			return true
		}
		improved := false
		for i := range m.Residues {
			if m.Anywhere[i] != nil && m.Anywhere[i].IsFix {
				continue // fixed modifications travel with their residue, not swappable alone
			}
			bestLetter, bestDelta, found := substitutes.BestImprovement(m.Residues[i], m.Precursor-m.Mass)
			if !found {
				continue
			}
			m.applySubstitution(i, bestLetter, fixMap)
			_ = bestDelta
			improved = true
			if m.HitsMassTolerance() {
				return true
			}
			if m.TryVariableModifications(maxK, variableMap) {
				return true
			}
		}
		if !improved {
			i := rng.Intn(len(m.Residues))
			letter := core.DecoyAlphabet[rng.Intn(len(core.DecoyAlphabet))]
			m.applySubstitution(i, letter, fixMap)
		}
	}
	return m.HitsMassTolerance()
}

// applySubstitution replaces the residue at i with newLetter, removing any
// modification attached there and attaching newLetter's fixed modification
// if one exists.
func (m *ModifiedPeptide) applySubstitution(i int, newLetter byte, fixMap map[byte]core.Modification) {
	oldAA, _ := core.Get(m.Residues[i])
	m.Mass -= oldAA.MonoMass
	if mod := m.Anywhere[i]; mod != nil {
		m.Mass -= mod.Mass
		m.ModCount--
		m.Anywhere[i] = nil
	}
	newAA, _ := core.Get(newLetter)
	m.Residues[i] = newLetter
	m.Mass += newAA.MonoMass
	if mod, ok := fixMap[newLetter]; ok {
		m.Anywhere[i] = &mod
		m.Mass += mod.Mass
		m.ModCount++
	}
}

func (m *ModifiedPeptide) generalizedSequence() string {
	return core.Generalize(string(m.Residues))
}

// AsBaseDecoy projects this ModifiedPeptide into the unmodified-sequence
// persisted shape, ignoring any modifications currently applied. Its
// weight is the unmodified sequence weight.
func (m *ModifiedPeptide) AsBaseDecoy() (core.Decoy, error) {
	return core.NewBaseDecoy(m.generalizedSequence())
}

// AsModifiedDecoy projects this ModifiedPeptide into a decoy row that
// references base as its unmodified origin, carrying the currently applied
// modifications for header rendering.
func (m *ModifiedPeptide) AsModifiedDecoy(base core.Decoy) core.Decoy {
	return core.Decoy{
		BaseID:               base.ID,
		AASequence:           m.generalizedSequence(),
		Length:               len(m.Residues),
		Weight:               m.Mass,
		ResidueCounts:        core.CountResidues(m.generalizedSequence()),
		AppliedModifications: m.AppliedModifications(),
	}
}

// WeightFloat reports the current fixed-point mass converted to Daltons.
func (m *ModifiedPeptide) WeightFloat() float64 {
	return mass.ToFloat(m.Mass)
}
