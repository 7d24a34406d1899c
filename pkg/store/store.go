// Package store defines the abstract peptide/decoy persistence interface
// the digestion and identification drivers depend on. The concrete
// Postgres-backed implementation lives in the postgres subpackage.
package store

import (
	"context"
	"errors"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
)

// Outcome reports whether an upsert created a new row or found an existing
// one; both are success cases, never errors.
type Outcome int

const (
	Created Outcome = iota
	AlreadyExists
)

// ErrTransient marks a store error as safe to retry (connection loss,
// deadlock, serialization failure). Callers check with errors.Is.
var ErrTransient = errors.New("transient store error")

// ResidueCounts filters a mass-range query to peptides/decoys with an exact
// count of each listed residue. Residues absent from the map are
// unconstrained.
type ResidueCounts map[byte]int16

// Store is the persistence surface the digestion and identification
// drivers consume. Every upsert uses conflict-tolerant
// "INSERT ... ON CONFLICT DO NOTHING RETURNING id" semantics: a conflict is
// not an error, it is AlreadyExists with the existing row's id filled in.
type Store interface {
	UpsertProtein(ctx context.Context, p core.Protein) (id int64, outcome Outcome, err error)
	UpsertPeptide(ctx context.Context, p core.Peptide) (id int64, outcome Outcome, err error)
	UpsertAssociation(ctx context.Context, peptideID, proteinID int64) (outcome Outcome, err error)
	UpsertDecoy(ctx context.Context, d core.Decoy) (id int64, outcome Outcome, err error)

	// CommitPeptide upserts p and its association to proteinID inside a
	// single transaction, matching the digestion driver's one-transaction-
	// per-emitted-peptide discipline.
	CommitPeptide(ctx context.Context, p core.Peptide, proteinID int64) (id int64, outcome Outcome, err error)

	PeptideExists(ctx context.Context, generalizedSequence string) (bool, error)

	FindPeptidesWhere(ctx context.Context, massLow, massHigh int64, counts ResidueCounts) ([]core.Peptide, error)
	FindDecoysWhere(ctx context.Context, massLow, massHigh int64, counts ResidueCounts, limit int) ([]core.Decoy, error)

	// MarkProteinDigested records whether every emitted peptide for p was
	// committed successfully.
	MarkProteinDigested(ctx context.Context, proteinID int64, complete bool) error
}
