// Package postgres implements store.Store on top of a pgx connection pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/store"
)

//go:embed schema.sql
var schemaSQL string

// Store is a Postgres-backed store.Store. Each call borrows connections
// from the pool; CommitPeptide runs inside one transaction, while the other
// calls run their statements directly on the pool without an enclosing
// transaction. Callers never share a connection across goroutines.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against dsn and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// InitSchema creates every table this store needs if it does not already
// exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// isTransient classifies a Postgres error by SQLSTATE class: connection
// exceptions (class 08), serialization failure (40001) and deadlock
// detected (40P01) are retry-eligible; everything else, including a plain
// unique-violation, is not (a unique-violation on these tables means the
// row already exists, which upsertReturningID treats as AlreadyExists
// directly, never as a reason to retry).
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return true
	}
	if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
		return true
	}
	return false
}

// withFixedRetry retries fn up to 3 times with a short fixed sleep when fn
// fails with a transient store error, matching the digestion driver's
// retry discipline (§4.2/§7).
func withFixedRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", store.ErrTransient, err)
}

// withRandomBackoffRetry retries fn up to 3 times with a 1-6s randomized
// sleep, matching the decoy generator's retry discipline (§4.4/§7).
func withRandomBackoffRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		backoff := time.Duration(1000+rand.Intn(5000)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%w: %v", store.ErrTransient, err)
}

func residueValues(counts map[byte]int16) []any {
	values := make([]any, len(core.CountedResidues))
	for i, letter := range core.CountedResidues {
		values[i] = counts[letter]
	}
	return values
}

const peptideColumns = "aa_sequence, number_of_missed_cleavages, weight, length, " +
	"r_count, n_count, d_count, c_count, e_count, q_count, g_count, h_count, j_count, k_count, " +
	"m_count, f_count, p_count, o_count, s_count, t_count, u_count, v_count, w_count, y_count"

func (s *Store) UpsertProtein(ctx context.Context, p core.Protein) (int64, store.Outcome, error) {
	var id int64
	var outcome store.Outcome
	err := withFixedRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx,
			"INSERT INTO proteins (accession, header, aa_sequence) VALUES ($1, $2, $3) "+
				"ON CONFLICT (accession) DO NOTHING RETURNING id",
			p.Accession, p.Header, p.AASequence)
		switch err := row.Scan(&id); {
		case err == nil:
			outcome = store.Created
			return nil
		case errors.Is(err, pgx.ErrNoRows):
			return s.pool.QueryRow(ctx, "SELECT id FROM proteins WHERE accession = $1 LIMIT 1", p.Accession).Scan(&id)
		default:
			return err
		}
	})
	if err != nil {
		return 0, 0, err
	}
	if id != 0 && outcome != store.Created {
		outcome = store.AlreadyExists
	}
	return id, outcome, nil
}

func (s *Store) UpsertPeptide(ctx context.Context, p core.Peptide) (int64, store.Outcome, error) {
	var id int64
	outcome := store.AlreadyExists
	err := withFixedRetry(ctx, func() error {
		args := append([]any{p.AASequence, p.NumberOfMissedCleavages, p.Weight, p.Length}, residueValues(p.ResidueCounts)...)
		query := fmt.Sprintf(
			"INSERT INTO peptides (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24) "+
				"ON CONFLICT (aa_sequence, weight) DO NOTHING RETURNING id", peptideColumns)
		row := s.pool.QueryRow(ctx, query, args...)
		switch err := row.Scan(&id); {
		case err == nil:
			outcome = store.Created
			return nil
		case errors.Is(err, pgx.ErrNoRows):
			return s.pool.QueryRow(ctx, "SELECT id FROM peptides WHERE aa_sequence = $1 AND weight = $2 LIMIT 1", p.AASequence, p.Weight).Scan(&id)
		default:
			return err
		}
	})
	if err != nil {
		return 0, 0, err
	}
	return id, outcome, nil
}

func (s *Store) UpsertAssociation(ctx context.Context, peptideID, proteinID int64) (store.Outcome, error) {
	outcome := store.AlreadyExists
	err := withFixedRetry(ctx, func() error {
		tag, err := s.pool.Exec(ctx,
			"INSERT INTO peptides_proteins (peptide_id, protein_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			peptideID, proteinID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			outcome = store.Created
		}
		return nil
	})
	return outcome, err
}

// CommitPeptide runs the peptide upsert and its protein association
// upsert inside one transaction, retrying the whole transaction on a
// transient error per the digestion driver's per-peptide commit
// discipline.
func (s *Store) CommitPeptide(ctx context.Context, p core.Peptide, proteinID int64) (int64, store.Outcome, error) {
	var id int64
	outcome := store.AlreadyExists
	err := withFixedRetry(ctx, func() error {
		return s.WithTransaction(ctx, func(tx pgx.Tx) error {
			args := append([]any{p.AASequence, p.NumberOfMissedCleavages, p.Weight, p.Length}, residueValues(p.ResidueCounts)...)
			query := fmt.Sprintf(
				"INSERT INTO peptides (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24) "+
					"ON CONFLICT (aa_sequence, weight) DO NOTHING RETURNING id", peptideColumns)
			row := tx.QueryRow(ctx, query, args...)
			switch err := row.Scan(&id); {
			case err == nil:
				outcome = store.Created
			case errors.Is(err, pgx.ErrNoRows):
				if err := tx.QueryRow(ctx, "SELECT id FROM peptides WHERE aa_sequence = $1 AND weight = $2 LIMIT 1", p.AASequence, p.Weight).Scan(&id); err != nil {
					return err
				}
			default:
				return err
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO peptides_proteins (peptide_id, protein_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				id, proteinID)
			return err
		})
	})
	if err != nil {
		return 0, 0, err
	}
	return id, outcome, nil
}

func (s *Store) UpsertDecoy(ctx context.Context, d core.Decoy) (int64, store.Outcome, error) {
	var id int64
	outcome := store.AlreadyExists
	// The base_decoys row carries the unmodified sequence weight; d.Weight
	// includes any applied modifications and goes to modified_decoys.
	baseWeight, err := core.SequenceWeight(d.AASequence)
	if err != nil {
		return 0, 0, err
	}
	err = withRandomBackoffRetry(ctx, func() error {
		args := append([]any{d.AASequence, baseWeight, d.Length}, residueValues(d.ResidueCounts)...)
		query := fmt.Sprintf(
			"INSERT INTO base_decoys (aa_sequence, weight, length, %s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23) "+
				"ON CONFLICT (aa_sequence, weight) DO NOTHING RETURNING id",
			"r_count, n_count, d_count, c_count, e_count, q_count, g_count, h_count, j_count, k_count, "+
				"m_count, f_count, p_count, o_count, s_count, t_count, u_count, v_count, w_count, y_count")
		row := s.pool.QueryRow(ctx, query, args...)
		switch err := row.Scan(&id); {
		case err == nil:
			outcome = store.Created
		case errors.Is(err, pgx.ErrNoRows):
			if err := s.pool.QueryRow(ctx, "SELECT id FROM base_decoys WHERE aa_sequence = $1 AND weight = $2 LIMIT 1", d.AASequence, baseWeight).Scan(&id); err != nil {
				return err
			}
		default:
			return err
		}
		if len(d.AppliedModifications) == 0 {
			return nil
		}
		summary := core.ModificationSummary(d.AppliedModifications)
		_, err := s.pool.Exec(ctx,
			"INSERT INTO modified_decoys (base_decoy_id, weight, modification_summary) VALUES ($1, $2, $3)",
			id, d.Weight, summary)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return id, outcome, nil
}

func (s *Store) PeptideExists(ctx context.Context, generalizedSequence string) (bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, "SELECT id FROM peptides WHERE aa_sequence = $1 LIMIT 1", generalizedSequence).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func buildResidueFilter(counts store.ResidueCounts, startParam int) (clause string, args []any, nextParam int) {
	args = make([]any, 0, len(counts))
	nextParam = startParam
	for _, letter := range core.CountedResidues {
		count, constrained := counts[letter]
		if !constrained {
			continue
		}
		col := map[byte]string{
			'R': "r_count", 'N': "n_count", 'D': "d_count", 'C': "c_count", 'E': "e_count",
			'Q': "q_count", 'G': "g_count", 'H': "h_count", 'J': "j_count", 'K': "k_count",
			'M': "m_count", 'F': "f_count", 'P': "p_count", 'O': "o_count", 'S': "s_count",
			'T': "t_count", 'U': "u_count", 'V': "v_count", 'W': "w_count", 'Y': "y_count",
		}[letter]
		clause += fmt.Sprintf(" AND %s = $%d", col, nextParam)
		args = append(args, count)
		nextParam++
	}
	return clause, args, nextParam
}

func (s *Store) FindPeptidesWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts) ([]core.Peptide, error) {
	clause, extraArgs, _ := buildResidueFilter(counts, 3)
	query := "SELECT id, aa_sequence, length, number_of_missed_cleavages, weight, " +
		"r_count, n_count, d_count, c_count, e_count, q_count, g_count, h_count, j_count, k_count, " +
		"m_count, f_count, p_count, o_count, s_count, t_count, u_count, v_count, w_count, y_count " +
		"FROM peptides WHERE weight BETWEEN $1 AND $2" + clause
	args := append([]any{massLow, massHigh}, extraArgs...)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []core.Peptide
	for rows.Next() {
		var p core.Peptide
		counts := make([]int16, len(core.CountedResidues))
		dest := []any{&p.ID, &p.AASequence, &p.Length, &p.NumberOfMissedCleavages, &p.Weight}
		for i := range counts {
			dest = append(dest, &counts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		p.ResidueCounts = make(map[byte]int16, len(core.CountedResidues))
		for i, letter := range core.CountedResidues {
			p.ResidueCounts[letter] = counts[i]
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (s *Store) FindDecoysWhere(ctx context.Context, massLow, massHigh int64, counts store.ResidueCounts, limit int) ([]core.Decoy, error) {
	clause, extraArgs, nextParam := buildResidueFilter(counts, 3)
	query := "SELECT id, aa_sequence, length, weight, " +
		"r_count, n_count, d_count, c_count, e_count, q_count, g_count, h_count, j_count, k_count, " +
		"m_count, f_count, p_count, o_count, s_count, t_count, u_count, v_count, w_count, y_count " +
		"FROM base_decoys WHERE weight BETWEEN $1 AND $2" + clause + fmt.Sprintf(" LIMIT $%d", nextParam)
	args := append([]any{massLow, massHigh}, extraArgs...)
	args = append(args, limit)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []core.Decoy
	for rows.Next() {
		var d core.Decoy
		counts := make([]int16, len(core.CountedResidues))
		dest := []any{&d.ID, &d.AASequence, &d.Length, &d.Weight}
		for i := range counts {
			dest = append(dest, &counts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		d.ResidueCounts = make(map[byte]int16, len(core.CountedResidues))
		for i, letter := range core.CountedResidues {
			d.ResidueCounts[letter] = counts[i]
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

func (s *Store) MarkProteinDigested(ctx context.Context, proteinID int64, complete bool) error {
	_, err := s.pool.Exec(ctx, "UPDATE proteins SET is_completely_digested = $1 WHERE id = $2", complete, proteinID)
	return err
}

// WithTransaction runs fn inside a single transaction, committing on
// success and rolling back on error or panic. CommitPeptide uses it to
// group one peptide's upsert and association upsert into a single
// per-peptide transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
