package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/capture-kit/internal/database"
)

// Neighbor is an identity returned by a similarity query.
type Neighbor struct {
	database.Identity
	Distance float64 // Euclidean (L2)
}

// IdentityRepository mirrors the file store into PostgreSQL so identities
// can be queried with pgvector.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

const upsertIdentitySQL = `
	INSERT INTO face_identities (id, embedding, dim, label)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		dim = EXCLUDED.dim,
		label = EXCLUDED.label,
		updated_at = NOW()
`

// Upsert stores one identity, replacing any row with the same ID.
func (r *IdentityRepository) Upsert(ctx context.Context, ident database.Identity) error {
	vec := pgvector.NewVector(ident.Vector)
	if _, err := r.pool.Exec(ctx, upsertIdentitySQL, ident.ID, vec, len(ident.Vector), ident.Label); err != nil {
		return fmt.Errorf("upsert identity %d: %w", ident.ID, err)
	}
	return nil
}

// UpsertBatch stores identities in one transaction. progress, when set, is
// called after each row.
func (r *IdentityRepository) UpsertBatch(ctx context.Context, identities []database.Identity, progress func()) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertIdentitySQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, ident := range identities {
		vec := pgvector.NewVector(ident.Vector)
		if _, err := stmt.ExecContext(ctx, ident.ID, vec, len(ident.Vector), ident.Label); err != nil {
			return fmt.Errorf("upsert identity %d: %w", ident.ID, err)
		}
		if progress != nil {
			progress()
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit identities: %w", err)
	}
	return nil
}

// Get retrieves one identity.
func (r *IdentityRepository) Get(ctx context.Context, id int) (database.Identity, error) {
	var vec pgvector.Vector
	var ident database.Identity
	err := r.pool.QueryRow(ctx,
		`SELECT id, embedding, label FROM face_identities WHERE id = $1`, id,
	).Scan(&ident.ID, &vec, &ident.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return database.Identity{}, fmt.Errorf("%w: %d", database.ErrNotFound, id)
	}
	if err != nil {
		return database.Identity{}, fmt.Errorf("get identity %d: %w", id, err)
	}
	ident.Vector = vec.Slice()
	return ident, nil
}

// Count returns the number of mirrored identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM face_identities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Nearest returns up to limit identities closest to vec by L2 distance.
// Rows with a different dimension are ignored.
func (r *IdentityRepository) Nearest(ctx context.Context, vec []float32, limit int) ([]Neighbor, error) {
	query := `
		SELECT id, embedding, label, embedding <-> $1::vector AS distance
		FROM face_identities
		WHERE dim = $2
		ORDER BY distance, id
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(vec), len(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest identities: %w", err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var n Neighbor
		var emb pgvector.Vector
		if err := rows.Scan(&n.ID, &emb, &n.Label, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		n.Vector = emb.Slice()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}
