package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository provides PostgreSQL-backed identity storage. It
// implements identity.Store; the upsert gives the atomic-overwrite guarantee
// the contract requires.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Put persists or overwrites the identity's record.
func (r *IdentityRepository) Put(ctx context.Context, id identity.Identity) error {
	if id.RegNo == "" {
		return fmt.Errorf("identity key is required")
	}
	if id.Dim == 0 {
		id.Dim = len(id.Embedding)
	}

	query := `
		INSERT INTO identities (reg_no, name, embedding, dim)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (reg_no) DO UPDATE SET
			name = EXCLUDED.name,
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`

	vec := pgvector.NewVector(id.Embedding)
	if _, err := r.pool.Exec(ctx, query, id.RegNo, id.Name, vec, id.Dim); err != nil {
		return fmt.Errorf("save identity %s: %w", id.RegNo, err)
	}
	return nil
}

// Get retrieves an identity by registration number, nil if not found.
func (r *IdentityRepository) Get(ctx context.Context, regNo string) (*identity.Identity, error) {
	query := `
		SELECT reg_no, name, embedding, dim, created_at
		FROM identities
		WHERE reg_no = $1
	`

	var id identity.Identity
	var vec pgvector.Vector

	err := r.pool.QueryRow(ctx, query, regNo).Scan(&id.RegNo, &id.Name, &vec, &id.Dim, &id.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query identity %s: %w", regNo, err)
	}

	id.Embedding = vec.Slice()
	return &id, nil
}

// LoadAll enumerates all persisted identities ordered by registration number.
// Rows with a missing embedding or key are skipped with a warning; one bad
// row must not block recognition for everyone else.
func (r *IdentityRepository) LoadAll(ctx context.Context) ([]identity.Identity, error) {
	query := `
		SELECT reg_no, name, embedding, dim, created_at
		FROM identities
		ORDER BY reg_no
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []identity.Identity
	for rows.Next() {
		var id identity.Identity
		var vec pgvector.Vector

		if err := rows.Scan(&id.RegNo, &id.Name, &vec, &id.Dim, &id.CreatedAt); err != nil {
			log.Printf("Warning: skipping unreadable identity row: %v", err)
			continue
		}
		id.Embedding = vec.Slice()
		if id.RegNo == "" || len(id.Embedding) == 0 {
			log.Printf("Warning: skipping incomplete identity row %q", id.RegNo)
			continue
		}
		identities = append(identities, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	return identities, nil
}

// Count returns the number of enrolled identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}
