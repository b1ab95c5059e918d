package identity

import (
	"context"
	"errors"
)

// ErrNoValidSamples is returned by Enroll when no submitted image yielded a
// face embedding.
var ErrNoValidSamples = errors.New("no valid face samples")

// ErrDimensionMismatch is returned when sample embeddings disagree on length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Store persists one record per identity, keyed by registration number.
// Put with an existing key overwrites the prior record atomically from the
// caller's perspective; a concurrent LoadAll never observes a partial record.
type Store interface {
	// Put persists or overwrites the identity's record.
	Put(ctx context.Context, id Identity) error
	// Get retrieves an identity by registration number, nil if not found.
	Get(ctx context.Context, regNo string) (*Identity, error)
	// LoadAll enumerates all persisted identities in a stable order.
	// Corrupt or incomplete records are skipped with a logged warning so one
	// bad entry cannot block recognition for everyone else.
	LoadAll(ctx context.Context) ([]Identity, error)
}
