package identity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Registry caches all enrolled identities in memory for matching. The cache
// is rebuilt wholesale from the store; readers get an immutable snapshot via
// an atomic pointer swap and never need the mutation lock.
type Registry struct {
	store    Store
	mu       sync.Mutex // serializes Reload and Enroll
	snapshot atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry over the given store. Call Reload before
// first use to populate the snapshot.
func NewRegistry(store Store) *Registry {
	r := &Registry{store: store}
	r.snapshot.Store(&Snapshot{LoadedAt: time.Now()})
	return r
}

// Reload rebuilds the in-memory snapshot from the store. On failure the
// previous snapshot is retained unchanged and the error is returned.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identities, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("reloading registry: %w", err)
	}

	r.snapshot.Store(&Snapshot{
		Identities: identities,
		LoadedAt:   time.Now(),
	})
	return nil
}

// Snapshot returns the current cached view for matching. The returned value
// is read-only and stays valid across concurrent reloads.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Enroll averages the sample embeddings into a single identity record,
// persists it, and rebuilds the snapshot. Returns ErrNoValidSamples when the
// sample set is empty.
func (r *Registry) Enroll(ctx context.Context, regNo, name string, samples [][]float32) error {
	mean, err := MeanEmbedding(samples)
	if err != nil {
		return err
	}

	id := Identity{
		RegNo:     regNo,
		Name:      name,
		Embedding: mean,
		Dim:       len(mean),
		CreatedAt: time.Now(),
	}
	if err := r.store.Put(ctx, id); err != nil {
		return fmt.Errorf("persisting identity %s: %w", regNo, err)
	}

	return r.Reload(ctx)
}

// MeanEmbedding computes the element-wise mean of the sample vectors.
// All samples must share the same dimension.
func MeanEmbedding(samples [][]float32) ([]float32, error) {
	if len(samples) == 0 {
		return nil, ErrNoValidSamples
	}

	dim := len(samples[0])
	if dim == 0 {
		return nil, ErrNoValidSamples
	}

	sums := make([]float64, dim)
	for _, sample := range samples {
		if len(sample) != dim {
			return nil, fmt.Errorf("%w: got %d and %d", ErrDimensionMismatch, dim, len(sample))
		}
		for i, v := range sample {
			sums[i] += float64(v)
		}
	}

	mean := make([]float32, dim)
	n := float64(len(samples))
	for i, sum := range sums {
		mean[i] = float32(sum / n)
	}
	return mean, nil
}
