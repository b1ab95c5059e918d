package identity

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

// failingStore fails LoadAll after a configurable number of successes.
type failingStore struct {
	*FileStore
	failLoad bool
}

func (s *failingStore) LoadAll(ctx context.Context) ([]Identity, error) {
	if s.failLoad {
		return nil, errors.New("disk on fire")
	}
	return s.FileStore.LoadAll(ctx)
}

func TestMeanEmbedding(t *testing.T) {
	tests := []struct {
		name     string
		samples  [][]float32
		expected []float32
		wantErr  error
	}{
		{
			name:     "single sample",
			samples:  [][]float32{{1, 2, 3}},
			expected: []float32{1, 2, 3},
		},
		{
			name:     "three samples",
			samples:  [][]float32{{1, 0, 0}, {0, 1, 0}, {2, 2, 3}},
			expected: []float32{1, 1, 1},
		},
		{
			name:    "empty sample set",
			samples: nil,
			wantErr: ErrNoValidSamples,
		},
		{
			name:    "zero-length vectors",
			samples: [][]float32{{}},
			wantErr: ErrNoValidSamples,
		},
		{
			name:    "dimension mismatch",
			samples: [][]float32{{1, 2}, {1, 2, 3}},
			wantErr: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, err := MeanEmbedding(tt.samples)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := range tt.expected {
				if math.Abs(float64(mean[i]-tt.expected[i])) > 1e-6 {
					t.Errorf("element %d: expected %v, got %v", i, tt.expected[i], mean[i])
				}
			}
		})
	}
}

func TestRegistry_EnrollAndSnapshot(t *testing.T) {
	store := newTestStore(t)
	reg := NewRegistry(store)
	ctx := context.Background()

	samples := [][]float32{{1, 0, 1}, {3, 2, 1}, {2, 1, 1}}
	if err := reg.Enroll(ctx, "S1001", "Petr Maly", samples); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}

	snap := reg.Snapshot()
	if snap.Size() != 1 {
		t.Fatalf("expected 1 identity in snapshot, got %d", snap.Size())
	}

	id := snap.Identities[0]
	if id.RegNo != "S1001" {
		t.Errorf("expected reg no S1001, got %s", id.RegNo)
	}
	expected := []float32{2, 1, 1}
	for i := range expected {
		if math.Abs(float64(id.Embedding[i]-expected[i])) > 1e-6 {
			t.Errorf("element %d: expected %v, got %v", i, expected[i], id.Embedding[i])
		}
	}
}

func TestRegistry_EnrollNoSamplesLeavesRegistryUnchanged(t *testing.T) {
	store := newTestStore(t)
	reg := NewRegistry(store)
	ctx := context.Background()

	if err := reg.Enroll(ctx, "S1", "First", [][]float32{{1, 2}}); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	before := reg.Snapshot()

	err := reg.Enroll(ctx, "S2", "Second", nil)
	if !errors.Is(err, ErrNoValidSamples) {
		t.Fatalf("expected ErrNoValidSamples, got %v", err)
	}

	after := reg.Snapshot()
	if after != before {
		t.Error("failed enrollment must not replace the snapshot")
	}
	if after.Size() != 1 {
		t.Errorf("expected 1 identity, got %d", after.Size())
	}
}

func TestRegistry_ReloadFailureRetainsPreviousSnapshot(t *testing.T) {
	fs := newTestStore(t)
	store := &failingStore{FileStore: fs}
	reg := NewRegistry(store)
	ctx := context.Background()

	if err := reg.Enroll(ctx, "S1", "Kept", [][]float32{{1}}); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	before := reg.Snapshot()

	store.failLoad = true
	if err := reg.Reload(ctx); err == nil {
		t.Fatal("expected reload error")
	}

	if got := reg.Snapshot(); got != before {
		t.Error("failed reload must retain the previous snapshot")
	}
}

func TestRegistry_SnapshotStableAcrossReload(t *testing.T) {
	store := newTestStore(t)
	reg := NewRegistry(store)
	ctx := context.Background()

	if err := reg.Enroll(ctx, "S1", "One", [][]float32{{1}}); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	held := reg.Snapshot()

	if err := reg.Enroll(ctx, "S2", "Two", [][]float32{{2}}); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}

	// The held snapshot must be untouched by the later enrollment.
	if held.Size() != 1 {
		t.Errorf("held snapshot changed: expected 1 identity, got %d", held.Size())
	}
	if reg.Snapshot().Size() != 2 {
		t.Errorf("expected 2 identities in the new snapshot, got %d", reg.Snapshot().Size())
	}
}

func TestRegistry_ConcurrentEnrollAndSnapshot(t *testing.T) {
	store := newTestStore(t)
	reg := NewRegistry(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			regNo := string(rune('A' + n))
			if err := reg.Enroll(ctx, regNo, "Student "+regNo, [][]float32{{float32(n)}}); err != nil {
				t.Errorf("enroll %s failed: %v", regNo, err)
			}
		}(i)
	}

	// Readers run concurrently with enrollments; every snapshot they observe
	// must be internally consistent (no partial states).
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				snap := reg.Snapshot()
				for _, id := range snap.Identities {
					if id.RegNo == "" || len(id.Embedding) == 0 {
						t.Error("observed partial identity in snapshot")
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if reg.Snapshot().Size() != 8 {
		t.Errorf("expected 8 identities, got %d", reg.Snapshot().Size())
	}
}
