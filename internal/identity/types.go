// Package identity owns the durable registry of enrolled people: who they are,
// their averaged face embedding, and the in-memory snapshot used for matching.
package identity

import (
	"time"
)

// Identity is one enrolled person. The embedding is the element-wise mean of
// all sample embeddings submitted during enrollment, and is immutable until
// the person is re-enrolled.
type Identity struct {
	RegNo     string    `json:"reg_no"`
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a point-in-time view of all enrolled identities, ordered by the
// store's enumeration order. It is replaced wholesale and never mutated in
// place; readers may hold it across a concurrent reload.
type Snapshot struct {
	Identities []Identity
	LoadedAt   time.Time
}

// Size returns the number of identities in the snapshot.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Identities)
}
