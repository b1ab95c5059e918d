package facematch

import (
	"github.com/kozaktomas/face-attendance/internal/identity"
)

// Match is a successful resolution of a probe to an enrolled identity.
type Match struct {
	Identity identity.Identity
	Distance float64
}

// Matcher finds the enrolled identity nearest to a probe embedding. The
// snapshot and threshold are passed per call so an indexed implementation can
// be substituted without changing callers.
type Matcher interface {
	// Match returns the nearest identity when its distance is strictly below
	// the threshold, nil otherwise. An empty snapshot yields nil; it is a
	// valid state, not an error.
	Match(probe []float32, snap *identity.Snapshot, threshold float64) *Match
}

// LinearMatcher is an exact linear-scan nearest-neighbor matcher,
// O(snapshot size x dimension) per probe. Registries are roster-sized, so a
// full scan is cheaper than maintaining an index.
type LinearMatcher struct{}

// NewLinearMatcher creates a linear-scan matcher.
func NewLinearMatcher() *LinearMatcher {
	return &LinearMatcher{}
}

// Match scans every identity in the snapshot and keeps the minimum distance.
// Ties are broken by snapshot order: the first identity at the minimum
// distance wins. Snapshot order is the store's enumeration order, so the
// tie-break is deterministic per backend.
func (m *LinearMatcher) Match(probe []float32, snap *identity.Snapshot, threshold float64) *Match {
	if snap == nil || len(snap.Identities) == 0 {
		return nil
	}

	best := -1
	bestDist := 0.0
	for i := range snap.Identities {
		dist := EuclideanDistance(probe, snap.Identities[i].Embedding)
		if best == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	// Strict comparison: a distance exactly at the threshold is no match.
	if bestDist >= threshold {
		return nil
	}

	return &Match{
		Identity: snap.Identities[best],
		Distance: bestDist,
	}
}
