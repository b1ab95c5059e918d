// Package recognizer composes the matcher with the attendance ledger: it is
// the only component that writes attendance on a recognition.
package recognizer

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
)

// Outcome classifies a recognition attempt. No face and no match are normal
// outcomes, not errors.
type Outcome int

const (
	OutcomeNoFace Outcome = iota
	OutcomeNoMatch
	OutcomeMatched
)

// String returns the wire-friendly name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	default:
		return "no_face"
	}
}

// Result of one recognition attempt. Identity and Distance are only set for
// OutcomeMatched; Attendance reports what the ledger did for the match.
type Result struct {
	Outcome    Outcome
	Identity   *identity.Identity
	Distance   float64
	Attendance attendance.MarkResult
}

// Recognizer resolves probe embeddings against the registry and records
// attendance for confident matches.
type Recognizer struct {
	registry  *identity.Registry
	matcher   facematch.Matcher
	ledger    attendance.Ledger
	threshold float64
	now       func() time.Time
}

// New creates a recognizer. The threshold is the maximum embedding distance
// accepted as "same person" for the configured model.
func New(registry *identity.Registry, matcher facematch.Matcher, ledger attendance.Ledger, threshold float64) *Recognizer {
	return &Recognizer{
		registry:  registry,
		matcher:   matcher,
		ledger:    ledger,
		threshold: threshold,
		now:       time.Now,
	}
}

// Recognize resolves a probe embedding to an identity and marks attendance on
// a confident match. A nil probe means the external model found no face and
// short-circuits without touching the registry or the ledger. A match is a
// successful recognition whether or not attendance was already recorded
// today; only a ledger write failure is an error.
func (r *Recognizer) Recognize(ctx context.Context, probe []float32) (Result, error) {
	if probe == nil {
		return Result{Outcome: OutcomeNoFace}, nil
	}

	match := r.matcher.Match(probe, r.registry.Snapshot(), r.threshold)
	if match == nil {
		return Result{Outcome: OutcomeNoMatch}, nil
	}

	marked, err := r.ledger.MarkPresent(ctx, match.Identity.RegNo, match.Identity.Name, r.now())
	if err != nil {
		return Result{}, fmt.Errorf("recording attendance for %s: %w", match.Identity.RegNo, err)
	}

	return Result{
		Outcome:    OutcomeMatched,
		Identity:   &match.Identity,
		Distance:   match.Distance,
		Attendance: marked,
	}, nil
}
