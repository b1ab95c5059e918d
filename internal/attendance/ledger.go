// Package attendance records deduplicated Present events, one per identity
// per calendar day.
package attendance

import (
	"context"
	"time"
)

// Status of an attendance record. Only Present exists today; the column is
// kept explicit so the table stays self-describing.
type Status string

const StatusPresent Status = "Present"

// Date and time-of-day layouts used by the durable table.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// MarkResult reports whether MarkPresent appended a new record.
type MarkResult int

const (
	// Recorded means a new Present record was appended.
	Recorded MarkResult = iota
	// AlreadyRecorded means a record for this identity and day already
	// existed; nothing was written.
	AlreadyRecorded
)

// String returns the wire-friendly name of the result.
func (r MarkResult) String() string {
	if r == AlreadyRecorded {
		return "already_recorded"
	}
	return "recorded"
}

// Record is one row of the attendance table.
type Record struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Name   string `json:"name"`
	RegNo  string `json:"reg_no"`
	Status Status `json:"status"`
}

// Ledger is the append-only, duplicate-suppressing attendance table.
// Implementations must serialize the check-then-append inside MarkPresent so
// concurrent calls for the same identity and day yield exactly one record.
type Ledger interface {
	// MarkPresent appends a Present record for the day derived from when,
	// unless one already exists for (regNo, day).
	MarkPresent(ctx context.Context, regNo, name string, when time.Time) (MarkResult, error)
	// Records returns all records for the given date (DateLayout format).
	Records(ctx context.Context, date string) ([]Record, error)
}
