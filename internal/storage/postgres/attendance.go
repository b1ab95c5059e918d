package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// AttendanceRepository is a PostgreSQL-backed attendance ledger. The unique
// (reg_no, day) index plus ON CONFLICT DO NOTHING gives the check-then-append
// atomicity without any application-level lock, so concurrent recognitions of
// the same person still yield exactly one row.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkPresent appends a Present row unless one exists for (regNo, day).
func (r *AttendanceRepository) MarkPresent(ctx context.Context, regNo, name string, when time.Time) (attendance.MarkResult, error) {
	query := `
		INSERT INTO attendance (day, time_of_day, name, reg_no, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reg_no, day) DO NOTHING
	`

	res, err := r.pool.Exec(ctx, query,
		when.Format(attendance.DateLayout),
		when.Format(attendance.TimeLayout),
		name, regNo, string(attendance.StatusPresent),
	)
	if err != nil {
		return attendance.AlreadyRecorded, fmt.Errorf("insert attendance row: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return attendance.AlreadyRecorded, fmt.Errorf("check attendance insert: %w", err)
	}
	if affected == 0 {
		return attendance.AlreadyRecorded, nil
	}
	return attendance.Recorded, nil
}

// Records returns all records for the given date.
func (r *AttendanceRepository) Records(ctx context.Context, date string) ([]attendance.Record, error) {
	query := `
		SELECT day, time_of_day, name, reg_no, status
		FROM attendance
		WHERE day = $1
		ORDER BY time_of_day
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		var day time.Time
		var timeOfDay string

		if err := rows.Scan(&day, &timeOfDay, &rec.Name, &rec.RegNo, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		rec.Date = day.Format(attendance.DateLayout)
		rec.Time = timeOfDay
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance rows: %w", err)
	}

	return records, nil
}
