package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Show attendance records for a day",
	Long: `Show the attendance records for one day, today by default.

Examples:
  # Today's attendance
  face-attendance attendance

  # A specific day
  face-attendance attendance --date 2026-09-01`,
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().String("date", "", "Day to show in YYYY-MM-DD format (defaults to today)")
}

func runAttendance(cmd *cobra.Command, args []string) error {
	date := mustGetString(cmd, "date")
	if date == "" {
		date = time.Now().Format(attendance.DateLayout)
	}
	if _, err := time.Parse(attendance.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}

	cfg := config.Load()
	ctx := context.Background()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	records, err := be.ledger.Records(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to read attendance: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No attendance records for %s\n", date)
		return nil
	}

	fmt.Printf("Attendance for %s (%d present):\n", date, len(records))
	for _, rec := range records {
		fmt.Printf("  %s  %-25s %-12s %s\n", rec.Time, rec.Name, rec.RegNo, rec.Status)
	}
	return nil
}
