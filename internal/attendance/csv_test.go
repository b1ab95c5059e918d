package attendance

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) (*CSVLedger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attendance.csv")
	l, err := OpenCSVLedger(path)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	return l, path
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open CSV: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV: %v", err)
	}
	return rows
}

func TestOpenCSVLedger_CreatesFileWithHeader(t *testing.T) {
	_, path := newTestLedger(t)

	rows := readRows(t, path)
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d rows", len(rows))
	}
	expected := []string{"Date", "Time", "Name", "RegNo", "Status"}
	for i, col := range expected {
		if rows[0][i] != col {
			t.Errorf("header column %d: expected %s, got %s", i, col, rows[0][i])
		}
	}
}

func TestMarkPresent_DedupePerDay(t *testing.T) {
	l, path := newTestLedger(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 9, 15, 0, 0, time.UTC)

	res, err := l.MarkPresent(ctx, "S1001", "Jana Dvorakova", when)
	if err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	if res != Recorded {
		t.Errorf("expected Recorded on first call, got %v", res)
	}

	res, err = l.MarkPresent(ctx, "S1001", "Jana Dvorakova", when.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	if res != AlreadyRecorded {
		t.Errorf("expected AlreadyRecorded on second call, got %v", res)
	}

	rows := readRows(t, path)
	if len(rows) != 2 { // header + one record
		t.Fatalf("expected exactly one durable record, got %d rows", len(rows)-1)
	}
	if rows[1][0] != "2026-09-01" || rows[1][1] != "09:15:00" || rows[1][3] != "S1001" || rows[1][4] != "Present" {
		t.Errorf("unexpected record row: %v", rows[1])
	}
}

func TestMarkPresent_DifferentDaysProduceTwoRecords(t *testing.T) {
	l, path := newTestLedger(t)
	ctx := context.Background()

	day1 := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	for _, when := range []time.Time{day1, day2} {
		if res, err := l.MarkPresent(ctx, "S1", "One", when); err != nil || res != Recorded {
			t.Fatalf("mark for %v: result %v, err %v", when, res, err)
		}
	}

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected two durable records, got %d", len(rows)-1)
	}
}

func TestMarkPresent_DifferentIdentitiesSameDay(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	if res, _ := l.MarkPresent(ctx, "S1", "One", when); res != Recorded {
		t.Error("expected Recorded for S1")
	}
	if res, _ := l.MarkPresent(ctx, "S2", "Two", when); res != Recorded {
		t.Error("expected Recorded for S2")
	}
}

func TestMarkPresent_ConcurrentCallsYieldOneRecord(t *testing.T) {
	l, path := newTestLedger(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	var mu sync.Mutex
	recorded := 0

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.MarkPresent(ctx, "S1001", "Jana", when)
			if err != nil {
				t.Errorf("mark failed: %v", err)
				return
			}
			if res == Recorded {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if recorded != 1 {
		t.Errorf("expected exactly one Recorded result, got %d", recorded)
	}
	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Errorf("expected exactly one durable record, got %d", len(rows)-1)
	}
}

func TestOpenCSVLedger_ReloadsExistingRecords(t *testing.T) {
	l, path := newTestLedger(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	if _, err := l.MarkPresent(ctx, "S1", "One", when); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	// Reopen: the dedup index must survive the restart.
	reopened, err := OpenCSVLedger(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	res, err := reopened.MarkPresent(ctx, "S1", "One", when.Add(time.Hour))
	if err != nil {
		t.Fatalf("mark after reopen failed: %v", err)
	}
	if res != AlreadyRecorded {
		t.Errorf("expected AlreadyRecorded after reopen, got %v", res)
	}
}

func TestRecords_FiltersByDate(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	day1 := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	l.MarkPresent(ctx, "S1", "One", day1)
	l.MarkPresent(ctx, "S2", "Two", day1)
	l.MarkPresent(ctx, "S1", "One", day2)

	recs, err := l.Records(ctx, "2026-09-01")
	if err != nil {
		t.Fatalf("records failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records for day one, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.Status != StatusPresent {
			t.Errorf("expected Present status, got %s", rec.Status)
		}
	}

	recs, err = l.Records(ctx, "2026-09-03")
	if err != nil {
		t.Fatalf("records failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records for an empty day, got %d", len(recs))
	}
}

func TestOpenCSVLedger_SkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	content := "Date,Time,Name,RegNo,Status\n2026-09-01,09:00:00,One,S1,Present\nbroken,row\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	l, err := OpenCSVLedger(path)
	if err != nil {
		t.Fatalf("open must tolerate malformed rows: %v", err)
	}

	recs, err := l.Records(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("records failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected 1 valid record, got %d", len(recs))
	}
}
