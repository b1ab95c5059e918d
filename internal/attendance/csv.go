package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

var csvHeader = []string{"Date", "Time", "Name", "RegNo", "Status"}

// CSVLedger is a file-backed Ledger. The file grows append-only; an in-memory
// index of (RegNo, Date) pairs, built when the ledger is opened, answers the
// duplicate check without re-reading the file. A single mutex guards the
// whole check-then-append sequence.
type CSVLedger struct {
	path    string
	mu      sync.Mutex
	records []Record
	seen    map[string]bool // key: regNo + "\x00" + date
}

// OpenCSVLedger opens the ledger file, creating it with headers if absent,
// and loads existing rows into the duplicate index. Malformed rows are
// skipped with a warning rather than failing the whole ledger.
func OpenCSVLedger(path string) (*CSVLedger, error) {
	l := &CSVLedger{
		path: path,
		seen: make(map[string]bool),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.writeHeader(); err != nil {
			return nil, err
		}
		return l, nil
	}

	if err := l.loadExisting(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *CSVLedger) writeHeader() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create attendance file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write attendance header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush attendance header: %w", err)
	}
	return nil
}

func (l *CSVLedger) loadExisting() error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("failed to open attendance file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read attendance file: %w", err)
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) != len(csvHeader) {
			log.Printf("Warning: skipping malformed attendance row %d in %s", i+1, l.path)
			continue
		}
		rec := Record{Date: row[0], Time: row[1], Name: row[2], RegNo: row[3], Status: Status(row[4])}
		l.records = append(l.records, rec)
		l.seen[dedupKey(rec.RegNo, rec.Date)] = true
	}
	return nil
}

func dedupKey(regNo, date string) string {
	return regNo + "\x00" + date
}

// MarkPresent appends a Present record unless one already exists for the
// identity and day. The check and the append happen under one lock.
func (l *CSVLedger) MarkPresent(ctx context.Context, regNo, name string, when time.Time) (MarkResult, error) {
	if err := ctx.Err(); err != nil {
		return AlreadyRecorded, err
	}

	rec := Record{
		Date:   when.Format(DateLayout),
		Time:   when.Format(TimeLayout),
		Name:   name,
		RegNo:  regNo,
		Status: StatusPresent,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := dedupKey(regNo, rec.Date)
	if l.seen[key] {
		return AlreadyRecorded, nil
	}

	if err := l.appendRow(rec); err != nil {
		return AlreadyRecorded, err
	}

	l.records = append(l.records, rec)
	l.seen[key] = true
	return Recorded, nil
}

// appendRow writes one row to the end of the file and syncs it. Called with
// the mutex held.
func (l *CSVLedger) appendRow(rec Record) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open attendance file for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{rec.Date, rec.Time, rec.Name, rec.RegNo, string(rec.Status)}); err != nil {
		return fmt.Errorf("failed to write attendance row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush attendance row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync attendance file: %w", err)
	}
	return nil
}

// Records returns all records for the given date.
func (l *CSVLedger) Records(ctx context.Context, date string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Record
	for _, rec := range l.records {
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}
