package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

func TestAttendanceListToday(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	if _, err := env.ledger.MarkPresent(context.Background(), "S-300", "Alice", now); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	h := NewAttendanceHandler(env.ledger, env.registry)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp AttendanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Date != now.Format(attendance.DateLayout) {
		t.Errorf("expected today's date, got %q", resp.Date)
	}
	if resp.Count != 1 || len(resp.Records) != 1 {
		t.Fatalf("expected 1 record, got count=%d len=%d", resp.Count, len(resp.Records))
	}
	if resp.Records[0].RegNo != "S-300" {
		t.Errorf("unexpected record: %+v", resp.Records[0])
	}
}

func TestAttendanceListEmptyDay(t *testing.T) {
	env := newTestEnv(t)

	h := NewAttendanceHandler(env.ledger, env.registry)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?date=2026-01-15", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp AttendanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("expected empty day, got %d records", resp.Count)
	}
	if resp.Records == nil {
		t.Error("records must encode as an empty array, not null")
	}
}

func TestAttendanceListBadDate(t *testing.T) {
	env := newTestEnv(t)

	h := NewAttendanceHandler(env.ledger, env.registry)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?date=15.01.2026", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %d", rec.Code)
	}
}

func TestRosterOmitsEmbeddings(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "S-301", "Alice", []float32{1, 0, 0})
	env.enroll(t, "S-302", "Bob", []float32{0, 1, 0})

	h := NewAttendanceHandler(env.ledger, env.registry)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/identities", nil)
	rec := httptest.NewRecorder()
	h.Roster(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp RosterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 identities, got %d", resp.Count)
	}
	if resp.Identities[0].RegNo != "S-301" || resp.Identities[1].RegNo != "S-302" {
		t.Errorf("expected roster in registry order, got %+v", resp.Identities)
	}
	if strings.Contains(rec.Body.String(), "embedding") {
		t.Error("roster response must not expose embeddings")
	}
}

func TestRosterNameFilter(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "S-303", "Jan Novák", []float32{1, 0, 0})
	env.enroll(t, "S-304", "Petra Svoboda", []float32{0, 1, 0})

	h := NewAttendanceHandler(env.ledger, env.registry)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/identities?q=novak", nil)
	rec := httptest.NewRecorder()
	h.Roster(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp RosterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 filtered identity, got %d", resp.Count)
	}
	if resp.Identities[0].RegNo != "S-303" {
		t.Errorf("expected S-303, got %q", resp.Identities[0].RegNo)
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
}
