package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
)

// AttendanceResponse lists the attendance records of one day.
type AttendanceResponse struct {
	Date    string              `json:"date"`
	Count   int                 `json:"count"`
	Records []attendance.Record `json:"records"`
}

// AttendanceHandler exposes the ledger and the roster read-only.
type AttendanceHandler struct {
	ledger   attendance.Ledger
	registry *identity.Registry
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(ledger attendance.Ledger, registry *identity.Registry) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, registry: registry}
}

// List handles GET /api/v1/attendance?date=YYYY-MM-DD, defaulting to today.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format(attendance.DateLayout)
	}
	if _, err := time.Parse(attendance.DateLayout, date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	records, err := h.ledger.Records(r.Context(), date)
	if err != nil {
		log.Printf("Failed to read attendance for %s: %v", sanitizeForLog(date), err)
		respondError(w, http.StatusInternalServerError, "failed to read attendance")
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}

	respondJSON(w, http.StatusOK, AttendanceResponse{
		Date:    date,
		Count:   len(records),
		Records: records,
	})
}

// rosterEntry is one enrolled identity without its embedding.
type rosterEntry struct {
	RegNo     string    `json:"reg_no"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RosterResponse lists all enrolled identities.
type RosterResponse struct {
	Count      int           `json:"count"`
	Identities []rosterEntry `json:"identities"`
}

// Roster handles GET /api/v1/identities?q=name. Embeddings stay server-side;
// the response only carries display metadata. The name filter is
// diacritics-insensitive so "novak" finds "Novák".
func (h *AttendanceHandler) Roster(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Snapshot()
	query := facematch.NormalizePersonName(r.URL.Query().Get("q"))

	entries := make([]rosterEntry, 0, snap.Size())
	for _, id := range snap.Identities {
		if query != "" && !strings.Contains(facematch.NormalizePersonName(id.Name), query) {
			continue
		}
		entries = append(entries, rosterEntry{
			RegNo:     id.RegNo,
			Name:      id.Name,
			CreatedAt: id.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, RosterResponse{
		Count:      len(entries),
		Identities: entries,
	})
}
