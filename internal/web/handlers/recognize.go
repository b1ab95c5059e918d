package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/embedder"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
)

// RecognizeRequest carries one camera frame as a base64 string or data URL.
type RecognizeRequest struct {
	Image string `json:"image"`
}

// RecognizeResponse reports the recognition outcome. Student fields are only
// set when Match is true.
type RecognizeResponse struct {
	Match      bool    `json:"match"`
	Outcome    string  `json:"outcome"`
	Student    string  `json:"student,omitempty"`
	RegNo      string  `json:"reg_no,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
	Attendance string  `json:"attendance,omitempty"`
}

// RecognizeHandler resolves camera frames to identities and marks attendance.
type RecognizeHandler struct {
	embedder   FaceEmbedder
	recognizer *recognizer.Recognizer
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(emb FaceEmbedder, rec *recognizer.Recognizer) *RecognizeHandler {
	return &RecognizeHandler{embedder: emb, recognizer: rec}
}

// Recognize handles POST /api/v1/recognize. No face and no match are ordinary
// negative responses; only model or storage failures produce error statuses.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	data, err := embedder.DecodeImagePayload(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}

	ctx := r.Context()
	probe, err := h.embedder.DetectAndEmbed(ctx, data)
	if err != nil {
		log.Printf("Embedding failed during recognition: %v", err)
		respondError(w, http.StatusBadGateway, "embedding service unavailable")
		return
	}

	result, err := h.recognizer.Recognize(ctx, probe)
	if err != nil {
		log.Printf("Recognition failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to record attendance")
		return
	}

	resp := RecognizeResponse{
		Match:   result.Outcome == recognizer.OutcomeMatched,
		Outcome: result.Outcome.String(),
	}
	if resp.Match {
		resp.Student = result.Identity.Name
		resp.RegNo = result.Identity.RegNo
		resp.Distance = result.Distance
		resp.Attendance = result.Attendance.String()
	}

	respondJSON(w, http.StatusOK, resp)
}
