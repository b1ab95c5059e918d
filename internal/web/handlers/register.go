package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/embedder"
	"github.com/kozaktomas/face-attendance/internal/identity"
)

// RegisterRequest represents an enrollment request. Images arrive as base64
// strings or data URLs captured by the registration page.
type RegisterRequest struct {
	Name   string   `json:"name"`
	RegNo  string   `json:"reg_no"`
	Images []string `json:"images"`
}

// RegisterResponse represents the enrollment response.
type RegisterResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	SamplesUsed     int    `json:"samples_used"`
	SamplesRejected int    `json:"samples_rejected"`
}

// RegisterHandler enrolls new identities.
type RegisterHandler struct {
	embedder FaceEmbedder
	registry *identity.Registry
	audit    *identity.AuditTrail
}

// NewRegisterHandler creates a new register handler. The audit trail is
// optional; pass nil to disable image retention.
func NewRegisterHandler(emb FaceEmbedder, registry *identity.Registry, audit *identity.AuditTrail) *RegisterHandler {
	return &RegisterHandler{embedder: emb, registry: registry, audit: audit}
}

// Register handles POST /api/v1/register. Every submitted image is run
// through the embedding model; images without a detectable face are rejected
// individually, and the enrollment fails only when no image yields a face.
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" || req.RegNo == "" || len(req.Images) == 0 {
		respondError(w, http.StatusBadRequest, "name, reg_no and images are required")
		return
	}

	ctx := r.Context()
	var samples [][]float32
	var retained [][]byte
	rejected := 0

	for _, payload := range req.Images {
		data, err := embedder.DecodeImagePayload(payload)
		if err != nil {
			rejected++
			continue
		}

		emb, err := h.embedder.DetectAndEmbed(ctx, data)
		if err != nil {
			log.Printf("Embedding failed during enrollment of %s: %v", sanitizeForLog(req.RegNo), err)
			respondError(w, http.StatusBadGateway, "embedding service unavailable")
			return
		}
		if emb == nil {
			rejected++
			continue
		}

		samples = append(samples, emb)
		retained = append(retained, data)
	}

	if len(samples) == 0 {
		respondError(w, http.StatusBadRequest, "no faces detected in images")
		return
	}

	if err := h.registry.Enroll(ctx, req.RegNo, req.Name, samples); err != nil {
		if errors.Is(err, identity.ErrNoValidSamples) {
			respondError(w, http.StatusBadRequest, "no faces detected in images")
			return
		}
		log.Printf("Enrollment of %s failed: %v", sanitizeForLog(req.RegNo), err)
		respondError(w, http.StatusInternalServerError, "failed to enroll identity")
		return
	}

	if h.audit != nil {
		h.audit.Save(req.RegNo, retained)
	}

	respondJSON(w, http.StatusOK, RegisterResponse{
		Status:          "success",
		Message:         "Registered " + req.Name,
		SamplesUsed:     len(samples),
		SamplesRejected: rejected,
	})
}
