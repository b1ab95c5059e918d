package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
)

// fakeEmbedder maps raw image bytes to canned embeddings. Unknown images
// count as frames without a face.
type fakeEmbedder struct {
	vectors map[string][]float32
	failing bool
}

func (f *fakeEmbedder) DetectAndEmbed(_ context.Context, imageData []byte) ([]float32, error) {
	if f.failing {
		return nil, fmt.Errorf("model endpoint unreachable")
	}
	return f.vectors[string(imageData)], nil
}

func encodePayload(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

type testEnv struct {
	embedder *fakeEmbedder
	registry *identity.Registry
	ledger   *attendance.CSVLedger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := identity.NewFileStore(filepath.Join(dir, "dataset"))
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	ledger, err := attendance.OpenCSVLedger(filepath.Join(dir, "attendance.csv"))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	registry := identity.NewRegistry(store)
	if err := registry.Reload(context.Background()); err != nil {
		t.Fatalf("failed to load registry: %v", err)
	}

	return &testEnv{
		embedder: &fakeEmbedder{vectors: make(map[string][]float32)},
		registry: registry,
		ledger:   ledger,
	}
}

func (e *testEnv) newRecognizer(threshold float64) *recognizer.Recognizer {
	return recognizer.New(e.registry, facematch.NewLinearMatcher(), e.ledger, threshold)
}

func (e *testEnv) enroll(t *testing.T, regNo, name string, embedding []float32) {
	t.Helper()
	if err := e.registry.Enroll(context.Background(), regNo, name, [][]float32{embedding}); err != nil {
		t.Fatalf("failed to enroll %s: %v", regNo, err)
	}
}
