package identity

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/imaging"
)

// auditMaxSize caps the longer edge of retained enrollment images.
const auditMaxSize = 1024

// AuditTrail retains the raw images submitted during enrollment, downscaled,
// next to the identity record. The images are reference material only; they
// are never read by the matching path but allow re-enrollment after an
// embedding model change.
type AuditTrail struct {
	dataDir string
}

// NewAuditTrail creates an audit trail rooted at the same directory as the
// file store.
func NewAuditTrail(dataDir string) *AuditTrail {
	return &AuditTrail{dataDir: dataDir}
}

// Save stores the submitted images under the identity's directory. Failures
// are logged and swallowed; a lost audit image must not fail an enrollment.
func (a *AuditTrail) Save(regNo string, images [][]byte) {
	dir := filepath.Join(a.dataDir, regNo)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Warning: cannot create audit directory for %s: %v", regNo, err)
		return
	}

	for _, img := range images {
		resized, err := imaging.Resize(img, auditMaxSize)
		if err != nil {
			log.Printf("Warning: skipping audit image for %s: %v", regNo, err)
			continue
		}
		name := fmt.Sprintf("%s.jpg", uuid.NewString())
		if err := os.WriteFile(filepath.Join(dir, name), resized, 0o644); err != nil {
			log.Printf("Warning: failed to write audit image for %s: %v", regNo, err)
		}
	}
}

// Images lists the retained audit images for an identity, sorted by name.
func (a *AuditTrail) Images(regNo string) ([]string, error) {
	dir := filepath.Join(a.dataDir, regNo)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
