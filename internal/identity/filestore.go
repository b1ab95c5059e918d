package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const recordFileName = "identity.json"

// FileStore keeps one directory per identity under a data root, with the
// identity record stored as a single JSON document. Writes go through a
// temporary file and an atomic rename so a concurrent LoadAll sees either the
// old record or the new one, never a torn write.
type FileStore struct {
	dataDir string
}

// NewFileStore creates a file-backed identity store rooted at dataDir,
// creating the directory if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dataDir: dataDir}, nil
}

// DataDir returns the root directory of the store.
func (s *FileStore) DataDir() string {
	return s.dataDir
}

// IdentityDir returns the directory holding one identity's record and any
// retained audit images.
func (s *FileStore) IdentityDir(regNo string) string {
	return filepath.Join(s.dataDir, regNo)
}

// Put persists or overwrites the identity's record.
func (s *FileStore) Put(ctx context.Context, id Identity) error {
	if id.RegNo == "" {
		return fmt.Errorf("identity key is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.IdentityDir(id.RegNo)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	if id.Dim == 0 {
		id.Dim = len(id.Embedding)
	}
	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now()
	}

	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identity record: %w", err)
	}

	target := filepath.Join(dir, recordFileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write identity record: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace identity record: %w", err)
	}
	return nil
}

// Get retrieves an identity by registration number, nil if not found.
func (s *FileStore) Get(ctx context.Context, regNo string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.IdentityDir(regNo), recordFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity record: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("failed to parse identity record for %s: %w", regNo, err)
	}
	return &id, nil
}

// LoadAll enumerates all persisted identities, sorted by registration number.
// Directories with missing or corrupt records are skipped with a warning.
func (s *FileStore) LoadAll(ctx context.Context) ([]Identity, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	identities := make([]Identity, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(s.dataDir, name, recordFileName))
		if err != nil {
			log.Printf("Warning: skipping identity %s: %v", name, err)
			continue
		}

		var id Identity
		if err := json.Unmarshal(data, &id); err != nil {
			log.Printf("Warning: skipping corrupt identity record %s: %v", name, err)
			continue
		}
		if id.RegNo == "" || len(id.Embedding) == 0 {
			log.Printf("Warning: skipping incomplete identity record %s", name)
			continue
		}
		identities = append(identities, id)
	}
	return identities, nil
}
