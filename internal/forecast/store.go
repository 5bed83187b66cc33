package forecast

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"retail-ops/internal/apperrors"
)

// DiskStore is the durable model storage: one gob blob per key under a
// models directory, content-addressed by key only. Saves are
// last-write-wins with no versioning.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the storage directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save persists the artifact for key, replacing any prior one. The write
// goes through a temp file and rename so a crash mid-write cannot leave a
// torn artifact behind.
func (s *DiskStore) Save(key string, model *Model) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "model-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(model); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode model %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush artifact %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to persist model %s: %w", key, err)
	}
	return nil
}

// Load reads the artifact for key. A missing file is apperrors.ErrNotFound
// (the model was never trained); a file that exists but does not decode is
// apperrors.ErrStorageCorruption and must be surfaced loudly, never skipped.
func (s *DiskStore) Load(key string) (*Model, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("model %s: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", key, err)
	}
	defer f.Close()

	var model Model
	if err := gob.NewDecoder(f).Decode(&model); err != nil {
		return nil, fmt.Errorf("artifact %s failed to deserialize: %w: %w",
			key, apperrors.ErrStorageCorruption, err)
	}
	return &model, nil
}

// pathFor rejects keys that would escape the storage directory.
func (s *DiskStore) pathFor(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid model key %q: %w", key, apperrors.ErrValidation)
	}
	return filepath.Join(s.dir, key+".gob"), nil
}
