package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/obinstory-alt/kkh/internal/snapshot"
)

// FilePersister writes the full state to a single JSON document on disk,
// replacing it atomically on every mutation. It is the default persistence
// backend for single-device installs.
type FilePersister struct {
	path string
}

// NewFilePersister persists to the given path, creating parent directories
// as needed.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Persist writes the document via a temp file and rename so a crash never
// leaves a half-written state file behind.
func (f *FilePersister) Persist(_ context.Context, doc *snapshot.Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Load reads the persisted document. A missing file is a fresh install and
// returns (nil, nil); a present but unparseable file is an error so a
// corrupt state is never silently discarded.
func (f *FilePersister) Load() (*snapshot.Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	doc, err := snapshot.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load state file %s: %w", f.path, err)
	}
	return doc, nil
}
