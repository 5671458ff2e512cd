// Package storage implements the file-backed stores: one directory per
// profile holding a profile.json document, a tasks.json document, and an
// append-oriented entries.csv log.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xvierd/mootimer/internal/ports"
)

var (
	_ ports.ProfileStore = (*ProfileStore)(nil)
	_ ports.TaskStore    = (*TaskStore)(nil)
	_ ports.EntryStore   = (*EntryStore)(nil)
)

// dirs resolves per-profile paths under the data directory.
type dirs struct {
	dataDir string
}

func (d dirs) profilesDir() string {
	return filepath.Join(d.dataDir, "profiles")
}

func (d dirs) profileDir(id string) string {
	return filepath.Join(d.profilesDir(), id)
}

// Store bundles the three file-backed stores rooted at one data directory.
type Store struct {
	Profiles *ProfileStore
	Tasks    *TaskStore
	Entries  *EntryStore

	dataDir string
}

// New creates the stores, creating the profiles directory if needed.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "profiles"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	d := dirs{dataDir: dataDir}
	return &Store{
		Profiles: &ProfileStore{dirs: d},
		Tasks:    &TaskStore{dirs: d},
		Entries:  &EntryStore{dirs: d},
		dataDir:  dataDir,
	}, nil
}

// DataDir returns the root the store writes under.
func (s *Store) DataDir() string {
	return s.dataDir
}

// writeFileAtomic writes via a temp file and rename so readers never see a
// torn document.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
