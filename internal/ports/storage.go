// Package ports defines the interfaces (driven and driving ports) between
// the mootimer managers and external infrastructure. Storage adapters and
// the git syncer implement these contracts.
package ports

import (
	"github.com/xvierd/mootimer/internal/domain"
)

// ProfileStore persists profile documents, one directory per profile.
// This is a driven port (implemented by adapters).
type ProfileStore interface {
	// LoadAll reads every profile document under the data directory.
	LoadAll() ([]*domain.Profile, error)

	// Save writes a profile document, creating its directory if needed.
	Save(profile *domain.Profile) error

	// Delete removes the profile's directory and everything in it.
	Delete(id string) error
}

// TaskStore persists the task list of a profile as a single document.
// This is a driven port (implemented by adapters).
type TaskStore interface {
	// Load reads the profile's task list; missing files yield an empty list.
	Load(profileID string) ([]*domain.Task, error)

	// Save rewrites the profile's task list.
	Save(profileID string, tasks []*domain.Task) error

	// Delete removes the profile's task document.
	Delete(profileID string) error
}

// EntryStore persists the entry log of a profile as an append-oriented
// tabular file. This is a driven port (implemented by adapters).
type EntryStore interface {
	// Load reads all entries in the order written; missing files yield an
	// empty list.
	Load(profileID string) ([]*domain.Entry, error)

	// Append adds one entry to the end of the log, writing the header on
	// first create.
	Append(profileID string, entry *domain.Entry) error

	// Rewrite replaces the whole log with the given entries.
	Rewrite(profileID string, entries []*domain.Entry) error
}
