package ports

// SyncStatus describes the state of the data-directory repository.
type SyncStatus struct {
	Initialized bool   `json:"initialized"`
	Branch      string `json:"branch,omitempty"`
	Clean       bool   `json:"clean"`
	RemoteURL   string `json:"remote_url,omitempty"`
	LastCommit  string `json:"last_commit,omitempty"`
}

// SyncSettings carries the sync-relevant configuration into the syncer.
type SyncSettings struct {
	AutoCommit bool
	AutoPush   bool
	RemoteURL  string
}

// Syncer version-controls the data directory. The timer-stop path calls
// AutoCommit and Sync; failures there are warnings, never errors.
// This is a driven port (implemented by adapters).
type Syncer interface {
	// Init creates the repository on the data directory if absent.
	Init() error

	// Status reports the repository state.
	Status() (*SyncStatus, error)

	// AutoCommit stages the whole data directory and commits it with the
	// given message. A clean worktree is not an error.
	AutoCommit(message string) error

	// Commit stages and commits, returning the new commit hash.
	Commit(message string) (string, error)

	// Sync pushes to the configured remote.
	Sync(settings SyncSettings) error

	// SetRemote creates or replaces the push remote.
	SetRemote(url string) error
}
