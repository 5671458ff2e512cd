package services

import (
	"fmt"
	"sync"

	"github.com/xvierd/mootimer/internal/config"
	"github.com/xvierd/mootimer/internal/domain"
)

// ProfileChecker answers whether a profile id is known, for validating the
// default-profile setting.
type ProfileChecker interface {
	Exists(id string) bool
}

// ConfigManager owns the cached configuration document and persists every
// change through the config store.
type ConfigManager struct {
	mu       sync.RWMutex
	store    *config.Store
	profiles ProfileChecker
	cfg      *config.Config
}

// NewConfigManager loads (or creates) the config document.
func NewConfigManager(store *config.Store, profiles ProfileChecker) (*ConfigManager, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &ConfigManager{store: store, profiles: profiles, cfg: cfg}, nil
}

// Get returns a copy of the current configuration.
func (m *ConfigManager) Get() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	copy := *m.cfg
	return &copy
}

// SetDefaultProfile changes the default profile. The profile must exist.
func (m *ConfigManager) SetDefaultProfile(id string) (*config.Config, error) {
	if !m.profiles.Exists(id) {
		return nil, fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}
	return m.mutate(func(cfg *config.Config) {
		cfg.DefaultProfile = id
	})
}

// UpdatePomodoroRequest carries the optional pomodoro settings, in seconds.
// Nil fields are left unchanged.
type UpdatePomodoroRequest struct {
	WorkDuration           *int64
	ShortBreak             *int64
	LongBreak              *int64
	SessionsUntilLongBreak *int
	CountdownDefault       *int64
}

// UpdatePomodoro applies the non-nil duration settings after validation.
func (m *ConfigManager) UpdatePomodoro(req UpdatePomodoroRequest) (*config.Config, error) {
	return m.mutate(func(cfg *config.Config) {
		if req.WorkDuration != nil {
			cfg.Pomodoro.WorkDuration = *req.WorkDuration
		}
		if req.ShortBreak != nil {
			cfg.Pomodoro.ShortBreak = *req.ShortBreak
		}
		if req.LongBreak != nil {
			cfg.Pomodoro.LongBreak = *req.LongBreak
		}
		if req.SessionsUntilLongBreak != nil {
			cfg.Pomodoro.SessionsUntilLongBreak = *req.SessionsUntilLongBreak
		}
		if req.CountdownDefault != nil {
			cfg.Pomodoro.CountdownDefault = *req.CountdownDefault
		}
	})
}

// UpdateSyncRequest carries the optional sync settings. Nil fields are left
// unchanged; an empty remote url clears the remote.
type UpdateSyncRequest struct {
	AutoCommit *bool
	AutoPush   *bool
	RemoteURL  *string
}

// UpdateSync applies the non-nil sync settings after validation.
func (m *ConfigManager) UpdateSync(req UpdateSyncRequest) (*config.Config, error) {
	return m.mutate(func(cfg *config.Config) {
		if req.AutoCommit != nil {
			cfg.Sync.AutoCommit = *req.AutoCommit
		}
		if req.AutoPush != nil {
			cfg.Sync.AutoPush = *req.AutoPush
		}
		if req.RemoteURL != nil {
			if *req.RemoteURL == "" {
				cfg.Sync.RemoteURL = nil
			} else {
				url := *req.RemoteURL
				cfg.Sync.RemoteURL = &url
			}
		}
	})
}

// Reset restores the default configuration, keeping the daemon section so a
// reset over a non-default socket does not orphan the running daemon.
func (m *ConfigManager) Reset() (*config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := config.DefaultConfig()
	next.Daemon = m.cfg.Daemon
	if err := m.store.Save(next); err != nil {
		return nil, err
	}
	m.cfg = next
	copy := *next
	return &copy, nil
}

// mutate applies fn to a copy of the config and persists it. Validation
// happens in the store's Save; the cache only advances on success.
func (m *ConfigManager) mutate(fn func(*config.Config)) (*config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := *m.cfg
	fn(&next)
	if err := m.store.Save(&next); err != nil {
		return nil, err
	}
	m.cfg = &next
	copy := next
	return &copy, nil
}
