// Package config provides the mootimer configuration document: loading,
// defaults, validation, and whole-document replacement on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/xvierd/mootimer/internal/domain"
)

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/tmp/mootimer.sock"

// Config is the single configuration document, stored pretty-printed at
// <config dir>/mootimer/config.json.
type Config struct {
	DefaultProfile string         `json:"default_profile" mapstructure:"default_profile"`
	Daemon         DaemonConfig   `json:"daemon" mapstructure:"daemon"`
	Pomodoro       PomodoroConfig `json:"pomodoro" mapstructure:"pomodoro"`
	Sync           SyncConfig     `json:"sync" mapstructure:"sync"`
}

// DaemonConfig holds daemon process settings.
type DaemonConfig struct {
	SocketPath string `json:"socket_path" mapstructure:"socket_path"`
	LogLevel   string `json:"log_level" mapstructure:"log_level"`
}

// PomodoroConfig holds timer durations, in seconds.
type PomodoroConfig struct {
	WorkDuration           int64 `json:"work_duration" mapstructure:"work_duration"`
	ShortBreak             int64 `json:"short_break" mapstructure:"short_break"`
	LongBreak              int64 `json:"long_break" mapstructure:"long_break"`
	SessionsUntilLongBreak int   `json:"sessions_until_long_break" mapstructure:"sessions_until_long_break"`
	CountdownDefault       int64 `json:"countdown_default" mapstructure:"countdown_default"`
}

// SyncConfig holds version-control settings for the data directory.
type SyncConfig struct {
	AutoCommit bool    `json:"auto_commit" mapstructure:"auto_commit"`
	AutoPush   bool    `json:"auto_push" mapstructure:"auto_push"`
	RemoteURL  *string `json:"remote_url,omitempty" mapstructure:"remote_url"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		DefaultProfile: "default",
		Daemon: DaemonConfig{
			SocketPath: DefaultSocketPath,
			LogLevel:   "info",
		},
		Pomodoro: PomodoroConfig{
			WorkDuration:           25 * 60,
			ShortBreak:             5 * 60,
			LongBreak:              15 * 60,
			SessionsUntilLongBreak: 4,
			CountdownDefault:       30 * 60,
		},
		Sync: SyncConfig{},
	}
}

// Validate checks duration bounds and the auto-push/remote invariant.
func (c *Config) Validate() error {
	if err := c.ToPomodoroDomainConfig().Validate(); err != nil {
		return err
	}
	if c.Pomodoro.CountdownDefault < 1 || c.Pomodoro.CountdownDefault > 7200 {
		return domain.Validationf("countdown default must be between 1 and 7200 seconds, got %d", c.Pomodoro.CountdownDefault)
	}
	if c.Sync.AutoPush && (c.Sync.RemoteURL == nil || *c.Sync.RemoteURL == "") {
		return domain.Validationf("sync.auto_push requires sync.remote_url")
	}
	return nil
}

// ToPomodoroDomainConfig converts the document's pomodoro section into the
// timer engine's configuration.
func (c *Config) ToPomodoroDomainConfig() domain.PomodoroConfig {
	return domain.PomodoroConfig{
		WorkDuration:           c.Pomodoro.WorkDuration,
		ShortBreak:             c.Pomodoro.ShortBreak,
		LongBreak:              c.Pomodoro.LongBreak,
		SessionsUntilLongBreak: c.Pomodoro.SessionsUntilLongBreak,
	}
}

// SyncSettings flattens the sync section for the syncer port.
func (c *Config) SyncSettings() (autoCommit, autoPush bool, remoteURL string) {
	remote := ""
	if c.Sync.RemoteURL != nil {
		remote = *c.Sync.RemoteURL
	}
	return c.Sync.AutoCommit, c.Sync.AutoPush, remote
}

// Store loads and saves the config document at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the default config path.
func NewStore() (*Store, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(path), nil
}

// NewStoreAt creates a store for an explicit path (used by tests).
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Load reads the config document. If the file is absent or empty, defaults
// are written and returned.
func (s *Store) Load() (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	info, err := os.Stat(s.path)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		cfg := DefaultConfig()
		if err := s.Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save replaces the whole document after validation.
func (s *Store) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")

	v.Set("default_profile", cfg.DefaultProfile)
	v.Set("daemon.socket_path", cfg.Daemon.SocketPath)
	v.Set("daemon.log_level", cfg.Daemon.LogLevel)
	v.Set("pomodoro.work_duration", cfg.Pomodoro.WorkDuration)
	v.Set("pomodoro.short_break", cfg.Pomodoro.ShortBreak)
	v.Set("pomodoro.long_break", cfg.Pomodoro.LongBreak)
	v.Set("pomodoro.sessions_until_long_break", cfg.Pomodoro.SessionsUntilLongBreak)
	v.Set("pomodoro.countdown_default", cfg.Pomodoro.CountdownDefault)
	v.Set("sync.auto_commit", cfg.Sync.AutoCommit)
	v.Set("sync.auto_push", cfg.Sync.AutoPush)
	if cfg.Sync.RemoteURL != nil {
		v.Set("sync.remote_url", *cfg.Sync.RemoteURL)
	}

	return v.WriteConfig()
}

// setDefaults registers defaults so partially written documents still load.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("default_profile", defaults.DefaultProfile)
	v.SetDefault("daemon.socket_path", defaults.Daemon.SocketPath)
	v.SetDefault("daemon.log_level", defaults.Daemon.LogLevel)
	v.SetDefault("pomodoro.work_duration", defaults.Pomodoro.WorkDuration)
	v.SetDefault("pomodoro.short_break", defaults.Pomodoro.ShortBreak)
	v.SetDefault("pomodoro.long_break", defaults.Pomodoro.LongBreak)
	v.SetDefault("pomodoro.sessions_until_long_break", defaults.Pomodoro.SessionsUntilLongBreak)
	v.SetDefault("pomodoro.countdown_default", defaults.Pomodoro.CountdownDefault)
	v.SetDefault("sync.auto_commit", defaults.Sync.AutoCommit)
	v.SetDefault("sync.auto_push", defaults.Sync.AutoPush)
}

// Path returns the config document location, honoring XDG_CONFIG_HOME.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "mootimer", "config.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mootimer", "config.json"), nil
}

// DataDir returns the data directory root, honoring XDG_DATA_HOME.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "mootimer"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "mootimer"), nil
}
