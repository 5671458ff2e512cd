// Package daemon wires the singletons together and runs the mootimer
// process: the storage-backed managers, the timer registry, the event bus,
// the RPC server, and the background drain worker.
package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xvierd/mootimer/internal/adapters/git"
	"github.com/xvierd/mootimer/internal/adapters/notification"
	"github.com/xvierd/mootimer/internal/adapters/storage"
	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/config"
	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/logging"
	"github.com/xvierd/mootimer/internal/rpc"
	"github.com/xvierd/mootimer/internal/services"
	"github.com/xvierd/mootimer/internal/timer"
)

// drainInterval is how often completed countdown entries are flushed from
// the timer manager into the entry log.
const drainInterval = 500 * time.Millisecond

// Options override configuration for one daemon run. Zero values defer to
// the config document.
type Options struct {
	SocketPath    string
	LogLevel      string
	DataDir       string
	ConfigPath    string
	Notifications bool
	ConsoleLog    bool
}

// Daemon owns every long-lived component of a running mootimer process.
type Daemon struct {
	cfg      *services.ConfigManager
	events   *bus.Bus
	profiles *services.ProfileManager
	tasks    *services.TaskManager
	entries  *services.EntryManager
	timers   *timer.Manager
	syncer   *git.Syncer
	notifier *notification.Notifier
	server   *rpc.Server

	socketPath string
}

// New loads configuration and wires all components. The RPC server is not
// started yet; Run does that.
func New(opts Options) (*Daemon, error) {
	var configStore *config.Store
	var err error
	if opts.ConfigPath != "" {
		configStore = config.NewStoreAt(opts.ConfigPath)
	} else {
		configStore, err = config.NewStore()
		if err != nil {
			return nil, err
		}
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir, err = config.DataDir()
		if err != nil {
			return nil, err
		}
	}

	events := bus.New()
	store, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	profiles, err := services.NewProfileManager(store.Profiles, events)
	if err != nil {
		return nil, err
	}
	cfgManager, err := services.NewConfigManager(configStore, profiles)
	if err != nil {
		return nil, err
	}
	cfg := cfgManager.Get()

	logLevel := cfg.Daemon.LogLevel
	if opts.LogLevel != "" {
		logLevel = opts.LogLevel
	}
	if opts.ConsoleLog {
		err = logging.InitializeConsole(logLevel)
	} else {
		err = logging.Initialize(filepath.Join(dataDir, "daemon.log"), logLevel)
	}
	if err != nil {
		return nil, err
	}

	if err := profiles.Ensure(cfg.DefaultProfile, cfg.DefaultProfile); err != nil {
		return nil, fmt.Errorf("failed to ensure default profile: %w", err)
	}

	tasks := services.NewTaskManager(store.Tasks, events)
	entries := services.NewEntryManager(store.Entries, events, profiles)
	timers := timer.NewManager(events, tasks)
	syncer := git.NewSyncer(dataDir)
	notifier := notification.New(events, opts.Notifications)

	socketPath := cfg.Daemon.SocketPath
	if opts.SocketPath != "" {
		socketPath = opts.SocketPath
	}

	d := &Daemon{
		cfg:        cfgManager,
		events:     events,
		profiles:   profiles,
		tasks:      tasks,
		entries:    entries,
		timers:     timers,
		syncer:     syncer,
		notifier:   notifier,
		socketPath: socketPath,
	}

	router := rpc.NewRouter()
	d.registerHandlers(router)
	d.server = rpc.NewServer(socketPath, router, events)
	return d, nil
}

// SocketPath returns the socket the daemon serves on.
func (d *Daemon) SocketPath() string {
	return d.socketPath
}

// Run starts the server and blocks until the context is cancelled, then
// shuts everything down in dependency order.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.server.Start(); err != nil {
		return err
	}
	d.notifier.Start()

	drainDone := make(chan struct{})
	go d.drainLoop(ctx, drainDone)

	logging.Infow("daemon started", "socket", d.socketPath)
	<-ctx.Done()
	logging.Infow("daemon shutting down")

	// Stop accepting work, cancel whatever is still running, flush the
	// completed queue, then tear down the fan-out.
	d.server.Stop()
	for _, t := range d.timers.List() {
		if err := d.timers.Cancel(t.ProfileID); err != nil {
			logging.Warnw("failed to cancel timer on shutdown", "profile", t.ProfileID, "error", err)
		}
	}
	<-drainDone
	d.drainCompleted()
	d.notifier.Stop()
	d.events.Close()
	logging.Sync()
	return nil
}

// drainLoop periodically flushes auto-completed countdown entries into the
// entry log.
func (d *Daemon) drainLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.drainCompleted()
		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) drainCompleted() {
	for _, completed := range d.timers.TakeCompleted() {
		entry := completed.Entry
		if err := d.entries.Add(completed.ProfileID, &entry); err != nil {
			logging.Errorw("failed to record auto-completed entry",
				"profile", completed.ProfileID, "entry", entry.ID, "error", err)
			continue
		}
		d.afterEntryRecorded(completed.ProfileID, &entry)
	}
}

// afterEntryRecorded runs the sync side effects of a new entry. Failures
// here are warnings; the entry is already safely on disk.
func (d *Daemon) afterEntryRecorded(profileID string, entry *domain.Entry) []string {
	cfg := d.cfg.Get()
	autoCommit, autoPush, remoteURL := cfg.SyncSettings()

	var warnings []string
	if autoCommit {
		task := "no task"
		if entry.TaskID != nil {
			task = *entry.TaskID
		}
		msg := fmt.Sprintf("mootimer: %s, %dm at %s",
			task, entry.DurationSeconds/60, time.Now().Format("2006-01-02 15:04"))
		err := d.syncer.Init()
		if err == nil {
			err = d.syncer.AutoCommit(msg)
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("auto-commit failed: %v", err))
			logging.Warnw("auto-commit failed", "profile", profileID, "error", err)
		}
	}
	if autoPush {
		settings := syncSettings(autoCommit, autoPush, remoteURL)
		if err := d.syncer.Sync(settings); err != nil {
			warnings = append(warnings, fmt.Sprintf("auto-push failed: %v", err))
			logging.Warnw("auto-push failed", "profile", profileID, "error", err)
		}
	}
	return warnings
}
