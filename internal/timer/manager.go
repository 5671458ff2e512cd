package timer

import (
	"errors"
	"fmt"
	"time"

	"sync"

	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
)

// TaskTitles resolves task titles so entries and events can carry a
// denormalized title. Implemented by the task manager.
type TaskTitles interface {
	ResolveTitle(profileID, taskID string) (string, error)
}

// Completed pairs an auto-completed entry with the profile it belongs to,
// queued for the drain worker.
type Completed struct {
	ProfileID string
	Entry     domain.Entry
}

// Manager is the exclusive registry of active timer engines, keyed by
// profile id. It enforces at most one active timer per profile.
//
// The registry lock is never held across a call into an engine: engine
// references are cloned or removed under the lock, then used after release.
type Manager struct {
	mu      sync.RWMutex
	engines map[string]*Engine

	events *bus.Bus
	tasks  TaskTitles

	completedMu sync.Mutex
	completed   []Completed
}

// NewManager creates an empty timer manager.
func NewManager(events *bus.Bus, tasks TaskTitles) *Manager {
	return &Manager{
		engines: make(map[string]*Engine),
		events:  events,
		tasks:   tasks,
	}
}

// StartManual starts an open-ended stopwatch timer for the profile.
func (m *Manager) StartManual(profileID string, taskID *string) (*domain.ActiveTimer, error) {
	return m.start(profileID, taskID, domain.ModeManual, nil, nil)
}

// StartPomodoro starts a pomodoro timer with the given phase configuration.
func (m *Manager) StartPomodoro(profileID string, taskID *string, cfg domain.PomodoroConfig) (*domain.ActiveTimer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return m.start(profileID, taskID, domain.ModePomodoro, &cfg, nil)
}

// StartCountdown starts a fixed-duration timer that completes on its own.
func (m *Manager) StartCountdown(profileID string, taskID *string, durationMinutes int) (*domain.ActiveTimer, error) {
	if durationMinutes < 1 {
		return nil, domain.Validationf("countdown duration must be at least 1 minute, got %d", durationMinutes)
	}
	target := int64(durationMinutes) * 60
	return m.start(profileID, taskID, domain.ModeCountdown, nil, &target)
}

func (m *Manager) start(profileID string, taskID *string, mode domain.TimerMode, pomodoro *domain.PomodoroConfig, target *int64) (*domain.ActiveTimer, error) {
	if err := domain.ValidateProfileID(profileID); err != nil {
		return nil, err
	}

	// Resolve the task title before taking the registry lock; the task
	// manager does its own locking and may touch storage.
	var taskTitle *string
	if taskID != nil && m.tasks != nil {
		title, err := m.tasks.ResolveTitle(profileID, *taskID)
		if err != nil {
			return nil, fmt.Errorf("resolving task %s: %w", *taskID, err)
		}
		taskTitle = &title
	}

	now := time.Now().UTC()
	t := &domain.ActiveTimer{
		ID:        domain.NewID(),
		ProfileID: profileID,
		TaskID:    taskID,
		TaskTitle: taskTitle,
		Mode:      mode,
		State:     domain.TimerRunning,
		StartTime: now,
	}
	if pomodoro != nil {
		t.Pomodoro = domain.NewPomodoroState(*pomodoro, now)
	}
	t.TargetDuration = target

	var onAutoComplete func(domain.Entry)
	if mode == domain.ModeCountdown {
		onAutoComplete = func(entry domain.Entry) {
			m.autoComplete(profileID, entry)
		}
	}
	engine := newEngine(t, m.events, onAutoComplete)

	m.mu.Lock()
	if _, exists := m.engines[profileID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("profile %q: %w", profileID, domain.ErrProfileHasActiveTimer)
	}
	m.engines[profileID] = engine
	m.mu.Unlock()

	m.events.EmitTimer(domain.TimerEvent{
		Timestamp: now,
		TimerID:   t.ID,
		ProfileID: profileID,
		TaskID:    taskID,
		Event:     domain.TimerEventKind{Type: domain.TimerStarted},
	})
	go engine.Run()

	return engine.Snapshot(), nil
}

// autoComplete removes a countdown engine whose loop has finished, then
// queues its entry. Removal happens strictly before the queue push so a
// concurrent get sees either the live timer or a clean not-found.
func (m *Manager) autoComplete(profileID string, entry domain.Entry) {
	m.mu.Lock()
	delete(m.engines, profileID)
	m.mu.Unlock()

	m.completedMu.Lock()
	m.completed = append(m.completed, Completed{ProfileID: profileID, Entry: entry})
	m.completedMu.Unlock()
}

// TakeCompleted atomically drains the queue of auto-completed entries.
func (m *Manager) TakeCompleted() []Completed {
	m.completedMu.Lock()
	defer m.completedMu.Unlock()

	taken := m.completed
	m.completed = nil
	return taken
}

// engineFor looks up the engine for a profile without holding the lock
// across the subsequent engine call.
func (m *Manager) engineFor(profileID string) (*Engine, error) {
	m.mu.RLock()
	engine, ok := m.engines[profileID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no active timer for profile %q: %w", profileID, domain.ErrNotFound)
	}
	return engine, nil
}

// Pause pauses the profile's running timer.
func (m *Manager) Pause(profileID string) (*domain.ActiveTimer, error) {
	engine, err := m.engineFor(profileID)
	if err != nil {
		return nil, err
	}
	if err := engine.Pause(); err != nil {
		return nil, err
	}
	return engine.Snapshot(), nil
}

// Resume resumes the profile's paused timer.
func (m *Manager) Resume(profileID string) (*domain.ActiveTimer, error) {
	engine, err := m.engineFor(profileID)
	if err != nil {
		return nil, err
	}
	if err := engine.Resume(); err != nil {
		return nil, err
	}
	return engine.Snapshot(), nil
}

// Stop removes the profile's timer from the registry and stops it,
// returning the completed entry. Removal and stop are atomic with respect
// to other starts: once Stop returns, the profile can start a new timer.
func (m *Manager) Stop(profileID string) (*domain.Entry, error) {
	m.mu.Lock()
	engine, ok := m.engines[profileID]
	if ok {
		delete(m.engines, profileID)
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no active timer for profile %q: %w", profileID, domain.ErrNotFound)
	}
	entry, err := engine.Stop()
	if err != nil && errors.Is(err, domain.ErrInvalidState) {
		// The countdown finished on its own in the same instant. If the tick
		// loop has not claimed the entry yet, hand it to the caller; claiming
		// it here keeps it out of the drain queue, so it is recorded once.
		if final := engine.takeFinal(); final != nil {
			return final, nil
		}
	}
	return entry, err
}

// Cancel removes and stops the profile's timer, discarding the interval.
func (m *Manager) Cancel(profileID string) error {
	m.mu.Lock()
	engine, ok := m.engines[profileID]
	if ok {
		delete(m.engines, profileID)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no active timer for profile %q: %w", profileID, domain.ErrNotFound)
	}
	return engine.Cancel()
}

// Get returns a snapshot of the timer with the given timer id.
func (m *Manager) Get(timerID string) (*domain.ActiveTimer, error) {
	m.mu.RLock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, engine := range m.engines {
		engines = append(engines, engine)
	}
	m.mu.RUnlock()

	for _, engine := range engines {
		if snap := engine.Snapshot(); snap.ID == timerID {
			return snap, nil
		}
	}
	return nil, fmt.Errorf("timer %q: %w", timerID, domain.ErrNotFound)
}

// GetByProfile returns a snapshot of the profile's active timer, or nil if
// the profile has none.
func (m *Manager) GetByProfile(profileID string) *domain.ActiveTimer {
	m.mu.RLock()
	engine, ok := m.engines[profileID]
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	return engine.Snapshot()
}

// List returns snapshots of every active timer.
func (m *Manager) List() []*domain.ActiveTimer {
	m.mu.RLock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, engine := range m.engines {
		engines = append(engines, engine)
	}
	m.mu.RUnlock()

	timers := make([]*domain.ActiveTimer, 0, len(engines))
	for _, engine := range engines {
		timers = append(timers, engine.Snapshot())
	}
	return timers
}

// ListByProfile returns snapshots of the profile's active timers (zero or one).
func (m *Manager) ListByProfile(profileID string) []*domain.ActiveTimer {
	if snap := m.GetByProfile(profileID); snap != nil {
		return []*domain.ActiveTimer{snap}
	}
	return []*domain.ActiveTimer{}
}
