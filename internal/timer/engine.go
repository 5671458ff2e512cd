// Package timer implements the per-profile timer engines and the manager
// that owns them. Each engine encapsulates one ActiveTimer and a 1-second
// tick loop; the manager enforces the one-active-timer-per-profile rule and
// collects entries from countdown timers that complete on their own.
package timer

import (
	"fmt"
	"time"

	"sync"

	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
)

// tickInterval is the engine's progress granularity.
const tickInterval = time.Second

// Engine owns one timer's state and its tick loop. All methods are safe for
// concurrent use; the tick loop runs on its own goroutine until the timer
// stops.
type Engine struct {
	mu sync.Mutex
	t  *domain.ActiveTimer

	events *bus.Bus

	// onAutoComplete is invoked from the tick loop goroutine when a countdown
	// reaches its target; nil for manual and pomodoro timers.
	onAutoComplete func(entry domain.Entry)

	// final holds an auto-completed countdown's entry until exactly one of
	// the tick loop or a concurrent Stop claims it.
	final *domain.Entry

	done chan struct{}
}

func newEngine(t *domain.ActiveTimer, events *bus.Bus, onAutoComplete func(domain.Entry)) *Engine {
	return &Engine{
		t:              t,
		events:         events,
		onAutoComplete: onAutoComplete,
		done:           make(chan struct{}),
	}
}

// Snapshot returns a copy of the timer with elapsed_seconds filled from the
// live derivation.
func (e *Engine) Snapshot() *domain.ActiveTimer {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.t.Clone()
	snap.ElapsedSeconds = e.t.CurrentElapsed(time.Now().UTC())
	return snap
}

// Pause freezes a running timer at the current instant.
func (e *Engine) Pause() error {
	e.mu.Lock()
	t := e.t
	if t.State != domain.TimerRunning {
		e.mu.Unlock()
		return fmt.Errorf("cannot pause timer in state %q: %w", t.State, domain.ErrInvalidState)
	}
	now := time.Now().UTC()
	t.PauseTime = &now
	t.State = domain.TimerPaused
	elapsed := t.CurrentElapsed(now)
	ev := e.eventLocked(domain.TimerEventKind{Type: domain.TimerPausedEvent, ElapsedSeconds: elapsed})
	e.mu.Unlock()

	e.events.EmitTimer(ev)
	return nil
}

// Resume continues a paused timer, shifting its start time forward so the
// paused interval does not count as elapsed work.
func (e *Engine) Resume() error {
	e.mu.Lock()
	t := e.t
	if t.State != domain.TimerPaused || t.PauseTime == nil {
		e.mu.Unlock()
		return fmt.Errorf("cannot resume timer in state %q: %w", t.State, domain.ErrInvalidState)
	}
	now := time.Now().UTC()
	pausedFor := now.Sub(*t.PauseTime)
	t.StartTime = t.StartTime.Add(pausedFor)
	if t.Pomodoro != nil {
		t.Pomodoro.PhaseStartTime = t.Pomodoro.PhaseStartTime.Add(pausedFor)
	}
	t.PauseTime = nil
	t.State = domain.TimerRunning
	ev := e.eventLocked(domain.TimerEventKind{Type: domain.TimerResumedEvent, ElapsedSeconds: t.CurrentElapsed(now)})
	e.mu.Unlock()

	e.events.EmitTimer(ev)
	return nil
}

// Stop freezes the timer and synthesizes its completed entry. The tick loop
// observes the stopped state and exits on its next wakeup.
func (e *Engine) Stop() (*domain.Entry, error) {
	e.mu.Lock()
	t := e.t
	if t.State == domain.TimerStopped {
		e.mu.Unlock()
		return nil, fmt.Errorf("timer already stopped: %w", domain.ErrInvalidState)
	}
	now := time.Now().UTC()
	t.ElapsedSeconds = t.CurrentElapsed(now)
	t.State = domain.TimerStopped
	entry := e.entryLocked(now)
	ev := e.eventLocked(domain.TimerEventKind{Type: domain.TimerStoppedEvent, DurationSeconds: entry.DurationSeconds})
	e.mu.Unlock()

	e.events.EmitTimer(ev)
	return &entry, nil
}

// Cancel stops the timer and discards the interval.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	t := e.t
	if t.State == domain.TimerStopped {
		e.mu.Unlock()
		return fmt.Errorf("timer already stopped: %w", domain.ErrInvalidState)
	}
	now := time.Now().UTC()
	t.ElapsedSeconds = t.CurrentElapsed(now)
	t.State = domain.TimerStopped
	ev := e.eventLocked(domain.TimerEventKind{Type: domain.TimerCancelled, ElapsedSeconds: t.ElapsedSeconds})
	e.mu.Unlock()

	e.events.EmitTimer(ev)
	return nil
}

// Done is closed when the tick loop has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run drives the tick loop. Started by the manager on a dedicated goroutine;
// returns when the timer stops.
func (e *Engine) Run() {
	defer close(e.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		events, autoEntry, finished := e.tick()
		for _, ev := range events {
			e.events.EmitTimer(ev)
		}
		if autoEntry != nil && e.onAutoComplete != nil {
			if entry := e.takeFinal(); entry != nil {
				e.onAutoComplete(*entry)
			}
		}
		if finished {
			return
		}
	}
}

// tick advances the timer by one interval and returns the events to emit.
// State mutation happens under the lock; emission happens in Run afterwards
// so slow subscribers never hold up the engine.
func (e *Engine) tick() (events []domain.TimerEvent, autoEntry *domain.Entry, finished bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.t
	switch t.State {
	case domain.TimerStopped:
		return nil, nil, true
	case domain.TimerPaused:
		return nil, nil, false
	}

	now := time.Now().UTC()
	elapsed := t.CurrentElapsed(now)
	events = append(events, e.eventLocked(domain.TimerEventKind{
		Type:             domain.TimerTick,
		ElapsedSeconds:   elapsed,
		RemainingSeconds: t.Remaining(now),
	}))

	if t.Mode == domain.ModePomodoro && t.Pomodoro != nil {
		st := t.Pomodoro
		if st.PhaseRemaining(now) == 0 {
			completed := st.Phase
			events = append(events, e.eventLocked(domain.TimerEventKind{
				Type:    domain.TimerPhaseCompleted,
				Phase:   completed,
				Session: st.CurrentSession,
			}))
			if completed == domain.PhaseWork {
				// Idealized accounting: the full configured work duration,
				// not the wall-clock phase time.
				t.AccumulatedWorkTime += st.Config.WorkDuration
			}
			st.NextPhase(now)
			events = append(events, e.eventLocked(domain.TimerEventKind{
				Type:    domain.TimerPhaseChanged,
				Phase:   st.Phase,
				Session: st.CurrentSession,
			}))
		}
	}

	if t.Mode == domain.ModeCountdown && t.TargetDuration != nil && elapsed >= *t.TargetDuration {
		t.ElapsedSeconds = elapsed
		t.State = domain.TimerStopped
		entry := e.entryLocked(now)
		final := entry
		e.final = &final
		events = append(events,
			e.eventLocked(domain.TimerEventKind{Type: domain.TimerCountdownCompleted, ElapsedSeconds: elapsed}),
			e.eventLocked(domain.TimerEventKind{Type: domain.TimerStoppedEvent, DurationSeconds: entry.DurationSeconds}),
		)
		return events, &entry, true
	}

	return events, nil, false
}

// takeFinal claims the auto-completed entry, if any. At most one caller
// receives it; later callers get nil.
func (e *Engine) takeFinal() *domain.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := e.final
	e.final = nil
	return entry
}

// entryLocked synthesizes the completed entry for the current interval.
// Caller holds e.mu.
func (e *Engine) entryLocked(now time.Time) domain.Entry {
	t := e.t
	end := now
	return domain.Entry{
		ID:              domain.NewID(),
		TaskID:          t.TaskID,
		TaskTitle:       t.TaskTitle,
		StartTime:       t.StartTime,
		EndTime:         &end,
		DurationSeconds: domain.DurationBetween(t.StartTime, now),
		Mode:            t.Mode,
		Tags:            []string{},
	}
}

// eventLocked builds a timer event for the current timer. Caller holds e.mu.
func (e *Engine) eventLocked(kind domain.TimerEventKind) domain.TimerEvent {
	return domain.TimerEvent{
		Timestamp: time.Now().UTC(),
		TimerID:   e.t.ID,
		ProfileID: e.t.ProfileID,
		TaskID:    e.t.TaskID,
		Event:     kind,
	}
}
