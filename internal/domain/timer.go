package domain

import "time"

// TimerMode selects the timing discipline of a timer.
type TimerMode string

const (
	ModeManual    TimerMode = "manual"
	ModePomodoro  TimerMode = "pomodoro"
	ModeCountdown TimerMode = "countdown"
)

// TimerState represents the runtime state of a timer.
type TimerState string

const (
	TimerRunning TimerState = "running"
	TimerPaused  TimerState = "paused"
	TimerStopped TimerState = "stopped"
)

// PomodoroPhase is a pomodoro sub-state.
type PomodoroPhase string

const (
	PhaseWork       PomodoroPhase = "work"
	PhaseShortBreak PomodoroPhase = "short_break"
	PhaseLongBreak  PomodoroPhase = "long_break"
)

// PomodoroConfig holds pomodoro phase durations, in seconds.
type PomodoroConfig struct {
	WorkDuration           int64 `json:"work_duration"`
	ShortBreak             int64 `json:"short_break"`
	LongBreak              int64 `json:"long_break"`
	SessionsUntilLongBreak int   `json:"sessions_until_long_break"`
}

// DefaultPomodoroConfig returns the classic 25/5/15 configuration.
func DefaultPomodoroConfig() PomodoroConfig {
	return PomodoroConfig{
		WorkDuration:           25 * 60,
		ShortBreak:             5 * 60,
		LongBreak:              15 * 60,
		SessionsUntilLongBreak: 4,
	}
}

// maxPhaseDuration bounds each configurable phase to two hours.
const maxPhaseDuration = 7200

// Validate checks the duration bounds (1s..2h) and the session counter.
func (c PomodoroConfig) Validate() error {
	check := func(name string, v int64) error {
		if v < 1 || v > maxPhaseDuration {
			return Validationf("pomodoro %s must be between 1 and %d seconds, got %d", name, maxPhaseDuration, v)
		}
		return nil
	}
	if err := check("work duration", c.WorkDuration); err != nil {
		return err
	}
	if err := check("short break", c.ShortBreak); err != nil {
		return err
	}
	if err := check("long break", c.LongBreak); err != nil {
		return err
	}
	if c.SessionsUntilLongBreak < 1 {
		return Validationf("sessions until long break must be at least 1, got %d", c.SessionsUntilLongBreak)
	}
	return nil
}

// PomodoroState tracks the phase machine of one pomodoro timer.
type PomodoroState struct {
	Config         PomodoroConfig `json:"config"`
	CurrentSession int            `json:"current_session"`
	Phase          PomodoroPhase  `json:"phase"`
	PhaseStartTime time.Time      `json:"phase_start_time"`
}

// NewPomodoroState starts the machine in the first work phase.
func NewPomodoroState(cfg PomodoroConfig, now time.Time) *PomodoroState {
	return &PomodoroState{
		Config:         cfg,
		CurrentSession: 1,
		Phase:          PhaseWork,
		PhaseStartTime: now,
	}
}

// PhaseDuration returns the configured duration of a phase, in seconds.
func (s *PomodoroState) PhaseDuration(phase PomodoroPhase) int64 {
	switch phase {
	case PhaseShortBreak:
		return s.Config.ShortBreak
	case PhaseLongBreak:
		return s.Config.LongBreak
	default:
		return s.Config.WorkDuration
	}
}

// PhaseRemaining returns the seconds left in the current phase, floored at zero.
func (s *PomodoroState) PhaseRemaining(now time.Time) int64 {
	elapsed := DurationBetween(s.PhaseStartTime, now)
	remaining := s.PhaseDuration(s.Phase) - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NextPhase advances the phase machine:
//
//	work → short_break   while current_session < sessions_until_long_break
//	work → long_break    otherwise
//	short_break → work   incrementing current_session
//	long_break → work    resetting current_session to 1
//
// The phase start time is reset to now.
func (s *PomodoroState) NextPhase(now time.Time) {
	switch s.Phase {
	case PhaseWork:
		if s.CurrentSession < s.Config.SessionsUntilLongBreak {
			s.Phase = PhaseShortBreak
		} else {
			s.Phase = PhaseLongBreak
		}
	case PhaseShortBreak:
		s.Phase = PhaseWork
		s.CurrentSession++
	case PhaseLongBreak:
		s.Phase = PhaseWork
		s.CurrentSession = 1
	}
	s.PhaseStartTime = now
}

// ActiveTimer is the runtime state of one timer, owned by the timer manager.
// ElapsedSeconds is authoritative only once stopped; live values come from
// CurrentElapsed.
type ActiveTimer struct {
	ID                  string         `json:"id"`
	ProfileID           string         `json:"profile_id"`
	TaskID              *string        `json:"task_id,omitempty"`
	TaskTitle           *string        `json:"task_title,omitempty"`
	Mode                TimerMode      `json:"mode"`
	State               TimerState     `json:"state"`
	StartTime           time.Time      `json:"start_time"`
	PauseTime           *time.Time     `json:"pause_time,omitempty"`
	ElapsedSeconds      int64          `json:"elapsed_seconds"`
	AccumulatedWorkTime int64          `json:"accumulated_work_time,omitempty"`
	Pomodoro            *PomodoroState `json:"pomodoro_state,omitempty"`
	TargetDuration      *int64         `json:"target_duration,omitempty"`
}

// CurrentElapsed derives the elapsed work seconds at the given instant.
//
// Pomodoro timers count accumulated work time plus the live work phase;
// break phases do not accrue. Manual and countdown timers count wall time
// from start, frozen at the pause instant while paused.
func (t *ActiveTimer) CurrentElapsed(now time.Time) int64 {
	if t.Mode == ModePomodoro {
		if t.Pomodoro != nil && t.Pomodoro.Phase == PhaseWork && t.State != TimerStopped {
			return t.AccumulatedWorkTime + DurationBetween(t.Pomodoro.PhaseStartTime, now)
		}
		return t.AccumulatedWorkTime
	}

	switch t.State {
	case TimerRunning:
		return DurationBetween(t.StartTime, now)
	case TimerPaused:
		if t.PauseTime == nil {
			return DurationBetween(t.StartTime, now)
		}
		return DurationBetween(t.StartTime, *t.PauseTime)
	default:
		return t.ElapsedSeconds
	}
}

// Remaining returns the seconds left for bounded timers: the countdown target
// or the current pomodoro phase. Manual timers have no bound and return nil.
func (t *ActiveTimer) Remaining(now time.Time) *int64 {
	switch t.Mode {
	case ModeCountdown:
		if t.TargetDuration == nil {
			return nil
		}
		r := *t.TargetDuration - t.CurrentElapsed(now)
		if r < 0 {
			r = 0
		}
		return &r
	case ModePomodoro:
		if t.Pomodoro == nil {
			return nil
		}
		r := t.Pomodoro.PhaseRemaining(now)
		return &r
	default:
		return nil
	}
}

// Clone returns a deep copy of the timer.
func (t *ActiveTimer) Clone() *ActiveTimer {
	c := *t
	if t.TaskID != nil {
		v := *t.TaskID
		c.TaskID = &v
	}
	if t.TaskTitle != nil {
		v := *t.TaskTitle
		c.TaskTitle = &v
	}
	if t.PauseTime != nil {
		v := *t.PauseTime
		c.PauseTime = &v
	}
	if t.TargetDuration != nil {
		v := *t.TargetDuration
		c.TargetDuration = &v
	}
	if t.Pomodoro != nil {
		p := *t.Pomodoro
		c.Pomodoro = &p
	}
	return &c
}
