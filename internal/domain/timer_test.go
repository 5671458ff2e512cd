package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPomodoroConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultPomodoroConfig().Validate())

	bad := DefaultPomodoroConfig()
	bad.WorkDuration = 0
	assert.Error(t, bad.Validate())

	bad = DefaultPomodoroConfig()
	bad.LongBreak = maxPhaseDuration + 1
	assert.Error(t, bad.Validate())

	bad = DefaultPomodoroConfig()
	bad.SessionsUntilLongBreak = 0
	assert.Error(t, bad.Validate())
}

func TestPomodoroState_PhaseMachine(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	cfg := PomodoroConfig{
		WorkDuration:           1500,
		ShortBreak:             300,
		LongBreak:              900,
		SessionsUntilLongBreak: 2,
	}
	st := NewPomodoroState(cfg, now)

	require.Equal(t, PhaseWork, st.Phase)
	require.Equal(t, 1, st.CurrentSession)

	// With sessions_until_long_break = 2 the machine cycles through
	// work(1), short_break(1), work(2), long_break(2), back to work(1).
	st.NextPhase(now)
	assert.Equal(t, PhaseShortBreak, st.Phase)
	assert.Equal(t, 1, st.CurrentSession)

	st.NextPhase(now)
	assert.Equal(t, PhaseWork, st.Phase)
	assert.Equal(t, 2, st.CurrentSession)

	st.NextPhase(now)
	assert.Equal(t, PhaseLongBreak, st.Phase)
	assert.Equal(t, 2, st.CurrentSession)

	st.NextPhase(now)
	assert.Equal(t, PhaseWork, st.Phase)
	assert.Equal(t, 1, st.CurrentSession)
}

func TestPomodoroState_PhaseRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	st := NewPomodoroState(DefaultPomodoroConfig(), now)

	assert.Equal(t, int64(1500), st.PhaseRemaining(now))
	assert.Equal(t, int64(1400), st.PhaseRemaining(now.Add(100*time.Second)))
	assert.Equal(t, int64(0), st.PhaseRemaining(now.Add(2000*time.Second)), "remaining floors at zero")
}

func TestActiveTimer_CurrentElapsed(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("running manual counts wall time", func(t *testing.T) {
		timer := &ActiveTimer{Mode: ModeManual, State: TimerRunning, StartTime: start}
		assert.Equal(t, int64(90), timer.CurrentElapsed(start.Add(90*time.Second)))
	})

	t.Run("paused manual freezes at pause instant", func(t *testing.T) {
		pause := start.Add(60 * time.Second)
		timer := &ActiveTimer{Mode: ModeManual, State: TimerPaused, StartTime: start, PauseTime: &pause}
		assert.Equal(t, int64(60), timer.CurrentElapsed(start.Add(500*time.Second)))
	})

	t.Run("stopped returns frozen value", func(t *testing.T) {
		timer := &ActiveTimer{Mode: ModeManual, State: TimerStopped, StartTime: start, ElapsedSeconds: 123}
		assert.Equal(t, int64(123), timer.CurrentElapsed(start.Add(time.Hour)))
	})

	t.Run("pomodoro work phase accrues live", func(t *testing.T) {
		timer := &ActiveTimer{
			Mode:                ModePomodoro,
			State:               TimerRunning,
			StartTime:           start,
			AccumulatedWorkTime: 1500,
			Pomodoro:            NewPomodoroState(DefaultPomodoroConfig(), start),
		}
		assert.Equal(t, int64(1500+40), timer.CurrentElapsed(start.Add(40*time.Second)))
	})

	t.Run("pomodoro break phase does not accrue", func(t *testing.T) {
		st := NewPomodoroState(DefaultPomodoroConfig(), start)
		st.Phase = PhaseShortBreak
		timer := &ActiveTimer{
			Mode:                ModePomodoro,
			State:               TimerRunning,
			StartTime:           start,
			AccumulatedWorkTime: 1500,
			Pomodoro:            st,
		}
		assert.Equal(t, int64(1500), timer.CurrentElapsed(start.Add(200*time.Second)))
	})
}

func TestActiveTimer_Remaining(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("manual has no bound", func(t *testing.T) {
		timer := &ActiveTimer{Mode: ModeManual, State: TimerRunning, StartTime: start}
		assert.Nil(t, timer.Remaining(start.Add(time.Minute)))
	})

	t.Run("countdown counts down to zero", func(t *testing.T) {
		target := int64(600)
		timer := &ActiveTimer{Mode: ModeCountdown, State: TimerRunning, StartTime: start, TargetDuration: &target}
		r := timer.Remaining(start.Add(100 * time.Second))
		require.NotNil(t, r)
		assert.Equal(t, int64(500), *r)

		r = timer.Remaining(start.Add(2 * time.Hour))
		require.NotNil(t, r)
		assert.Equal(t, int64(0), *r)
	})

	t.Run("pomodoro reports phase remaining", func(t *testing.T) {
		timer := &ActiveTimer{
			Mode:      ModePomodoro,
			State:     TimerRunning,
			StartTime: start,
			Pomodoro:  NewPomodoroState(DefaultPomodoroConfig(), start),
		}
		r := timer.Remaining(start.Add(300 * time.Second))
		require.NotNil(t, r)
		assert.Equal(t, int64(1200), *r)
	})
}

func TestActiveTimer_Clone(t *testing.T) {
	start := time.Now().UTC()
	taskID := "task-1"
	target := int64(600)
	timer := &ActiveTimer{
		ID:             NewID(),
		ProfileID:      "work",
		TaskID:         &taskID,
		Mode:           ModeCountdown,
		State:          TimerRunning,
		StartTime:      start,
		TargetDuration: &target,
		Pomodoro:       NewPomodoroState(DefaultPomodoroConfig(), start),
	}

	clone := timer.Clone()
	*clone.TaskID = "other"
	*clone.TargetDuration = 1
	clone.Pomodoro.CurrentSession = 9

	assert.Equal(t, "task-1", *timer.TaskID)
	assert.Equal(t, int64(600), *timer.TargetDuration)
	assert.Equal(t, 1, timer.Pomodoro.CurrentSession)
}
