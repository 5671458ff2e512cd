package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/mootimer/internal/domain"
)

func pickerTasks(t *testing.T) []*domain.Task {
	t.Helper()
	var tasks []*domain.Task
	for _, title := range []string{"Write report", "Review budget", "Water plants"} {
		task, err := domain.NewTask(title, "", "", nil)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func typeString(m pickerModel, s string) pickerModel {
	for _, ch := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{ch}})
		m = next.(pickerModel)
	}
	return m
}

func TestPicker_EmptyQueryListsAll(t *testing.T) {
	m := newPickerModel(pickerTasks(t))
	if len(m.matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(m.matches))
	}
	view := m.View()
	for _, title := range []string{"Write report", "Review budget", "Water plants"} {
		if !strings.Contains(view, title) {
			t.Errorf("view missing %q", title)
		}
	}
}

func TestPicker_FuzzyFilter(t *testing.T) {
	m := typeString(newPickerModel(pickerTasks(t)), "budg")
	if len(m.matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(m.matches))
	}
	if got := m.tasks[m.matches[0].Index].Title; got != "Review budget" {
		t.Fatalf("match = %q, want Review budget", got)
	}
}

func TestPicker_SelectAndAbort(t *testing.T) {
	m := newPickerModel(pickerTasks(t))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(pickerModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(pickerModel)
	if !m.chosen || m.cursor != 1 {
		t.Fatalf("chosen = %v cursor = %d, want chosen at 1", m.chosen, m.cursor)
	}

	m = newPickerModel(pickerTasks(t))
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(pickerModel)
	if !m.aborted {
		t.Fatal("escape must abort")
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{1500, "25:00"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "00:00"},
	}
	for _, tc := range cases {
		if got := formatClock(tc.seconds); got != tc.want {
			t.Errorf("formatClock(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestRenderClock_NarrowFallback(t *testing.T) {
	narrow := renderClock("25:00", defaultPalette().accent, 30)
	if strings.Count(narrow, "\n") != 0 {
		t.Fatal("narrow terminals must get a single-line clock")
	}
	wide := renderClock("25:00", defaultPalette().accent, 80)
	if strings.Count(wide, "\n") != 4 {
		t.Fatalf("wide clock lines = %d, want 5", strings.Count(wide, "\n")+1)
	}
}

func TestWatchModel_DescribeTimer(t *testing.T) {
	m := NewWatchModel(nil, "default")
	m.elapsed = 1500

	m.timer = &domain.ActiveTimer{Mode: domain.ModeManual, State: domain.TimerRunning}
	if got := m.describeTimer(); got != "manual" {
		t.Fatalf("describeTimer() = %q, want manual", got)
	}

	m.timer.State = domain.TimerPaused
	if got := m.describeTimer(); !strings.Contains(got, "paused") {
		t.Fatalf("describeTimer() = %q, want paused marker", got)
	}

	cfg := domain.DefaultPomodoroConfig()
	m.timer = &domain.ActiveTimer{
		Mode:     domain.ModePomodoro,
		State:    domain.TimerRunning,
		Pomodoro: &domain.PomodoroState{Config: cfg, CurrentSession: 2, Phase: domain.PhaseShortBreak},
	}
	got := m.describeTimer()
	if !strings.Contains(got, "short break") || !strings.Contains(got, "session 2/4") {
		t.Fatalf("describeTimer() = %q", got)
	}
}
