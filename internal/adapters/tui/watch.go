package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/rpc"
)

// Messages flowing into the watch model.
type (
	timerEventMsg   domain.TimerEvent
	otherEventMsg   struct{}
	disconnectedMsg struct{}
	snapshotMsg     struct{ timer *domain.ActiveTimer }
	actionDoneMsg   struct{ status string }
	rpcErrMsg       struct{ err error }
)

// WatchModel is the live view of one profile's timer. It renders the
// daemon's event stream; every mutation goes through an RPC call and comes
// back as an event or a fresh snapshot.
type WatchModel struct {
	client    *rpc.Client
	profileID string

	timer     *domain.ActiveTimer
	elapsed   int64
	remaining *int64

	width   int
	status  string
	lastErr error
	colors  palette
}

// NewWatchModel creates a watch over the profile's timer.
func NewWatchModel(client *rpc.Client, profileID string) WatchModel {
	return WatchModel{
		client:    client,
		profileID: profileID,
		width:     terminalWidth(),
		colors:    defaultPalette(),
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.fetchSnapshot(), m.listen())
}

// listen blocks on the client's notification stream and converts the next
// notification into a message. Re-armed after every delivery.
func (m WatchModel) listen() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		n, ok := <-client.Notifications()
		if !ok {
			return disconnectedMsg{}
		}
		if n.Method != "timer.event" {
			return otherEventMsg{}
		}
		var ev domain.TimerEvent
		if err := json.Unmarshal(n.Params, &ev); err != nil {
			return otherEventMsg{}
		}
		return timerEventMsg(ev)
	}
}

func (m WatchModel) fetchSnapshot() tea.Cmd {
	client, profileID := m.client, m.profileID
	return func() tea.Msg {
		var timer *domain.ActiveTimer
		if err := client.Call("timer.get_by_profile", map[string]string{"profile_id": profileID}, &timer); err != nil {
			return rpcErrMsg{err}
		}
		return snapshotMsg{timer: timer}
	}
}

// action issues a parameterless timer call for the watched profile.
func (m WatchModel) action(method, status string) tea.Cmd {
	client, profileID := m.client, m.profileID
	return func() tea.Msg {
		var raw json.RawMessage
		if err := client.Call(method, map[string]string{"profile_id": profileID}, &raw); err != nil {
			return rpcErrMsg{err}
		}
		return actionDoneMsg{status: status}
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p", " ":
			if m.timer == nil {
				return m, nil
			}
			if m.timer.State == domain.TimerPaused {
				return m, m.action("timer.resume", "resumed")
			}
			return m, m.action("timer.pause", "paused")
		case "s":
			if m.timer == nil {
				return m, nil
			}
			return m, m.action("timer.stop", "entry recorded")
		case "c":
			if m.timer == nil {
				return m, nil
			}
			return m, m.action("timer.cancel", "cancelled, nothing recorded")
		}
		return m, nil

	case timerEventMsg:
		if msg.ProfileID != m.profileID {
			return m, m.listen()
		}
		switch msg.Event.Type {
		case domain.TimerTick:
			m.elapsed = msg.Event.ElapsedSeconds
			m.remaining = msg.Event.RemainingSeconds
			return m, m.listen()
		default:
			// Any state or phase change invalidates the snapshot.
			return m, tea.Batch(m.fetchSnapshot(), m.listen())
		}

	case otherEventMsg:
		return m, m.listen()

	case disconnectedMsg:
		m.lastErr = fmt.Errorf("daemon connection lost")
		return m, tea.Quit

	case snapshotMsg:
		m.timer = msg.timer
		if msg.timer != nil {
			now := time.Now().UTC()
			m.elapsed = msg.timer.CurrentElapsed(now)
			m.remaining = msg.timer.Remaining(now)
		}
		return m, nil

	case actionDoneMsg:
		m.status = msg.status
		m.lastErr = nil
		return m, m.fetchSnapshot()

	case rpcErrMsg:
		m.lastErr = msg.err
		return m, nil
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.colors.title.Render("  mootimer · "+m.profileID) + "\n\n")

	if m.timer == nil {
		b.WriteString(m.colors.dim.Render("  no active timer") + "\n")
		if m.status != "" {
			b.WriteString(m.colors.dim.Render("  "+m.status) + "\n")
		}
		b.WriteString("\n" + m.colors.dim.Render("  q quit") + "\n")
		return b.String()
	}

	if m.timer.TaskTitle != nil {
		b.WriteString(m.colors.active.Render("  "+*m.timer.TaskTitle) + "\n\n")
	}

	clockColor := m.colors.accent
	if m.timer.State == domain.TimerPaused {
		clockColor = m.colors.paused
	}
	shown := m.elapsed
	if m.remaining != nil {
		shown = *m.remaining
	}
	for _, line := range strings.Split(renderClock(formatClock(shown), clockColor, m.width), "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.colors.dim.Render("  "+m.describeTimer()) + "\n")
	if m.status != "" {
		b.WriteString(m.colors.dim.Render("  "+m.status) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(m.colors.warn.Render("  "+m.lastErr.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.colors.dim.Render("  p pause/resume · s stop · c cancel · q quit") + "\n")
	return b.String()
}

// describeTimer summarizes the mode line under the clock.
func (m WatchModel) describeTimer() string {
	t := m.timer
	desc := string(t.Mode)
	if t.Mode == domain.ModePomodoro && t.Pomodoro != nil {
		desc = fmt.Sprintf("%s · session %d/%d · worked %s",
			strings.ReplaceAll(string(t.Pomodoro.Phase), "_", " "),
			t.Pomodoro.CurrentSession,
			t.Pomodoro.Config.SessionsUntilLongBreak,
			formatClock(m.elapsed))
	}
	if t.State == domain.TimerPaused {
		desc += " · paused"
	}
	return desc
}

// formatClock renders whole seconds as H:MM:SS, or MM:SS under an hour.
func formatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	min := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, min, s)
	}
	return fmt.Sprintf("%02d:%02d", min, s)
}

// RunWatch runs the watch view until the user quits or the daemon
// connection drops.
func RunWatch(client *rpc.Client, profileID string) error {
	m := NewWatchModel(client, profileID)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run timer view: %w", err)
	}
	if w, ok := final.(WatchModel); ok && w.lastErr != nil {
		return w.lastErr
	}
	return nil
}
