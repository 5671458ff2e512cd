// Package notification surfaces timer milestones as desktop notifications.
package notification

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/logging"
)

// Notifier subscribes to the event bus and shows a desktop notification for
// phase transitions and completed timers. Tick and lifecycle chatter is
// ignored.
type Notifier struct {
	events  *bus.Bus
	enabled bool
	sub     *bus.Subscriber
	done    chan struct{}
}

// New creates a notifier. A disabled notifier still drains its subscription
// so it never backs up the bus.
func New(events *bus.Bus, enabled bool) *Notifier {
	return &Notifier{events: events, enabled: enabled}
}

// Start attaches to the bus and begins watching for milestones.
func (n *Notifier) Start() {
	n.sub = n.events.Subscribe()
	n.done = make(chan struct{})
	go n.run()
}

// Stop detaches from the bus and waits for the watcher to exit.
func (n *Notifier) Stop() {
	if n.sub == nil {
		return
	}
	n.sub.Unsubscribe()
	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)
	for ev := range n.sub.C {
		timerEv, ok := ev.(*domain.TimerEvent)
		if !ok || !n.enabled {
			continue
		}
		title, message := messageFor(timerEv)
		if title == "" {
			continue
		}
		if err := beeep.Notify(title, message, ""); err != nil {
			logging.Debugw("desktop notification failed", "error", err)
		}
	}
}

// messageFor picks the notification text for an event, or empty to skip it.
func messageFor(ev *domain.TimerEvent) (title, message string) {
	switch ev.Event.Type {
	case domain.TimerPhaseCompleted:
		switch ev.Event.Phase {
		case domain.PhaseWork:
			return "Pomodoro complete", fmt.Sprintf("Work session %d finished. Time for a break.", ev.Event.Session)
		case domain.PhaseShortBreak, domain.PhaseLongBreak:
			return "Break over", "Ready to focus?"
		}
	case domain.TimerCountdownCompleted:
		return "Countdown finished", fmt.Sprintf("Your %s timer is done.", formatDuration(ev.Event.ElapsedSeconds))
	}
	return "", ""
}

func formatDuration(secs int64) string {
	if secs >= 3600 {
		return fmt.Sprintf("%dh%02dm", secs/3600, (secs%3600)/60)
	}
	if secs >= 60 {
		return fmt.Sprintf("%dm", secs/60)
	}
	return fmt.Sprintf("%ds", secs)
}
