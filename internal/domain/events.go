package domain

import "time"

// Event payloads pushed to connected clients. Each family carries a timestamp
// and a discriminated event_type object whose "type" field selects the variant;
// optional fields are omitted when not meaningful for the variant.

// TimerEventType discriminates timer events.
type TimerEventType string

const (
	TimerStarted            TimerEventType = "started"
	TimerStoppedEvent       TimerEventType = "stopped"
	TimerPausedEvent        TimerEventType = "paused"
	TimerResumedEvent       TimerEventType = "resumed"
	TimerCancelled          TimerEventType = "cancelled"
	TimerTick               TimerEventType = "tick"
	TimerPhaseChanged       TimerEventType = "phase_changed"
	TimerPhaseCompleted     TimerEventType = "phase_completed"
	TimerCountdownCompleted TimerEventType = "countdown_completed"
)

// TimerEventKind is the discriminated payload of a timer event.
type TimerEventKind struct {
	Type             TimerEventType `json:"type"`
	ElapsedSeconds   int64          `json:"elapsed_seconds,omitempty"`
	RemainingSeconds *int64         `json:"remaining_seconds,omitempty"`
	DurationSeconds  int64          `json:"duration_seconds,omitempty"`
	Phase            PomodoroPhase  `json:"phase,omitempty"`
	Session          int            `json:"session,omitempty"`
}

// TimerEvent is broadcast for every timer state change and tick.
type TimerEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	TimerID   string         `json:"timer_id"`
	ProfileID string         `json:"profile_id"`
	TaskID    *string        `json:"task_id,omitempty"`
	Event     TimerEventKind `json:"event_type"`
}

// TaskEventType discriminates task events.
type TaskEventType string

const (
	TaskCreated TaskEventType = "created"
	TaskUpdated TaskEventType = "updated"
	TaskDeleted TaskEventType = "deleted"
)

// TaskEventKind is the discriminated payload of a task event.
type TaskEventKind struct {
	Type   TaskEventType `json:"type"`
	Task   *Task         `json:"task,omitempty"`
	TaskID string        `json:"task_id,omitempty"`
}

// TaskEvent is broadcast on task mutations.
type TaskEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	ProfileID string        `json:"profile_id"`
	Event     TaskEventKind `json:"event_type"`
}

// EntryEventType discriminates entry events.
type EntryEventType string

const (
	EntryAdded        EntryEventType = "added"
	EntryUpdatedEvent EntryEventType = "updated"
	EntryDeletedEvent EntryEventType = "deleted"
)

// EntryEventKind is the discriminated payload of an entry event.
type EntryEventKind struct {
	Type    EntryEventType `json:"type"`
	Entry   *Entry         `json:"entry,omitempty"`
	EntryID string         `json:"entry_id,omitempty"`
}

// EntryEvent is broadcast on entry mutations.
type EntryEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	ProfileID string         `json:"profile_id"`
	Event     EntryEventKind `json:"event_type"`
}

// ProfileEventType discriminates profile events.
type ProfileEventType string

const (
	ProfileCreated ProfileEventType = "created"
	ProfileUpdated ProfileEventType = "updated"
	ProfileDeleted ProfileEventType = "deleted"
)

// ProfileEventKind is the discriminated payload of a profile event.
type ProfileEventKind struct {
	Type      ProfileEventType `json:"type"`
	Profile   *Profile         `json:"profile,omitempty"`
	ProfileID string           `json:"profile_id,omitempty"`
}

// ProfileEvent is broadcast on profile mutations.
type ProfileEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Event     ProfileEventKind `json:"event_type"`
}
