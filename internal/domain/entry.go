package domain

import "time"

// Entry is a record of a completed (or still running) timed interval.
// Entries are produced by the timer engine on stop; duration, description,
// and tags remain editable afterwards.
type Entry struct {
	ID              string     `json:"id"`
	TaskID          *string    `json:"task_id,omitempty"`
	TaskTitle       *string    `json:"task_title,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Mode            TimerMode  `json:"mode"`
	Description     string     `json:"description,omitempty"`
	Tags            []string   `json:"tags"`
}

// DurationBetween computes the non-negative whole-second duration of an interval.
func DurationBetween(start, end time.Time) int64 {
	secs := int64(end.Sub(start).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// Validate checks the entry invariants.
func (e *Entry) Validate() error {
	if e.ID == "" {
		return Validationf("entry id cannot be empty")
	}
	if e.DurationSeconds < 0 {
		return Validationf("entry duration cannot be negative")
	}
	if e.EndTime != nil && !e.EndTime.After(e.StartTime) {
		return Validationf("entry end time must be after start time")
	}
	return nil
}

// Active reports whether the entry is still open (no end time recorded).
func (e *Entry) Active() bool {
	return e.EndTime == nil
}
