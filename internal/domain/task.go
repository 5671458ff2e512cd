package domain

import (
	"strings"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusArchived   TaskStatus = "archived"
)

// ValidTaskStatuses lists all supported task status values.
var ValidTaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone, StatusArchived}

// ValidateTaskStatus checks if a string is a valid task status.
func ValidateTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	for _, valid := range ValidTaskStatuses {
		if status == valid {
			return status, nil
		}
	}
	return "", Validationf("invalid task status %q: must be one of todo, in_progress, done, archived", s)
}

// Task represents a unit of work within a profile.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Tags        []string   `json:"tags"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a task with the given title and optional metadata.
func NewTask(title, description, url string, tags []string) (*Task, error) {
	if title == "" {
		return nil, Validationf("task title cannot be empty")
	}
	if err := ValidateTaskURL(url); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Task{
		ID:          NewID(),
		Title:       title,
		Description: description,
		Status:      StatusTodo,
		Tags:        []string{},
		URL:         url,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, tag := range tags {
		t.AddTag(tag)
	}
	return t, nil
}

// ValidateTaskURL accepts an empty url or one beginning http:// or https://.
func ValidateTaskURL(url string) error {
	if url == "" {
		return nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return Validationf("task url %q must begin with http:// or https://", url)
	}
	return nil
}

// Touch bumps the modification timestamp.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// AddTag adds a tag, ignoring duplicates.
func (t *Task) AddTag(tag string) {
	if tag == "" {
		return
	}
	for _, existing := range t.Tags {
		if existing == tag {
			return
		}
	}
	t.Tags = append(t.Tags, tag)
}

// Matches reports whether the task matches a case-insensitive substring query
// over title, description, and tags.
func (t *Task) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
