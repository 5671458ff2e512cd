package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/ports"
)

// ProfileLister supplies the known profile ids for cross-profile queries.
type ProfileLister interface {
	IDs() []string
}

// EntryManager owns the per-profile entry logs. Entries stay in completion
// order; adds append to the log, edits and deletes rewrite it.
type EntryManager struct {
	mu        sync.Mutex
	store     ports.EntryStore
	events    *bus.Bus
	profiles  ProfileLister
	byProfile map[string][]*domain.Entry
}

// NewEntryManager creates an entry manager with an empty cache.
func NewEntryManager(store ports.EntryStore, events *bus.Bus, profiles ProfileLister) *EntryManager {
	return &EntryManager{
		store:     store,
		events:    events,
		profiles:  profiles,
		byProfile: make(map[string][]*domain.Entry),
	}
}

// entriesFor returns the profile's entries, loading from disk on first use.
// Caller must hold mu.
func (m *EntryManager) entriesFor(profileID string) ([]*domain.Entry, error) {
	if entries, ok := m.byProfile[profileID]; ok {
		return entries, nil
	}
	loaded, err := m.store.Load(profileID)
	if err != nil {
		return nil, err
	}
	m.byProfile[profileID] = loaded
	return loaded, nil
}

// Add appends a completed entry to the profile's log. This is the path the
// drain worker uses for entries produced by the timer engine.
func (m *EntryManager) Add(profileID string, entry *domain.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.entriesFor(profileID)
	if err != nil {
		return err
	}
	if err := m.store.Append(profileID, entry); err != nil {
		return err
	}
	m.byProfile[profileID] = append(entries, entry)

	m.events.EmitEntry(domain.EntryEvent{
		ProfileID: profileID,
		Event:     domain.EntryEventKind{Type: domain.EntryAdded, Entry: entry},
	})
	return nil
}

// CreateEntryRequest carries the fields of a manually created entry.
type CreateEntryRequest struct {
	TaskID      *string
	StartTime   time.Time
	EndTime     time.Time
	Mode        domain.TimerMode
	Description string
	Tags        []string
}

// Create records an entry that was not produced by a timer, for backfilling
// work that happened off the clock.
func (m *EntryManager) Create(profileID string, req CreateEntryRequest) (*domain.Entry, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, domain.Validationf("entry start and end times are required")
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.ModeManual
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	entry := &domain.Entry{
		ID:              domain.NewID(),
		TaskID:          req.TaskID,
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: domain.DurationBetween(start, end),
		Mode:            mode,
		Description:     req.Description,
		Tags:            tags,
	}
	if err := m.Add(profileID, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntryRequest carries the optional fields of an entry edit. Nil
// fields are left unchanged; a changed interval recomputes the duration.
type UpdateEntryRequest struct {
	Description *string
	Tags        []string
	StartTime   *time.Time
	EndTime     *time.Time
	TaskID      *string
}

// Update edits an entry and rewrites the profile's log.
func (m *EntryManager) Update(profileID, entryID string, req UpdateEntryRequest) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.entriesFor(profileID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, e := range entries {
		if e.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("entry %q: %w", entryID, domain.ErrNotFound)
	}

	updated := *entries[idx]
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Tags != nil {
		updated.Tags = req.Tags
	}
	if req.TaskID != nil {
		if *req.TaskID == "" {
			updated.TaskID = nil
		} else {
			updated.TaskID = req.TaskID
		}
	}
	if req.StartTime != nil {
		updated.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		end := req.EndTime.UTC()
		updated.EndTime = &end
	}
	if req.StartTime != nil || req.EndTime != nil {
		if updated.EndTime == nil {
			return nil, domain.Validationf("entry end time is required")
		}
		updated.DurationSeconds = domain.DurationBetween(updated.StartTime, *updated.EndTime)
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	rewritten := make([]*domain.Entry, len(entries))
	copy(rewritten, entries)
	rewritten[idx] = &updated
	if err := m.store.Rewrite(profileID, rewritten); err != nil {
		return nil, err
	}
	m.byProfile[profileID] = rewritten

	m.events.EmitEntry(domain.EntryEvent{
		ProfileID: profileID,
		Event:     domain.EntryEventKind{Type: domain.EntryUpdatedEvent, Entry: &updated},
	})
	out := updated
	return &out, nil
}

// Delete removes an entry and rewrites the profile's log.
func (m *EntryManager) Delete(profileID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.entriesFor(profileID)
	if err != nil {
		return err
	}
	idx := -1
	for i, e := range entries {
		if e.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("entry %q: %w", entryID, domain.ErrNotFound)
	}

	rewritten := make([]*domain.Entry, 0, len(entries)-1)
	rewritten = append(rewritten, entries[:idx]...)
	rewritten = append(rewritten, entries[idx+1:]...)
	if err := m.store.Rewrite(profileID, rewritten); err != nil {
		return err
	}
	m.byProfile[profileID] = rewritten

	m.events.EmitEntry(domain.EntryEvent{
		ProfileID: profileID,
		Event:     domain.EntryEventKind{Type: domain.EntryDeletedEvent, EntryID: entryID},
	})
	return nil
}

// List returns all entries of a profile in completion order.
func (m *EntryManager) List(profileID string) ([]*domain.Entry, error) {
	return m.Filter(profileID, EntryFilter{})
}

// EntryFilter selects entries by interval, task, and tags. All set criteria
// must match. Interval bounds are inclusive start, exclusive end, and match
// against the entry's start time.
type EntryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	TaskID    *string
	Tags      []string
}

func (f EntryFilter) matches(e *domain.Entry) bool {
	if f.StartDate != nil && e.StartTime.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && !e.StartTime.Before(*f.EndDate) {
		return false
	}
	if f.TaskID != nil && (e.TaskID == nil || *e.TaskID != *f.TaskID) {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, tag := range e.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Filter returns the profile's entries matching the filter, in completion
// order.
func (m *EntryManager) Filter(profileID string, filter EntryFilter) ([]*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.entriesFor(profileID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		if filter.matches(e) {
			copy := *e
			out = append(out, &copy)
		}
	}
	return out, nil
}

// Today returns the profile's entries started today (UTC).
func (m *EntryManager) Today(profileID string) ([]*domain.Entry, error) {
	start, end := dayRange(time.Now())
	return m.Filter(profileID, EntryFilter{StartDate: &start, EndDate: &end})
}

// Week returns the profile's entries started this ISO week (Monday-based, UTC).
func (m *EntryManager) Week(profileID string) ([]*domain.Entry, error) {
	start, end := weekRange(time.Now())
	return m.Filter(profileID, EntryFilter{StartDate: &start, EndDate: &end})
}

// Month returns the profile's entries started this calendar month (UTC).
func (m *EntryManager) Month(profileID string) ([]*domain.Entry, error) {
	start, end := monthRange(time.Now())
	return m.Filter(profileID, EntryFilter{StartDate: &start, EndDate: &end})
}

// Stats summarizes a set of entries.
type Stats struct {
	TotalEntries         int     `json:"total_entries"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	TotalDurationHours   float64 `json:"total_duration_hours"`
	PomodoroCount        int     `json:"pomodoro_count"`
	ManualCount          int     `json:"manual_count"`
	AvgDurationSeconds   int64   `json:"avg_duration_seconds"`
}

// Summarize computes stats over a list of entries.
func Summarize(entries []*domain.Entry) Stats {
	s := Stats{TotalEntries: len(entries)}
	for _, e := range entries {
		s.TotalDurationSeconds += e.DurationSeconds
		switch e.Mode {
		case domain.ModePomodoro:
			s.PomodoroCount++
		case domain.ModeManual:
			s.ManualCount++
		}
	}
	s.TotalDurationHours = float64(s.TotalDurationSeconds) / 3600
	if s.TotalEntries > 0 {
		s.AvgDurationSeconds = s.TotalDurationSeconds / int64(s.TotalEntries)
	}
	return s
}

// StatsToday summarizes today's entries (UTC).
func (m *EntryManager) StatsToday(profileID string) (Stats, error) {
	entries, err := m.Today(profileID)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(entries), nil
}

// StatsWeek summarizes this week's entries (UTC, Monday-based).
func (m *EntryManager) StatsWeek(profileID string) (Stats, error) {
	entries, err := m.Week(profileID)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(entries), nil
}

// StatsMonth summarizes this month's entries (UTC).
func (m *EntryManager) StatsMonth(profileID string) (Stats, error) {
	entries, err := m.Month(profileID)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(entries), nil
}

// TodayAllProfiles returns today's entries per profile id.
func (m *EntryManager) TodayAllProfiles() (map[string][]*domain.Entry, error) {
	start, end := dayRange(time.Now())
	return m.filterAllProfiles(EntryFilter{StartDate: &start, EndDate: &end})
}

// WeekAllProfiles returns this week's entries per profile id.
func (m *EntryManager) WeekAllProfiles() (map[string][]*domain.Entry, error) {
	start, end := weekRange(time.Now())
	return m.filterAllProfiles(EntryFilter{StartDate: &start, EndDate: &end})
}

// MonthAllProfiles returns this month's entries per profile id.
func (m *EntryManager) MonthAllProfiles() (map[string][]*domain.Entry, error) {
	start, end := monthRange(time.Now())
	return m.filterAllProfiles(EntryFilter{StartDate: &start, EndDate: &end})
}

func (m *EntryManager) filterAllProfiles(filter EntryFilter) (map[string][]*domain.Entry, error) {
	out := make(map[string][]*domain.Entry)
	for _, id := range m.profiles.IDs() {
		entries, err := m.Filter(id, filter)
		if err != nil {
			return nil, err
		}
		out[id] = entries
	}
	return out, nil
}

// DropProfile evicts a deleted profile's entries from the cache.
func (m *EntryManager) DropProfile(profileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byProfile, profileID)
}

// dayRange bounds the UTC calendar day containing now.
func dayRange(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// weekRange bounds the UTC ISO week (Monday through Sunday) containing now.
func weekRange(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(weekday - 1))
	return start, start.AddDate(0, 0, 7)
}

// monthRange bounds the UTC calendar month containing now.
func monthRange(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
