package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xvierd/mootimer/internal/domain"
)

const entriesFile = "entries.csv"

// entryColumns is the canonical header. Readers index columns by name so
// files with extra trailing columns still load.
var entryColumns = []string{
	"id", "task_id", "start_time", "end_time",
	"duration_seconds", "mode", "description", "tags",
}

// EntryStore persists the entry log of a profile as a CSV file, one row per
// entry, appended in completion order.
type EntryStore struct {
	dirs
}

func (s *EntryStore) entriesPath(profileID string) string {
	return filepath.Join(s.profileDir(profileID), entriesFile)
}

// Load reads all entries in the order written; a missing file yields an
// empty list.
func (s *EntryStore) Load(profileID string) ([]*domain.Entry, error) {
	f, err := os.Open(s.entriesPath(profileID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to open entries for %s: %w", profileID, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read entries for %s: %w", profileID, err)
	}
	if len(records) == 0 {
		return []*domain.Entry{}, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}

	entries := make([]*domain.Entry, 0, len(records)-1)
	for i, record := range records[1:] {
		entry, err := parseEntryRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry row %d for %s: %w", i+2, profileID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Append adds one entry to the end of the log, writing the header on first
// create.
func (s *EntryStore) Append(profileID string, entry *domain.Entry) error {
	dir := s.profileDir(profileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	path := s.entriesPath(profileID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open entries for %s: %w", profileID, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat entries for %s: %w", profileID, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(entryColumns); err != nil {
			return fmt.Errorf("failed to write entries header: %w", err)
		}
	}
	if err := w.Write(entryRecord(entry)); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush entries for %s: %w", profileID, err)
	}
	return nil
}

// Rewrite replaces the whole log with the given entries.
func (s *EntryStore) Rewrite(profileID string, entries []*domain.Entry) error {
	dir := s.profileDir(profileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(entryColumns); err != nil {
		return fmt.Errorf("failed to write entries header: %w", err)
	}
	for _, entry := range entries {
		if err := w.Write(entryRecord(entry)); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode entries for %s: %w", profileID, err)
	}

	if err := writeFileAtomic(s.entriesPath(profileID), []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to rewrite entries for %s: %w", profileID, err)
	}
	return nil
}

// entryRecord flattens an entry into the canonical column order. Absent
// optional fields serialize as empty strings, times as RFC 3339 in UTC.
func entryRecord(e *domain.Entry) []string {
	taskID := ""
	if e.TaskID != nil {
		taskID = *e.TaskID
	}
	endTime := ""
	if e.EndTime != nil {
		endTime = e.EndTime.UTC().Format(time.RFC3339)
	}
	return []string{
		e.ID,
		taskID,
		e.StartTime.UTC().Format(time.RFC3339),
		endTime,
		strconv.FormatInt(e.DurationSeconds, 10),
		string(e.Mode),
		e.Description,
		strings.Join(e.Tags, ","),
	}
}

func parseEntryRecord(record []string, cols map[string]int) (*domain.Entry, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	startTime, err := time.Parse(time.RFC3339, field("start_time"))
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", err)
	}

	entry := &domain.Entry{
		ID:          field("id"),
		StartTime:   startTime.UTC(),
		Mode:        domain.TimerMode(field("mode")),
		Description: field("description"),
		Tags:        []string{},
	}

	if taskID := field("task_id"); taskID != "" {
		entry.TaskID = &taskID
	}
	if raw := field("end_time"); raw != "" {
		endTime, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid end_time: %w", err)
		}
		utc := endTime.UTC()
		entry.EndTime = &utc
	}
	if raw := field("duration_seconds"); raw != "" {
		duration, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration_seconds: %w", err)
		}
		entry.DurationSeconds = duration
	}
	if raw := field("tags"); raw != "" {
		entry.Tags = strings.Split(raw, ",")
	}
	return entry, nil
}
