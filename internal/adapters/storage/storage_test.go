package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xvierd/mootimer/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store
}

func TestProfileStore_SaveAndLoadAll(t *testing.T) {
	store := newTestStore(t)

	t.Run("empty data directory", func(t *testing.T) {
		profiles, err := store.Profiles.LoadAll()
		if err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if len(profiles) != 0 {
			t.Errorf("LoadAll() = %d profiles, want 0", len(profiles))
		}
	})

	t.Run("round trip", func(t *testing.T) {
		profile, err := domain.NewProfile("work", "Work", "day job", "")
		if err != nil {
			t.Fatalf("NewProfile() error = %v", err)
		}
		if err := store.Profiles.Save(profile); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		profiles, err := store.Profiles.LoadAll()
		if err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if len(profiles) != 1 {
			t.Fatalf("LoadAll() = %d profiles, want 1", len(profiles))
		}
		if profiles[0].ID != "work" || profiles[0].Name != "Work" {
			t.Errorf("loaded profile = %+v, want id=work name=Work", profiles[0])
		}
	})

	t.Run("delete removes directory", func(t *testing.T) {
		profile, _ := domain.NewProfile("temp", "Temp", "", "")
		if err := store.Profiles.Save(profile); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Profiles.Delete("temp"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(store.DataDir(), "profiles", "temp")); !os.IsNotExist(err) {
			t.Error("profile directory still exists after Delete()")
		}
	})
}

func TestTaskStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	t.Run("missing file yields empty list", func(t *testing.T) {
		tasks, err := store.Tasks.Load("work")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("Load() = %d tasks, want 0", len(tasks))
		}
	})

	t.Run("round trip", func(t *testing.T) {
		task, err := domain.NewTask("Write report", "quarterly numbers", "", []string{"deep-work"})
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		if err := store.Tasks.Save("work", []*domain.Task{task}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		tasks, err := store.Tasks.Load("work")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(tasks) != 1 {
			t.Fatalf("Load() = %d tasks, want 1", len(tasks))
		}
		if tasks[0].Title != "Write report" {
			t.Errorf("loaded task title = %q, want %q", tasks[0].Title, "Write report")
		}
		if tasks[0].Status != domain.StatusTodo {
			t.Errorf("loaded task status = %q, want %q", tasks[0].Status, domain.StatusTodo)
		}
	})
}

func TestEntryStore_AppendAndLoad(t *testing.T) {
	store := newTestStore(t)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(50 * time.Minute)
	taskID := "task-1"

	first := &domain.Entry{
		ID:              domain.NewID(),
		TaskID:          &taskID,
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: 3000,
		Mode:            domain.ModeManual,
		Description:     "morning block",
		Tags:            []string{"deep-work", "report"},
	}

	t.Run("append writes header on first create", func(t *testing.T) {
		if err := store.Entries.Append("work", first); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(store.DataDir(), "profiles", "work", "entries.csv"))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("entries.csv has %d lines, want 2", len(lines))
		}
		wantHeader := "id,task_id,start_time,end_time,duration_seconds,mode,description,tags"
		if lines[0] != wantHeader {
			t.Errorf("header = %q, want %q", lines[0], wantHeader)
		}
	})

	t.Run("append does not repeat header", func(t *testing.T) {
		second := &domain.Entry{
			ID:              domain.NewID(),
			StartTime:       start.Add(time.Hour),
			DurationSeconds: 0,
			Mode:            domain.ModePomodoro,
			Tags:            []string{},
		}
		if err := store.Entries.Append("work", second); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(store.DataDir(), "profiles", "work", "entries.csv"))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if n := strings.Count(string(data), "id,task_id"); n != 1 {
			t.Errorf("header appears %d times, want 1", n)
		}
	})

	t.Run("load preserves order and fields", func(t *testing.T) {
		entries, err := store.Entries.Load("work")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Load() = %d entries, want 2", len(entries))
		}

		got := entries[0]
		if got.ID != first.ID {
			t.Errorf("entry id = %q, want %q", got.ID, first.ID)
		}
		if got.TaskID == nil || *got.TaskID != taskID {
			t.Errorf("entry task_id = %v, want %q", got.TaskID, taskID)
		}
		if !got.StartTime.Equal(start) {
			t.Errorf("entry start = %v, want %v", got.StartTime, start)
		}
		if got.EndTime == nil || !got.EndTime.Equal(end) {
			t.Errorf("entry end = %v, want %v", got.EndTime, end)
		}
		if got.DurationSeconds != 3000 {
			t.Errorf("entry duration = %d, want 3000", got.DurationSeconds)
		}
		if len(got.Tags) != 2 || got.Tags[0] != "deep-work" || got.Tags[1] != "report" {
			t.Errorf("entry tags = %v, want [deep-work report]", got.Tags)
		}

		if entries[1].TaskID != nil {
			t.Errorf("second entry task_id = %v, want nil", entries[1].TaskID)
		}
		if entries[1].EndTime != nil {
			t.Errorf("second entry end = %v, want nil", entries[1].EndTime)
		}
	})
}

func TestEntryStore_Rewrite(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		entry := &domain.Entry{
			ID:              domain.NewID(),
			StartTime:       time.Now().UTC(),
			DurationSeconds: int64(i * 60),
			Mode:            domain.ModeManual,
			Tags:            []string{},
		}
		if err := store.Entries.Append("work", entry); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := store.Entries.Load("work")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	kept := entries[:2]
	kept[0].Description = "edited"

	if err := store.Entries.Rewrite("work", kept); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	reloaded, err := store.Entries.Load("work")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(reloaded) != 2 {
		t.Fatalf("Load() after Rewrite() = %d entries, want 2", len(reloaded))
	}
	if reloaded[0].Description != "edited" {
		t.Errorf("rewritten description = %q, want %q", reloaded[0].Description, "edited")
	}
}

func TestEntryStore_IgnoresUnknownColumns(t *testing.T) {
	store := newTestStore(t)

	dir := filepath.Join(store.DataDir(), "profiles", "work")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	csvData := "id,task_id,start_time,end_time,duration_seconds,mode,description,tags,extra\n" +
		"e1,,2026-03-10T09:00:00Z,2026-03-10T09:30:00Z,1800,manual,old format,,surprise\n"
	if err := os.WriteFile(filepath.Join(dir, "entries.csv"), []byte(csvData), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	entries, err := store.Entries.Load("work")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Load() = %d entries, want 1", len(entries))
	}
	if entries[0].ID != "e1" || entries[0].DurationSeconds != 1800 {
		t.Errorf("entry = %+v, want id=e1 duration=1800", entries[0])
	}
	if entries[0].Description != "old format" {
		t.Errorf("description = %q, want %q", entries[0].Description, "old format")
	}
}
