package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xvierd/mootimer/internal/adapters/storage"
	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/config"
	"github.com/xvierd/mootimer/internal/domain"
)

type fixture struct {
	store    *storage.Store
	events   *bus.Bus
	profiles *ProfileManager
	tasks    *TaskManager
	entries  *EntryManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	events := bus.New()
	profiles, err := NewProfileManager(store.Profiles, events)
	if err != nil {
		t.Fatalf("NewProfileManager() error = %v", err)
	}
	return &fixture{
		store:    store,
		events:   events,
		profiles: profiles,
		tasks:    NewTaskManager(store.Tasks, events),
		entries:  NewEntryManager(store.Entries, events, profiles),
	}
}

func TestProfileManager_CreateAndGet(t *testing.T) {
	f := newFixture(t)

	t.Run("create", func(t *testing.T) {
		profile, err := f.profiles.Create("work", "Work", "day job", "#00ff00")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if profile.ID != "work" {
			t.Errorf("profile id = %q, want %q", profile.ID, "work")
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		_, err := f.profiles.Create("work", "Other", "", "")
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("Create() error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("invalid id rejected", func(t *testing.T) {
		_, err := f.profiles.Create("bad id", "Bad", "", "")
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Create() error = %v, want ValidationError", err)
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := f.profiles.Get("nope")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("survives reload", func(t *testing.T) {
		reloaded, err := NewProfileManager(f.store.Profiles, f.events)
		if err != nil {
			t.Fatalf("NewProfileManager() error = %v", err)
		}
		profile, err := reloaded.Get("work")
		if err != nil {
			t.Fatalf("Get() after reload error = %v", err)
		}
		if profile.Name != "Work" {
			t.Errorf("reloaded name = %q, want %q", profile.Name, "Work")
		}
	})
}

func TestProfileManager_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	if _, err := f.profiles.Create("work", "Work", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	name := "Work (new)"
	updated, err := f.profiles.Update("work", UpdateProfileRequest{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != name {
		t.Errorf("updated name = %q, want %q", updated.Name, name)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Error("UpdatedAt not bumped on update")
	}

	if err := f.profiles.Delete("work"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if f.profiles.Exists("work") {
		t.Error("profile still exists after Delete()")
	}
	if err := f.profiles.Delete("work"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestTaskManager_CRUD(t *testing.T) {
	f := newFixture(t)

	task, err := f.tasks.Create("work", "Write report", "quarterly", "", []string{"deep-work"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("get", func(t *testing.T) {
		got, err := f.tasks.Get("work", task.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Title != "Write report" || got.Status != domain.StatusTodo {
			t.Errorf("task = %+v, want title=Write report status=todo", got)
		}
	})

	t.Run("update status", func(t *testing.T) {
		status := "in_progress"
		updated, err := f.tasks.Update("work", task.ID, UpdateTaskRequest{Status: &status})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Status != domain.StatusInProgress {
			t.Errorf("status = %q, want in_progress", updated.Status)
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		status := "someday"
		_, err := f.tasks.Update("work", task.ID, UpdateTaskRequest{Status: &status})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Update() error = %v, want ValidationError", err)
		}
	})

	t.Run("list filters by status", func(t *testing.T) {
		if _, err := f.tasks.Create("work", "Another", "", "", nil); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		status := domain.StatusInProgress
		list, err := f.tasks.List("work", &status)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 1 || list[0].ID != task.ID {
			t.Errorf("List(in_progress) = %d tasks, want just %s", len(list), task.ID)
		}
	})

	t.Run("search", func(t *testing.T) {
		found, err := f.tasks.Search("work", "REPORT")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(found) != 1 || found[0].ID != task.ID {
			t.Errorf("Search() = %d tasks, want just %s", len(found), task.ID)
		}
	})

	t.Run("resolve title", func(t *testing.T) {
		title, err := f.tasks.ResolveTitle("work", task.ID)
		if err != nil {
			t.Fatalf("ResolveTitle() error = %v", err)
		}
		if title != "Write report" {
			t.Errorf("title = %q, want %q", title, "Write report")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := f.tasks.Delete("work", task.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := f.tasks.Get("work", task.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestTaskManager_Move(t *testing.T) {
	f := newFixture(t)

	task, err := f.tasks.Create("work", "Portable", "", "", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	moved, err := f.tasks.Move(task.ID, "work", "personal")
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.ID != task.ID {
		t.Errorf("moved id = %q, want %q", moved.ID, task.ID)
	}

	if _, err := f.tasks.Get("work", task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("task still in source profile after Move()")
	}
	got, err := f.tasks.Get("personal", task.ID)
	if err != nil {
		t.Fatalf("Get() in destination error = %v", err)
	}
	if got.Title != "Portable" {
		t.Errorf("moved title = %q, want %q", got.Title, "Portable")
	}

	if _, err := f.tasks.Move(task.ID, "personal", "personal"); err == nil {
		t.Error("Move() to same profile succeeded, want error")
	}
}

func TestEntryManager_AddFilterStats(t *testing.T) {
	f := newFixture(t)
	if _, err := f.profiles.Create("work", "Work", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	taskID := "task-1"
	add := func(start time.Time, secs int64, mode domain.TimerMode, tags []string, tid *string) *domain.Entry {
		t.Helper()
		end := start.Add(time.Duration(secs) * time.Second)
		entry := &domain.Entry{
			ID:              domain.NewID(),
			TaskID:          tid,
			StartTime:       start,
			EndTime:         &end,
			DurationSeconds: secs,
			Mode:            mode,
			Tags:            tags,
		}
		if err := f.entries.Add("work", entry); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		return entry
	}

	add(base, 1500, domain.ModePomodoro, []string{"focus"}, &taskID)
	add(base.Add(2*time.Hour), 3600, domain.ModeManual, []string{"meeting"}, nil)
	add(base.AddDate(0, 0, 1), 600, domain.ModeManual, []string{"focus"}, nil)

	t.Run("filter by interval", func(t *testing.T) {
		start, end := base.Add(-time.Hour), base.Add(time.Hour)
		got, err := f.entries.Filter("work", EntryFilter{StartDate: &start, EndDate: &end})
		if err != nil {
			t.Fatalf("Filter() error = %v", err)
		}
		if len(got) != 1 || got[0].DurationSeconds != 1500 {
			t.Errorf("Filter(interval) = %d entries, want the pomodoro entry", len(got))
		}
	})

	t.Run("filter by task", func(t *testing.T) {
		got, err := f.entries.Filter("work", EntryFilter{TaskID: &taskID})
		if err != nil {
			t.Fatalf("Filter() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Filter(task) = %d entries, want 1", len(got))
		}
	})

	t.Run("filter by tags", func(t *testing.T) {
		got, err := f.entries.Filter("work", EntryFilter{Tags: []string{"focus"}})
		if err != nil {
			t.Fatalf("Filter() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Filter(tags) = %d entries, want 2", len(got))
		}
	})

	t.Run("stats", func(t *testing.T) {
		all, err := f.entries.List("work")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		stats := Summarize(all)
		if stats.TotalEntries != 3 {
			t.Errorf("TotalEntries = %d, want 3", stats.TotalEntries)
		}
		if stats.TotalDurationSeconds != 5700 {
			t.Errorf("TotalDurationSeconds = %d, want 5700", stats.TotalDurationSeconds)
		}
		if stats.PomodoroCount != 1 || stats.ManualCount != 2 {
			t.Errorf("counts = %d pomodoro %d manual, want 1 and 2", stats.PomodoroCount, stats.ManualCount)
		}
		if stats.AvgDurationSeconds != 1900 {
			t.Errorf("AvgDurationSeconds = %d, want 1900", stats.AvgDurationSeconds)
		}
	})

	t.Run("all profiles query includes every profile", func(t *testing.T) {
		byProfile, err := f.entries.MonthAllProfiles()
		if err != nil {
			t.Fatalf("MonthAllProfiles() error = %v", err)
		}
		if _, ok := byProfile["work"]; !ok {
			t.Error("MonthAllProfiles() missing work profile")
		}
	})
}

func TestEntryManager_UpdateRecomputesDuration(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	entry := &domain.Entry{
		ID:              domain.NewID(),
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: 1800,
		Mode:            domain.ModeManual,
		Tags:            []string{},
	}
	if err := f.entries.Add("work", entry); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	newEnd := start.Add(45 * time.Minute)
	updated, err := f.entries.Update("work", entry.ID, UpdateEntryRequest{EndTime: &newEnd})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.DurationSeconds != 2700 {
		t.Errorf("duration after update = %d, want 2700", updated.DurationSeconds)
	}

	badEnd := start.Add(-time.Minute)
	if _, err := f.entries.Update("work", entry.ID, UpdateEntryRequest{EndTime: &badEnd}); err == nil {
		t.Error("Update() with end before start succeeded, want error")
	}

	if err := f.entries.Delete("work", entry.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	remaining, err := f.entries.List("work")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("List() after delete = %d entries, want 0", len(remaining))
	}
}

func TestEntryManager_Create(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	entry, err := f.entries.Create("work", CreateEntryRequest{
		StartTime:   start,
		EndTime:     start.Add(20 * time.Minute),
		Description: "backfilled call",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.Mode != domain.ModeManual {
		t.Errorf("mode = %q, want manual default", entry.Mode)
	}
	if entry.DurationSeconds != 1200 {
		t.Errorf("duration = %d, want 1200", entry.DurationSeconds)
	}

	if _, err := f.entries.Create("work", CreateEntryRequest{StartTime: start}); err == nil {
		t.Error("Create() without end time succeeded, want error")
	}
}

func TestDateRanges(t *testing.T) {
	// A Tuesday.
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	dayStart, dayEnd := dayRange(now)
	if dayStart.Day() != 10 || dayEnd.Day() != 11 {
		t.Errorf("dayRange = [%v, %v), want Mar 10 through Mar 11", dayStart, dayEnd)
	}

	weekStart, weekEnd := weekRange(now)
	if weekStart.Weekday() != time.Monday {
		t.Errorf("weekRange starts on %v, want Monday", weekStart.Weekday())
	}
	if weekStart.Day() != 9 || weekEnd.Day() != 16 {
		t.Errorf("weekRange = [%v, %v), want Mar 9 through Mar 16", weekStart, weekEnd)
	}

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	weekStart, _ = weekRange(sunday)
	if weekStart.Day() != 9 {
		t.Errorf("weekRange(Sunday) starts on day %d, want 9", weekStart.Day())
	}

	monthStart, monthEnd := monthRange(now)
	if monthStart.Day() != 1 || monthStart.Month() != time.March {
		t.Errorf("monthRange start = %v, want March 1", monthStart)
	}
	if monthEnd.Month() != time.April {
		t.Errorf("monthRange end = %v, want April 1", monthEnd)
	}
}

func TestConfigManager(t *testing.T) {
	f := newFixture(t)
	if _, err := f.profiles.Create("work", "Work", "", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	manager, err := NewConfigManager(store, f.profiles)
	if err != nil {
		t.Fatalf("NewConfigManager() error = %v", err)
	}

	t.Run("defaults on first load", func(t *testing.T) {
		cfg := manager.Get()
		if cfg.DefaultProfile != "default" {
			t.Errorf("default profile = %q, want %q", cfg.DefaultProfile, "default")
		}
		if cfg.Pomodoro.WorkDuration != 25*60 {
			t.Errorf("work duration = %d, want 1500", cfg.Pomodoro.WorkDuration)
		}
	})

	t.Run("set default profile requires existing profile", func(t *testing.T) {
		if _, err := manager.SetDefaultProfile("ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("SetDefaultProfile(ghost) error = %v, want ErrNotFound", err)
		}
		cfg, err := manager.SetDefaultProfile("work")
		if err != nil {
			t.Fatalf("SetDefaultProfile() error = %v", err)
		}
		if cfg.DefaultProfile != "work" {
			t.Errorf("default profile = %q, want %q", cfg.DefaultProfile, "work")
		}
	})

	t.Run("invalid pomodoro update keeps previous config", func(t *testing.T) {
		bad := int64(0)
		if _, err := manager.UpdatePomodoro(UpdatePomodoroRequest{WorkDuration: &bad}); err == nil {
			t.Fatal("UpdatePomodoro(0) succeeded, want error")
		}
		if got := manager.Get().Pomodoro.WorkDuration; got != 25*60 {
			t.Errorf("work duration after failed update = %d, want 1500", got)
		}
	})

	t.Run("auto push requires remote", func(t *testing.T) {
		on := true
		if _, err := manager.UpdateSync(UpdateSyncRequest{AutoPush: &on}); err == nil {
			t.Fatal("UpdateSync(auto_push) without remote succeeded, want error")
		}
		url := "git@example.com:me/timedata.git"
		cfg, err := manager.UpdateSync(UpdateSyncRequest{AutoPush: &on, RemoteURL: &url})
		if err != nil {
			t.Fatalf("UpdateSync() error = %v", err)
		}
		if cfg.Sync.RemoteURL == nil || *cfg.Sync.RemoteURL != url {
			t.Errorf("remote url = %v, want %q", cfg.Sync.RemoteURL, url)
		}
	})

	t.Run("reset keeps daemon settings", func(t *testing.T) {
		cfg, err := manager.Reset()
		if err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if cfg.Sync.AutoPush {
			t.Error("sync settings survived Reset()")
		}
		if cfg.Daemon.SocketPath != config.DefaultSocketPath {
			t.Errorf("socket path = %q, want %q", cfg.Daemon.SocketPath, config.DefaultSocketPath)
		}
	})
}
