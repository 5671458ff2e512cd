package daemon

import (
	"encoding/json"
	"time"

	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/ports"
	"github.com/xvierd/mootimer/internal/rpc"
	"github.com/xvierd/mootimer/internal/services"
)

// registerHandlers binds the whole method surface onto the router.
func (d *Daemon) registerHandlers(r *rpc.Router) {
	r.Register("timer.start_manual", d.timerStartManual)
	r.Register("timer.start_pomodoro", d.timerStartPomodoro)
	r.Register("timer.start_countdown", d.timerStartCountdown)
	r.Register("timer.pause", d.timerPause)
	r.Register("timer.resume", d.timerResume)
	r.Register("timer.stop", d.timerStop)
	r.Register("timer.cancel", d.timerCancel)
	r.Register("timer.get", d.timerGet)
	r.Register("timer.get_by_profile", d.timerGetByProfile)
	r.Register("timer.list", d.timerList)
	r.Register("timer.list_by_profile", d.timerListByProfile)

	r.Register("profile.create", d.profileCreate)
	r.Register("profile.get", d.profileGet)
	r.Register("profile.list", d.profileList)
	r.Register("profile.update", d.profileUpdate)
	r.Register("profile.delete", d.profileDelete)

	r.Register("task.create", d.taskCreate)
	r.Register("task.get", d.taskGet)
	r.Register("task.list", d.taskList)
	r.Register("task.update", d.taskUpdate)
	r.Register("task.delete", d.taskDelete)
	r.Register("task.search", d.taskSearch)
	r.Register("task.move", d.taskMove)

	r.Register("entry.list", d.entryList)
	r.Register("entry.filter", d.entryFilter)
	r.Register("entry.today", d.entryToday)
	r.Register("entry.week", d.entryWeek)
	r.Register("entry.month", d.entryMonth)
	r.Register("entry.stats_today", d.entryStatsToday)
	r.Register("entry.stats_week", d.entryStatsWeek)
	r.Register("entry.stats_month", d.entryStatsMonth)
	r.Register("entry.today_all_profiles", d.entryTodayAllProfiles)
	r.Register("entry.week_all_profiles", d.entryWeekAllProfiles)
	r.Register("entry.month_all_profiles", d.entryMonthAllProfiles)
	r.Register("entry.create", d.entryCreate)
	r.Register("entry.update", d.entryUpdate)
	r.Register("entry.delete", d.entryDelete)

	r.Register("config.get", d.configGet)
	r.Register("config.set_default_profile", d.configSetDefaultProfile)
	r.Register("config.update_pomodoro", d.configUpdatePomodoro)
	r.Register("config.update_sync", d.configUpdateSync)
	r.Register("config.reset", d.configReset)

	r.Register("sync.init", d.syncInit)
	r.Register("sync.status", d.syncStatus)
	r.Register("sync.sync", d.syncSync)
	r.Register("sync.commit", d.syncCommit)
	r.Register("sync.set_remote", d.syncSetRemote)
}

// resolveProfile substitutes the configured default profile for an empty id.
func (d *Daemon) resolveProfile(id string) string {
	if id != "" {
		return id
	}
	return d.cfg.Get().DefaultProfile
}

func syncSettings(autoCommit, autoPush bool, remoteURL string) ports.SyncSettings {
	return ports.SyncSettings{AutoCommit: autoCommit, AutoPush: autoPush, RemoteURL: remoteURL}
}

// parseTime decodes an RFC 3339 timestamp param.
func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, rpc.NewError(rpc.CodeInvalidParams, "invalid %s: %s", field, err.Error())
	}
	return t.UTC(), nil
}

func parseOptionalTime(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseTime(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// fillTitles denormalizes task titles onto entries for display.
func (d *Daemon) fillTitles(profileID string, entries []*domain.Entry) []*domain.Entry {
	for _, e := range entries {
		if e.TaskID == nil || e.TaskTitle != nil {
			continue
		}
		if title, err := d.tasks.ResolveTitle(profileID, *e.TaskID); err == nil {
			e.TaskTitle = &title
		}
	}
	return entries
}

// --- timer ---

type timerStartParams struct {
	ProfileID string  `json:"profile_id"`
	TaskID    *string `json:"task_id,omitempty"`
}

func (d *Daemon) timerStartManual(params json.RawMessage) (any, error) {
	var p timerStartParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.timers.StartManual(d.resolveProfile(p.ProfileID), p.TaskID)
}

func (d *Daemon) timerStartPomodoro(params json.RawMessage) (any, error) {
	var p struct {
		timerStartParams
		WorkDuration           *int64 `json:"work_duration,omitempty"`
		ShortBreak             *int64 `json:"short_break,omitempty"`
		LongBreak              *int64 `json:"long_break,omitempty"`
		SessionsUntilLongBreak *int   `json:"sessions_until_long_break,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}

	cfg := d.cfg.Get().ToPomodoroDomainConfig()
	if p.WorkDuration != nil {
		cfg.WorkDuration = *p.WorkDuration
	}
	if p.ShortBreak != nil {
		cfg.ShortBreak = *p.ShortBreak
	}
	if p.LongBreak != nil {
		cfg.LongBreak = *p.LongBreak
	}
	if p.SessionsUntilLongBreak != nil {
		cfg.SessionsUntilLongBreak = *p.SessionsUntilLongBreak
	}
	return d.timers.StartPomodoro(d.resolveProfile(p.ProfileID), p.TaskID, cfg)
}

func (d *Daemon) timerStartCountdown(params json.RawMessage) (any, error) {
	var p struct {
		timerStartParams
		DurationMinutes *int `json:"duration_minutes,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}

	minutes := int(d.cfg.Get().Pomodoro.CountdownDefault / 60)
	if p.DurationMinutes != nil {
		minutes = *p.DurationMinutes
	}
	return d.timers.StartCountdown(d.resolveProfile(p.ProfileID), p.TaskID, minutes)
}

type profileOnlyParams struct {
	ProfileID string `json:"profile_id"`
}

func (d *Daemon) timerPause(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.timers.Pause(d.resolveProfile(p.ProfileID))
}

func (d *Daemon) timerResume(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.timers.Resume(d.resolveProfile(p.ProfileID))
}

func (d *Daemon) timerStop(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	profileID := d.resolveProfile(p.ProfileID)

	entry, err := d.timers.Stop(profileID)
	if err != nil {
		return nil, err
	}
	if err := d.entries.Add(profileID, entry); err != nil {
		return nil, err
	}
	warnings := d.afterEntryRecorded(profileID, entry)
	if warnings == nil {
		warnings = []string{}
	}
	return map[string]any{"entry": entry, "warnings": warnings}, nil
}

func (d *Daemon) timerCancel(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := d.timers.Cancel(d.resolveProfile(p.ProfileID)); err != nil {
		return nil, err
	}
	return map[string]bool{"cancelled": true}, nil
}

func (d *Daemon) timerGet(params json.RawMessage) (any, error) {
	var p struct {
		TimerID string `json:"timer_id"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.timers.Get(p.TimerID)
}

func (d *Daemon) timerGetByProfile(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.timers.GetByProfile(d.resolveProfile(p.ProfileID)), nil
}

func (d *Daemon) timerList(json.RawMessage) (any, error) {
	return d.timers.List(), nil
}

func (d *Daemon) timerListByProfile(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.timers.ListByProfile(d.resolveProfile(p.ProfileID)), nil
}

// --- profile ---

func (d *Daemon) profileCreate(params json.RawMessage) (any, error) {
	var p struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.profiles.Create(p.ID, p.Name, p.Description, p.Color)
}

func (d *Daemon) profileGet(params json.RawMessage) (any, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.profiles.Get(p.ID)
}

func (d *Daemon) profileList(json.RawMessage) (any, error) {
	return d.profiles.List(), nil
}

func (d *Daemon) profileUpdate(params json.RawMessage) (any, error) {
	var p struct {
		ID          string  `json:"id"`
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		Color       *string `json:"color,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.profiles.Update(p.ID, services.UpdateProfileRequest{
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
	})
}

func (d *Daemon) profileDelete(params json.RawMessage) (any, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if d.timers.GetByProfile(p.ID) != nil {
		return nil, domain.Validationf("profile %q has an active timer, stop it first", p.ID)
	}
	if err := d.profiles.Delete(p.ID); err != nil {
		return nil, err
	}
	d.tasks.DropProfile(p.ID)
	d.entries.DropProfile(p.ID)
	return map[string]bool{"deleted": true}, nil
}

// --- task ---

func (d *Daemon) taskCreate(params json.RawMessage) (any, error) {
	var p struct {
		ProfileID   string   `json:"profile_id"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		URL         string   `json:"url"`
		Tags        []string `json:"tags"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.tasks.Create(d.resolveProfile(p.ProfileID), p.Title, p.Description, p.URL, p.Tags)
}

type taskRefParams struct {
	ProfileID string `json:"profile_id"`
	TaskID    string `json:"task_id"`
}

func (d *Daemon) taskGet(params json.RawMessage) (any, error) {
	var p taskRefParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.tasks.Get(d.resolveProfile(p.ProfileID), p.TaskID)
}

func (d *Daemon) taskList(params json.RawMessage) (any, error) {
	var p struct {
		ProfileID string  `json:"profile_id"`
		Status    *string `json:"status,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	var status *domain.TaskStatus
	if p.Status != nil {
		parsed, err := domain.ValidateTaskStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}
	return d.tasks.List(d.resolveProfile(p.ProfileID), status)
}

func (d *Daemon) taskUpdate(params json.RawMessage) (any, error) {
	var p struct {
		taskRefParams
		Title       *string  `json:"title,omitempty"`
		Description *string  `json:"description,omitempty"`
		Status      *string  `json:"status,omitempty"`
		URL         *string  `json:"url,omitempty"`
		Tags        []string `json:"tags,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.tasks.Update(d.resolveProfile(p.ProfileID), p.TaskID, services.UpdateTaskRequest{
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		URL:         p.URL,
		Tags:        p.Tags,
	})
}

func (d *Daemon) taskDelete(params json.RawMessage) (any, error) {
	var p taskRefParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := d.tasks.Delete(d.resolveProfile(p.ProfileID), p.TaskID); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

func (d *Daemon) taskSearch(params json.RawMessage) (any, error) {
	var p struct {
		ProfileID string `json:"profile_id"`
		Query     string `json:"query"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.tasks.Search(d.resolveProfile(p.ProfileID), p.Query)
}

func (d *Daemon) taskMove(params json.RawMessage) (any, error) {
	var p struct {
		TaskID      string `json:"task_id"`
		FromProfile string `json:"from_profile"`
		ToProfile   string `json:"to_profile"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.tasks.Move(p.TaskID, d.resolveProfile(p.FromProfile), p.ToProfile)
}

// --- entry ---

func (d *Daemon) entryList(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	profileID := d.resolveProfile(p.ProfileID)
	entries, err := d.entries.List(profileID)
	if err != nil {
		return nil, err
	}
	return d.fillTitles(profileID, entries), nil
}

func (d *Daemon) entryFilter(params json.RawMessage) (any, error) {
	var p struct {
		ProfileID string   `json:"profile_id"`
		StartDate *string  `json:"start_date,omitempty"`
		EndDate   *string  `json:"end_date,omitempty"`
		TaskID    *string  `json:"task_id,omitempty"`
		Tags      []string `json:"tags,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	start, err := parseOptionalTime("start_date", p.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime("end_date", p.EndDate)
	if err != nil {
		return nil, err
	}

	profileID := d.resolveProfile(p.ProfileID)
	entries, err := d.entries.Filter(profileID, services.EntryFilter{
		StartDate: start,
		EndDate:   end,
		TaskID:    p.TaskID,
		Tags:      p.Tags,
	})
	if err != nil {
		return nil, err
	}
	return d.fillTitles(profileID, entries), nil
}

func (d *Daemon) entryToday(params json.RawMessage) (any, error) {
	return d.entryRange(params, d.entries.Today)
}

func (d *Daemon) entryWeek(params json.RawMessage) (any, error) {
	return d.entryRange(params, d.entries.Week)
}

func (d *Daemon) entryMonth(params json.RawMessage) (any, error) {
	return d.entryRange(params, d.entries.Month)
}

func (d *Daemon) entryRange(params json.RawMessage, query func(string) ([]*domain.Entry, error)) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	profileID := d.resolveProfile(p.ProfileID)
	entries, err := query(profileID)
	if err != nil {
		return nil, err
	}
	return d.fillTitles(profileID, entries), nil
}

func (d *Daemon) entryStatsToday(params json.RawMessage) (any, error) {
	return d.entryStats(params, d.entries.StatsToday)
}

func (d *Daemon) entryStatsWeek(params json.RawMessage) (any, error) {
	return d.entryStats(params, d.entries.StatsWeek)
}

func (d *Daemon) entryStatsMonth(params json.RawMessage) (any, error) {
	return d.entryStats(params, d.entries.StatsMonth)
}

func (d *Daemon) entryStats(params json.RawMessage, query func(string) (services.Stats, error)) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return query(d.resolveProfile(p.ProfileID))
}

func (d *Daemon) entryTodayAllProfiles(json.RawMessage) (any, error) {
	return d.entries.TodayAllProfiles()
}

func (d *Daemon) entryWeekAllProfiles(json.RawMessage) (any, error) {
	return d.entries.WeekAllProfiles()
}

func (d *Daemon) entryMonthAllProfiles(json.RawMessage) (any, error) {
	return d.entries.MonthAllProfiles()
}

func (d *Daemon) entryCreate(params json.RawMessage) (any, error) {
	var p struct {
		ProfileID   string   `json:"profile_id"`
		TaskID      *string  `json:"task_id,omitempty"`
		StartTime   string   `json:"start_time"`
		EndTime     string   `json:"end_time"`
		Mode        string   `json:"mode"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	start, err := parseTime("start_time", p.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseTime("end_time", p.EndTime)
	if err != nil {
		return nil, err
	}
	return d.entries.Create(d.resolveProfile(p.ProfileID), services.CreateEntryRequest{
		TaskID:      p.TaskID,
		StartTime:   start,
		EndTime:     end,
		Mode:        domain.TimerMode(p.Mode),
		Description: p.Description,
		Tags:        p.Tags,
	})
}

func (d *Daemon) entryUpdate(params json.RawMessage) (any, error) {
	var p struct {
		ProfileID   string   `json:"profile_id"`
		EntryID     string   `json:"entry_id"`
		Description *string  `json:"description,omitempty"`
		Tags        []string `json:"tags,omitempty"`
		StartTime   *string  `json:"start_time,omitempty"`
		EndTime     *string  `json:"end_time,omitempty"`
		TaskID      *string  `json:"task_id,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	start, err := parseOptionalTime("start_time", p.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime("end_time", p.EndTime)
	if err != nil {
		return nil, err
	}
	return d.entries.Update(d.resolveProfile(p.ProfileID), p.EntryID, services.UpdateEntryRequest{
		Description: p.Description,
		Tags:        p.Tags,
		StartTime:   start,
		EndTime:     end,
		TaskID:      p.TaskID,
	})
}

func (d *Daemon) entryDelete(params json.RawMessage) (any, error) {
	var p struct {
		ProfileID string `json:"profile_id"`
		EntryID   string `json:"entry_id"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := d.entries.Delete(d.resolveProfile(p.ProfileID), p.EntryID); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

// --- config ---

func (d *Daemon) configGet(json.RawMessage) (any, error) {
	return d.cfg.Get(), nil
}

func (d *Daemon) configSetDefaultProfile(params json.RawMessage) (any, error) {
	var p profileOnlyParams
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.cfg.SetDefaultProfile(p.ProfileID)
}

func (d *Daemon) configUpdatePomodoro(params json.RawMessage) (any, error) {
	var p struct {
		WorkDuration           *int64 `json:"work_duration,omitempty"`
		ShortBreak             *int64 `json:"short_break,omitempty"`
		LongBreak              *int64 `json:"long_break,omitempty"`
		SessionsUntilLongBreak *int   `json:"sessions_until_long_break,omitempty"`
		CountdownDefault       *int64 `json:"countdown_default,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.cfg.UpdatePomodoro(services.UpdatePomodoroRequest{
		WorkDuration:           p.WorkDuration,
		ShortBreak:             p.ShortBreak,
		LongBreak:              p.LongBreak,
		SessionsUntilLongBreak: p.SessionsUntilLongBreak,
		CountdownDefault:       p.CountdownDefault,
	})
}

func (d *Daemon) configUpdateSync(params json.RawMessage) (any, error) {
	var p struct {
		AutoCommit *bool   `json:"auto_commit,omitempty"`
		AutoPush   *bool   `json:"auto_push,omitempty"`
		RemoteURL  *string `json:"remote_url,omitempty"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return d.cfg.UpdateSync(services.UpdateSyncRequest{
		AutoCommit: p.AutoCommit,
		AutoPush:   p.AutoPush,
		RemoteURL:  p.RemoteURL,
	})
}

func (d *Daemon) configReset(json.RawMessage) (any, error) {
	return d.cfg.Reset()
}

// --- sync ---

func (d *Daemon) syncInit(json.RawMessage) (any, error) {
	if err := d.syncer.Init(); err != nil {
		return nil, err
	}
	return d.syncer.Status()
}

func (d *Daemon) syncStatus(json.RawMessage) (any, error) {
	return d.syncer.Status()
}

func (d *Daemon) syncSync(json.RawMessage) (any, error) {
	cfg := d.cfg.Get()
	autoCommit, autoPush, remoteURL := cfg.SyncSettings()
	if err := d.syncer.Sync(syncSettings(autoCommit, autoPush, remoteURL)); err != nil {
		return nil, err
	}
	return map[string]bool{"synced": true}, nil
}

func (d *Daemon) syncCommit(params json.RawMessage) (any, error) {
	var p struct {
		Message string `json:"message"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Message == "" {
		p.Message = "mootimer: manual commit"
	}
	hash, err := d.syncer.Commit(p.Message)
	if err != nil {
		return nil, err
	}
	return map[string]string{"commit": hash}, nil
}

func (d *Daemon) syncSetRemote(params json.RawMessage) (any, error) {
	var p struct {
		URL string `json:"url"`
	}
	if err := rpc.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, domain.Validationf("remote url cannot be empty")
	}
	if err := d.syncer.SetRemote(p.URL); err != nil {
		return nil, err
	}
	return d.syncer.Status()
}
