package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/ports"
)

// TaskManager owns the per-profile task caches. Profiles are loaded lazily
// on first access and each mutation rewrites that profile's task document.
type TaskManager struct {
	mu        sync.RWMutex
	store     ports.TaskStore
	events    *bus.Bus
	byProfile map[string]map[string]*domain.Task
}

// NewTaskManager creates a task manager with an empty cache.
func NewTaskManager(store ports.TaskStore, events *bus.Bus) *TaskManager {
	return &TaskManager{
		store:     store,
		events:    events,
		byProfile: make(map[string]map[string]*domain.Task),
	}
}

// tasksFor returns the profile's cache, loading it from disk on first use.
// Caller must hold mu for writing.
func (m *TaskManager) tasksFor(profileID string) (map[string]*domain.Task, error) {
	if tasks, ok := m.byProfile[profileID]; ok {
		return tasks, nil
	}
	loaded, err := m.store.Load(profileID)
	if err != nil {
		return nil, err
	}
	tasks := make(map[string]*domain.Task, len(loaded))
	for _, t := range loaded {
		tasks[t.ID] = t
	}
	m.byProfile[profileID] = tasks
	return tasks, nil
}

// persist writes the profile's tasks sorted by creation time for a stable
// document. Caller must hold mu.
func (m *TaskManager) persist(profileID string, tasks map[string]*domain.Task) error {
	list := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, t)
	}
	sortTasks(list)
	return m.store.Save(profileID, list)
}

func sortTasks(list []*domain.Task) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// Create adds a task to the profile.
func (m *TaskManager) Create(profileID, title, description, url string, tags []string) (*domain.Task, error) {
	task, err := domain.NewTask(title, description, url, tags)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tasks, err := m.tasksFor(profileID)
	if err != nil {
		return nil, err
	}
	tasks[task.ID] = task
	if err := m.persist(profileID, tasks); err != nil {
		delete(tasks, task.ID)
		return nil, err
	}

	m.events.EmitTask(domain.TaskEvent{
		ProfileID: profileID,
		Event:     domain.TaskEventKind{Type: domain.TaskCreated, Task: task},
	})
	return task, nil
}

// Get returns a task by id within a profile.
func (m *TaskManager) Get(profileID, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks, err := m.tasksFor(profileID)
	if err != nil {
		return nil, err
	}
	task, ok := tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}
	copy := *task
	return &copy, nil
}

// List returns the profile's tasks, optionally filtered by status, sorted
// by creation time.
func (m *TaskManager) List(profileID string, status *domain.TaskStatus) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks, err := m.tasksFor(profileID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if status != nil && t.Status != *status {
			continue
		}
		copy := *t
		out = append(out, &copy)
	}
	sortTasks(out)
	return out, nil
}

// Search returns tasks matching a case-insensitive substring query over
// title, description, and tags.
func (m *TaskManager) Search(profileID, query string) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks, err := m.tasksFor(profileID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Task, 0)
	for _, t := range tasks {
		if t.Matches(query) {
			copy := *t
			out = append(out, &copy)
		}
	}
	sortTasks(out)
	return out, nil
}

// UpdateTaskRequest carries the optional fields of a task update. Nil
// fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string
	Description *string
	Status      *string
	URL         *string
	Tags        []string
}

// Update applies the non-nil fields and persists the profile's tasks.
func (m *TaskManager) Update(profileID, taskID string, req UpdateTaskRequest) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks, err := m.tasksFor(profileID)
	if err != nil {
		return nil, err
	}
	existing, ok := tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}

	updated := *existing
	if req.Title != nil {
		if *req.Title == "" {
			return nil, domain.Validationf("task title cannot be empty")
		}
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Status != nil {
		status, err := domain.ValidateTaskStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		updated.Status = status
	}
	if req.URL != nil {
		if err := domain.ValidateTaskURL(*req.URL); err != nil {
			return nil, err
		}
		updated.URL = *req.URL
	}
	if req.Tags != nil {
		updated.Tags = []string{}
		for _, tag := range req.Tags {
			updated.AddTag(tag)
		}
	}
	updated.Touch()

	tasks[taskID] = &updated
	if err := m.persist(profileID, tasks); err != nil {
		tasks[taskID] = existing
		return nil, err
	}

	m.events.EmitTask(domain.TaskEvent{
		ProfileID: profileID,
		Event:     domain.TaskEventKind{Type: domain.TaskUpdated, Task: &updated},
	})
	copy := updated
	return &copy, nil
}

// Delete removes a task from the profile.
func (m *TaskManager) Delete(profileID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks, err := m.tasksFor(profileID)
	if err != nil {
		return err
	}
	existing, ok := tasks[taskID]
	if !ok {
		return fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}

	delete(tasks, taskID)
	if err := m.persist(profileID, tasks); err != nil {
		tasks[taskID] = existing
		return err
	}

	m.events.EmitTask(domain.TaskEvent{
		ProfileID: profileID,
		Event:     domain.TaskEventKind{Type: domain.TaskDeleted, TaskID: taskID},
	})
	return nil
}

// Move transfers a task between profiles, preserving its id and metadata.
// The source write happens first; if the destination write fails the task
// is restored to the source.
func (m *TaskManager) Move(taskID, fromProfile, toProfile string) (*domain.Task, error) {
	if fromProfile == toProfile {
		return nil, domain.Validationf("source and destination profile are the same")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := m.tasksFor(fromProfile)
	if err != nil {
		return nil, err
	}
	task, ok := src[taskID]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}
	dst, err := m.tasksFor(toProfile)
	if err != nil {
		return nil, err
	}

	moved := *task
	moved.Touch()

	delete(src, taskID)
	if err := m.persist(fromProfile, src); err != nil {
		src[taskID] = task
		return nil, err
	}
	dst[taskID] = &moved
	if err := m.persist(toProfile, dst); err != nil {
		delete(dst, taskID)
		src[taskID] = task
		if restoreErr := m.persist(fromProfile, src); restoreErr != nil {
			return nil, fmt.Errorf("failed to restore task after move failure: %w", restoreErr)
		}
		return nil, err
	}

	m.events.EmitTask(domain.TaskEvent{
		ProfileID: fromProfile,
		Event:     domain.TaskEventKind{Type: domain.TaskDeleted, TaskID: taskID},
	})
	m.events.EmitTask(domain.TaskEvent{
		ProfileID: toProfile,
		Event:     domain.TaskEventKind{Type: domain.TaskCreated, Task: &moved},
	})
	copy := moved
	return &copy, nil
}

// ResolveTitle returns the title of a task, for denormalizing onto timers
// and entries.
func (m *TaskManager) ResolveTitle(profileID, taskID string) (string, error) {
	task, err := m.Get(profileID, taskID)
	if err != nil {
		return "", err
	}
	return task.Title, nil
}

// DropProfile evicts a deleted profile's tasks from the cache.
func (m *TaskManager) DropProfile(profileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byProfile, profileID)
}
