package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xvierd/mootimer/internal/domain"
)

const tasksFile = "tasks.json"

// TaskStore persists the task list of a profile as a single document.
type TaskStore struct {
	dirs
}

// taskDocument is the on-disk shape of a profile's task list.
type taskDocument struct {
	Tasks []*domain.Task `json:"tasks"`
}

// Load reads the profile's task list; a missing file yields an empty list.
func (s *TaskStore) Load(profileID string) ([]*domain.Task, error) {
	path := filepath.Join(s.profileDir(profileID), tasksFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Task{}, nil
		}
		return nil, fmt.Errorf("failed to read tasks for %s: %w", profileID, err)
	}

	var doc taskDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tasks for %s: %w", profileID, err)
	}
	if doc.Tasks == nil {
		doc.Tasks = []*domain.Task{}
	}
	return doc.Tasks, nil
}

// Save rewrites the profile's task list as a single document.
func (s *TaskStore) Save(profileID string, tasks []*domain.Task) error {
	dir := s.profileDir(profileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := json.MarshalIndent(taskDocument{Tasks: tasks}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, tasksFile), data); err != nil {
		return fmt.Errorf("failed to write tasks: %w", err)
	}
	return nil
}

// Delete removes the profile's task document.
func (s *TaskStore) Delete(profileID string) error {
	err := os.Remove(filepath.Join(s.profileDir(profileID), tasksFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete tasks for %s: %w", profileID, err)
	}
	return nil
}
