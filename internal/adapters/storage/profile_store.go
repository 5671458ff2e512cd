package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xvierd/mootimer/internal/domain"
)

const profileFile = "profile.json"

// ProfileStore persists profile documents, one directory per profile.
type ProfileStore struct {
	dirs
}

// LoadAll reads every profile.json under the profiles directory. Directories
// without a profile document are skipped.
func (s *ProfileStore) LoadAll() ([]*domain.Profile, error) {
	dirEntries, err := os.ReadDir(s.profilesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Profile{}, nil
		}
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	profiles := make([]*domain.Profile, 0, len(dirEntries))
	for _, dir := range dirEntries {
		if !dir.IsDir() {
			continue
		}
		path := filepath.Join(s.profileDir(dir.Name()), profileFile)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read profile %s: %w", dir.Name(), err)
		}

		var profile domain.Profile
		if err := json.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("failed to parse profile %s: %w", dir.Name(), err)
		}
		profiles = append(profiles, &profile)
	}
	return profiles, nil
}

// Save writes the profile document, creating its directory if needed.
func (s *ProfileStore) Save(profile *domain.Profile) error {
	dir := s.profileDir(profile.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, profileFile), data); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// Delete removes the profile's directory and everything in it.
func (s *ProfileStore) Delete(id string) error {
	if err := os.RemoveAll(s.profileDir(id)); err != nil {
		return fmt.Errorf("failed to delete profile directory: %w", err)
	}
	return nil
}
