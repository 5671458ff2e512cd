// Package services implements the application layer: the managers that own
// the in-memory caches, enforce validation, persist through the storage
// ports, and broadcast change events. Every mutation follows the same
// order: validate, write to disk, update the cache, emit.
package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/ports"
)

// ProfileManager owns the profile cache and its persistence.
type ProfileManager struct {
	mu       sync.RWMutex
	store    ports.ProfileStore
	events   *bus.Bus
	profiles map[string]*domain.Profile
}

// NewProfileManager loads all profiles from disk into the cache.
func NewProfileManager(store ports.ProfileStore, events *bus.Bus) (*ProfileManager, error) {
	profiles, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	cache := make(map[string]*domain.Profile, len(profiles))
	for _, p := range profiles {
		cache[p.ID] = p
	}
	return &ProfileManager{store: store, events: events, profiles: cache}, nil
}

// Create adds a new profile. A duplicate id is rejected.
func (m *ProfileManager) Create(id, name, description, color string) (*domain.Profile, error) {
	profile, err := domain.NewProfile(id, name, description, color)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[id]; ok {
		return nil, fmt.Errorf("profile %q: %w", id, domain.ErrAlreadyExists)
	}
	if err := m.store.Save(profile); err != nil {
		return nil, err
	}
	m.profiles[id] = profile

	m.events.EmitProfile(domain.ProfileEvent{
		Event: domain.ProfileEventKind{Type: domain.ProfileCreated, Profile: profile},
	})
	return profile, nil
}

// Ensure creates the profile if it does not exist yet. Used at daemon
// startup for the configured default profile.
func (m *ProfileManager) Ensure(id, name string) error {
	m.mu.RLock()
	_, ok := m.profiles[id]
	m.mu.RUnlock()
	if ok {
		return nil
	}
	_, err := m.Create(id, name, "", "")
	return err
}

// Get returns the profile with the given id.
func (m *ProfileManager) Get(id string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}
	copy := *profile
	return &copy, nil
}

// Exists reports whether a profile with the given id is known.
func (m *ProfileManager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.profiles[id]
	return ok
}

// List returns all profiles sorted by id.
func (m *ProfileManager) List() []*domain.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		copy := *p
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns all profile ids sorted.
func (m *ProfileManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.profiles))
	for id := range m.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UpdateProfileRequest carries the optional fields of a profile update.
// Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name        *string
	Description *string
	Color       *string
}

// Update applies the non-nil fields and persists the profile.
func (m *ProfileManager) Update(id string, req UpdateProfileRequest) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}

	updated := *existing
	if req.Name != nil {
		if *req.Name == "" {
			return nil, domain.Validationf("profile name cannot be empty")
		}
		updated.Name = *req.Name
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Color != nil {
		if err := domain.ValidateColor(*req.Color); err != nil {
			return nil, err
		}
		updated.Color = *req.Color
	}
	updated.Touch()

	if err := m.store.Save(&updated); err != nil {
		return nil, err
	}
	m.profiles[id] = &updated

	m.events.EmitProfile(domain.ProfileEvent{
		Event: domain.ProfileEventKind{Type: domain.ProfileUpdated, Profile: &updated},
	})
	copy := updated
	return &copy, nil
}

// Delete removes the profile and its whole data directory, tasks and
// entries included. The caller is responsible for rejecting deletion while
// the profile has an active timer.
func (m *ProfileManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[id]; !ok {
		return fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}
	if err := m.store.Delete(id); err != nil {
		return err
	}
	delete(m.profiles, id)

	m.events.EmitProfile(domain.ProfileEvent{
		Event: domain.ProfileEventKind{Type: domain.ProfileDeleted, ProfileID: id},
	})
	return nil
}
