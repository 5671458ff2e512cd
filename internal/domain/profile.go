// Package domain contains the core business entities for mootimer.
// These entities represent the fundamental concepts of the time tracking
// daemon and are independent of any external frameworks or infrastructure.
package domain

import (
	"strings"
	"time"
)

// Profile is an id-addressed namespace owning tasks, entries, and at most one
// active timer. The id doubles as the storage directory name.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProfile creates a profile after validating its identity fields.
func NewProfile(id, name, description, color string) (*Profile, error) {
	if err := ValidateProfileID(id); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, Validationf("profile name cannot be empty")
	}
	if err := ValidateColor(color); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Profile{
		ID:          id,
		Name:        name,
		Description: description,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Touch bumps the modification timestamp.
func (p *Profile) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// ValidateProfileID ensures the id is non-empty and uses only [A-Za-z0-9_-].
func ValidateProfileID(id string) error {
	if id == "" {
		return Validationf("profile id cannot be empty")
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return Validationf("profile id %q contains invalid character %q", id, c)
		}
	}
	return nil
}

// ValidateColor accepts an empty color or a hex color in #RGB or #RRGGBB form.
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !strings.HasPrefix(color, "#") {
		return Validationf("color %q must start with '#'", color)
	}
	hex := color[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return Validationf("color %q must be #RGB or #RRGGBB", color)
	}
	for _, c := range hex {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return Validationf("color %q contains non-hex character %q", color, c)
		}
	}
	return nil
}
