// Package preset persists song form presets.
package preset

import (
	"errors"

	"github.com/robmorgan/downbeat/rhythm"
)

// ErrNotFound is returned when no preset has the requested id.
var ErrNotFound = errors.New("preset not found")

// Store holds the user's form presets.
type Store interface {
	// Create validates p and saves it. An id and timestamp are assigned when p has none.
	Create(p rhythm.FormPreset) (rhythm.FormPreset, error)

	// List returns all presets, oldest first.
	List() ([]rhythm.FormPreset, error)

	Get(id string) (rhythm.FormPreset, error)
	Delete(id string) error
}
