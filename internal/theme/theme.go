// Package theme manages the dark/light mode and the colour skin.
package theme

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// Mode is the persisted theme name.
type Mode string

const (
	Dark  Mode = "dark"
	Light Mode = "light"
)

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == Light {
		return Dark
	}
	return Light
}

// ParseMode accepts "dark" or "light", case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Dark:
		return Dark, true
	case Light:
		return Light, true
	}
	return "", false
}

// Manager holds the active mode and skin and persists the mode.
type Manager struct {
	mu    sync.RWMutex
	blobs model.BlobStore
	mode  Mode
	skin  Skin
}

// Load reads the persisted mode. A missing or unknown value means dark.
func Load(blobs model.BlobStore, skin Skin) (*Manager, error) {
	m := &Manager{blobs: blobs, mode: Mode(model.DefaultTheme), skin: skin.withDefaults()}

	raw, ok, err := blobs.Get(model.KeyTheme)
	if err != nil {
		return nil, fmt.Errorf("theme: load: %w", err)
	}
	if ok {
		if mode, valid := ParseMode(string(raw)); valid {
			m.mode = mode
		} else {
			log.Printf("theme: ignoring unknown theme %q", raw)
		}
	}
	return m, nil
}

// Mode returns the active mode.
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Set switches to mode and persists it.
func (m *Manager) Set(mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.blobs.Set(model.KeyTheme, []byte(mode)); err != nil {
		return fmt.Errorf("theme: save: %w", err)
	}
	m.mode = mode
	return nil
}

// Toggle flips between dark and light and returns the new mode.
func (m *Manager) Toggle() (Mode, error) {
	next := m.Mode().Other()
	if err := m.Set(next); err != nil {
		return m.Mode(), err
	}
	return next, nil
}

// Palette returns the colours for the active mode.
func (m *Manager) Palette() Palette {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.mode == Light {
		return m.skin.Light
	}
	return m.skin.Dark
}

// SkinName returns the loaded skin's name.
func (m *Manager) SkinName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.skin.Name
}
