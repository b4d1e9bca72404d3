package scene

import (
	"sync"

	"github.com/jscyril/soundscape/api"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
)

// Manager owns the loaded scenes and which one is active.
// It never touches audio; callers stop playback around a switch.
type Manager struct {
	catalog *Catalog
	active  *api.Scene
	mu      sync.RWMutex
}

// NewManager creates a manager over cat; a nil catalog means no scenes
func NewManager(cat *Catalog) *Manager {
	if cat == nil {
		cat = NewCatalog()
	}
	return &Manager{catalog: cat}
}

// ListScenes returns scene names in load order
func (m *Manager) ListScenes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog.Names()
}

// Has reports whether name is a loaded scene
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.catalog.scenes[name]
	return ok
}

// GetDescription returns the scene description, if the scene has one
func (m *Manager) GetDescription(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.catalog.scenes[name]
	if !ok || s.Description == "" {
		return "", false
	}
	return s.Description, true
}

// GetTracks returns the tracks of name, or an empty slice for unknown scenes
func (m *Manager) GetTracks(name string) []api.TrackSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.catalog.Scene(name)
	if !ok {
		return []api.TrackSpec{}
	}
	return s.Tracks
}

// Activate makes name the active scene. On failure the active scene is unchanged.
func (m *Manager) Activate(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activateLocked(name)
}

func (m *Manager) activateLocked(name string) error {
	s, ok := m.catalog.Scene(name)
	if !ok {
		return &playerrors.SceneError{Name: name}
	}
	m.active = &s
	return nil
}

// SwitchScene activates name and returns its tracks in one step
func (m *Manager) SwitchScene(name string) ([]api.TrackSpec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.activateLocked(name); err != nil {
		return nil, err
	}
	return m.active.Clone().Tracks, nil
}

// GetActiveTracks returns the active scene's tracks, empty when idle
func (m *Manager) GetActiveTracks() []api.TrackSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return []api.TrackSpec{}
	}
	return m.active.Clone().Tracks
}

// Active returns the active scene
func (m *Manager) Active() (api.Scene, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return api.Scene{}, false
	}
	return m.active.Clone(), true
}

// Reload replaces the scene data. The active scene keeps the tracks it
// was activated with until the next switch.
func (m *Manager) Reload(cat *Catalog) {
	if cat == nil {
		cat = NewCatalog()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = cat
}
