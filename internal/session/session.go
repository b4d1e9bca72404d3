// Package session couples the scene manager to the audio engine.
// It enforces that the previous scene's tracks are stopped before the
// next scene's tracks start.
package session

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jscyril/soundscape/api"
	"github.com/jscyril/soundscape/internal/audio"
	"github.com/jscyril/soundscape/internal/scene"
)

// Player is the part of the audio engine a session drives
type Player interface {
	PlayTracks(tracks []api.TrackSpec) audio.BatchResult
	StopAll()
	SetMainVolume(percent int)
	MainVolumePercent() int
	Playing() []api.PlayingTrack
}

// Loader reloads scene data from its source
type Loader interface {
	Load() (*scene.Catalog, error)
}

// ActiveScene is the selected scene together with its playback handles
type ActiveScene struct {
	Scene    api.Scene
	Handles  []api.PlaybackHandle
	Failures []audio.TrackFailure
}

// Session is driven by a single control thread and is not safe for concurrent use
type Session struct {
	scenes *scene.Manager
	player Player
	loader Loader
	logger *log.Logger
	active *ActiveScene
}

// New creates a session. loader may be nil, which disables reload.
func New(scenes *scene.Manager, player Player, loader Loader, logger *log.Logger) *Session {
	return &Session{
		scenes: scenes,
		player: player,
		loader: loader,
		logger: logger,
	}
}

// Scenes returns the scene manager
func (s *Session) Scenes() *scene.Manager {
	return s.scenes
}

// Player returns the engine the session plays through
func (s *Session) Player() Player {
	return s.player
}

// ChangeScene stops the current scene and starts name.
// An unknown name fails before anything is stopped.
func (s *Session) ChangeScene(name string) (ActiveScene, error) {
	tracks, err := s.scenes.SwitchScene(name)
	if err != nil {
		return ActiveScene{}, err
	}

	s.player.StopAll()
	result := s.player.PlayTracks(tracks)

	sc, _ := s.scenes.Active()
	s.active = &ActiveScene{
		Scene:    sc,
		Handles:  result.Handles,
		Failures: result.Failures,
	}

	s.logger.Info("scene changed", "scene", name,
		"playing", len(result.Handles), "failed", len(result.Failures))
	return *s.active, nil
}

// Active returns the active scene, if any
func (s *Session) Active() (ActiveScene, bool) {
	if s.active == nil {
		return ActiveScene{}, false
	}
	return *s.active, true
}

// Stop silences playback but keeps the active scene selected
func (s *Session) Stop() {
	s.player.StopAll()
	if s.active != nil {
		s.active.Handles = nil
	}
}

// SetVolume sets main volume from a percentage and returns the applied value
func (s *Session) SetVolume(percent int) int {
	s.player.SetMainVolume(percent)
	return s.player.MainVolumePercent()
}

// ErrNoLoader is returned by Reload when the session has no scene source
var ErrNoLoader = errors.New("no scene source to reload from")

// Reload re-reads the scene source. On error the current scenes stay in effect.
func (s *Session) Reload() (int, error) {
	if s.loader == nil {
		return 0, ErrNoLoader
	}

	cat, err := s.loader.Load()
	if err != nil {
		s.logger.Error("scene reload failed", "err", err)
		return 0, fmt.Errorf("reload scenes: %w", err)
	}

	s.scenes.Reload(cat)
	s.logger.Info("scenes reloaded", "count", cat.Len())
	return cat.Len(), nil
}

// Close stops all playback
func (s *Session) Close() {
	s.Stop()
}

// TrackStatus is the playback state of one track of the active scene
type TrackStatus struct {
	Index           int
	Track           api.TrackSpec
	Playing         bool
	EffectiveVolume float64
	Err             error
}

// TrackStatuses reports every track of the active scene in scene order.
// It returns nil when no scene is active.
func (s *Session) TrackStatuses() []TrackStatus {
	if s.active == nil {
		return nil
	}

	playing := make(map[api.PlaybackHandle]api.PlayingTrack)
	for _, p := range s.player.Playing() {
		playing[p.Handle] = p
	}

	failed := make(map[int]error, len(s.active.Failures))
	for _, f := range s.active.Failures {
		failed[f.Index] = f.Err
	}

	// Handles are in track order with failed tracks left out
	next := 0
	statuses := make([]TrackStatus, 0, len(s.active.Scene.Tracks))
	for i, track := range s.active.Scene.Tracks {
		st := TrackStatus{Index: i, Track: track}
		if err, ok := failed[i]; ok {
			st.Err = err
		} else if next < len(s.active.Handles) {
			if p, ok := playing[s.active.Handles[next]]; ok {
				st.Playing = true
				st.EffectiveVolume = p.EffectiveVolume
			}
			next++
		}
		statuses = append(statuses, st)
	}
	return statuses
}
