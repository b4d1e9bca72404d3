package api

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultTrackVolume is applied to tracks whose volume is missing or invalid
const DefaultTrackVolume = 1.0

// TrackSpec describes one audio source of a scene
type TrackSpec struct {
	Path   string  `yaml:"path" json:"path"`
	Volume float64 `yaml:"volume" json:"volume"`
	Loop   bool    `yaml:"loop" json:"loop"`
}

// NewTrackSpec returns a looping track at the default volume
func NewTrackSpec(path string) TrackSpec {
	return TrackSpec{Path: path, Volume: DefaultTrackVolume, Loop: true}
}

// Scene is a named, ordered collection of tracks
type Scene struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Tracks      []TrackSpec `json:"tracks"`
}

// Clone returns a deep copy so callers cannot mutate store-owned tracks
func (s Scene) Clone() Scene {
	tracks := make([]TrackSpec, len(s.Tracks))
	copy(tracks, s.Tracks)
	s.Tracks = tracks
	return s
}

// PlaybackHandle identifies one playing track inside an engine.
// The token distinguishes successive tracks assigned to the same channel.
type PlaybackHandle struct {
	Channel int
	Token   uuid.UUID
}

// IsZero reports whether the handle was never assigned
func (h PlaybackHandle) IsZero() bool {
	return h.Token == uuid.Nil
}

func (h PlaybackHandle) String() string {
	return fmt.Sprintf("ch%d/%s", h.Channel, h.Token.String()[:8])
}

// PlayingTrack is a snapshot of a track occupying a channel
type PlayingTrack struct {
	Handle          PlaybackHandle
	Track           TrackSpec
	EffectiveVolume float64
}

// EventType represents the kind of engine event
type EventType int

const (
	EventTrackStarted EventType = iota
	EventTrackEnded
	EventTrackFailed
	EventVolumeChanged
	EventStopped
)

func (t EventType) String() string {
	switch t {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventTrackFailed:
		return "track_failed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// AudioEvent is published by the engine after a state change
type AudioEvent struct {
	Type   EventType
	Handle PlaybackHandle
	Track  TrackSpec
	Volume float64
	Err    error
}
