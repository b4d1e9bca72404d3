package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jscyril/soundscape/api"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
	"github.com/jscyril/soundscape/pkg/events"
)

// DefaultChannels is the pool size used when none is configured
const DefaultChannels = 8

// Engine plays tracks through a fixed pool of channels.
// Effective channel volume is always track volume times main volume.
type Engine struct {
	backend    Backend
	bus        *events.EventBus
	ownsBus    bool
	logger     *log.Logger
	channels   []*channel
	mainVolume float64
	closed     bool
	mu         sync.Mutex
}

// channel is an occupied pool slot
type channel struct {
	handle api.PlaybackHandle
	track  api.TrackSpec
	voice  Voice
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEventBus publishes engine events on bus instead of a private one
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Engine) {
		e.bus = bus
		e.ownsBus = false
	}
}

// NewEngine creates an engine with a pool of n channels over backend
func NewEngine(backend Backend, n int, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", playerrors.ErrAudioInit)
	}
	e, err := newEngine(n, opts)
	if err != nil {
		return nil, err
	}
	e.backend = backend
	return e, nil
}

// Open initializes the speaker and returns an engine playing through it
func Open(cfg BeepConfig, n int, opts ...Option) (*Engine, error) {
	e, err := newEngine(n, opts)
	if err != nil {
		return nil, err
	}
	backend, err := NewBeepBackend(cfg, e.logger)
	if err != nil {
		return nil, err
	}
	e.backend = backend
	return e, nil
}

func newEngine(n int, opts []Option) (*Engine, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: channel count must be positive, got %d", playerrors.ErrAudioInit, n)
	}

	e := &Engine{
		bus:        events.NewEventBus(),
		ownsBus:    true,
		logger:     log.New(io.Discard),
		channels:   make([]*channel, n),
		mainVolume: 1.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Events returns the bus engine events are published on
func (e *Engine) Events() *events.EventBus {
	return e.bus
}

// Capacity returns the fixed number of channels
func (e *Engine) Capacity() int {
	return len(e.channels)
}

// FreeChannels returns the number of idle channels
func (e *Engine) FreeChannels() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	free := 0
	for _, ch := range e.channels {
		if ch == nil {
			free++
		}
	}
	return free
}

// MainVolume returns the main volume as a fraction
func (e *Engine) MainVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mainVolume
}

// MainVolumePercent returns the main volume on the 0-100 scale
func (e *Engine) MainVolumePercent() int {
	return int(math.Round(e.MainVolume() * 100))
}

// SetMainVolume sets the main volume from a percentage, clamped to 0-100,
// and reapplies effective volume to every playing track
func (e *Engine) SetMainVolume(percent int) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.mainVolume = float64(percent) / 100
	for _, ch := range e.channels {
		if ch != nil {
			ch.voice.SetVolume(e.effective(ch.track))
		}
	}

	e.bus.Publish(api.AudioEvent{Type: api.EventVolumeChanged, Volume: e.mainVolume})
	e.logger.Debug("main volume set", "percent", percent)
}

// Play starts a track on the first free channel
func (e *Engine) Play(track api.TrackSpec) (api.PlaybackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return api.PlaybackHandle{}, playerrors.NewPlayerError("play", track.Path, playerrors.ErrEngineClosed)
	}
	if track.Path == "" {
		return api.PlaybackHandle{}, playerrors.NewPlayerError("load", "", fmt.Errorf("%w: empty path", playerrors.ErrResourceLoad))
	}

	idx := e.freeChannel()
	if idx < 0 {
		return api.PlaybackHandle{}, playerrors.NewPlayerError("play", track.Path, playerrors.ErrChannelExhausted)
	}

	sound, err := e.backend.Load(track.Path)
	if err != nil {
		if !errors.Is(err, playerrors.ErrResourceLoad) {
			err = fmt.Errorf("%w: %v", playerrors.ErrResourceLoad, err)
		}
		return api.PlaybackHandle{}, playerrors.NewPlayerError("load", track.Path, err)
	}

	track.Volume = clampUnit(track.Volume)
	handle := api.PlaybackHandle{Channel: idx, Token: uuid.New()}

	voice, err := e.backend.Play(sound, e.effective(track), track.Loop, func() {
		e.finished(handle)
	})
	if err != nil {
		return api.PlaybackHandle{}, playerrors.NewPlayerError("play", track.Path, err)
	}

	e.channels[idx] = &channel{handle: handle, track: track, voice: voice}

	e.bus.Publish(api.AudioEvent{Type: api.EventTrackStarted, Handle: handle, Track: track, Volume: e.effective(track)})
	e.logger.Debug("track started", "path", track.Path, "channel", idx, "volume", e.effective(track))
	return handle, nil
}

// TrackFailure describes one track of a batch that could not start
type TrackFailure struct {
	Index int
	Track api.TrackSpec
	Err   error
}

// BatchResult is the outcome of PlayTracks
type BatchResult struct {
	Handles  []api.PlaybackHandle
	Failures []TrackFailure
}

// PlayTracks plays each track independently; a failing track does not
// prevent the rest from starting
func (e *Engine) PlayTracks(tracks []api.TrackSpec) BatchResult {
	var result BatchResult

	for i, track := range tracks {
		handle, err := e.Play(track)
		if err != nil {
			result.Failures = append(result.Failures, TrackFailure{Index: i, Track: track, Err: err})
			e.bus.Publish(api.AudioEvent{Type: api.EventTrackFailed, Track: track, Err: err})
			e.logger.Warn("track failed", "path", track.Path, "err", err)
			continue
		}
		result.Handles = append(result.Handles, handle)
	}

	return result
}

// SetVolume changes a playing track's volume, clamped to [0,1]
func (e *Engine) SetVolume(handle api.PlaybackHandle, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.lookup(handle)
	if ch == nil {
		return playerrors.NewPlayerError("set_volume", "", playerrors.ErrHandleNotFound)
	}

	ch.track.Volume = clampUnit(volume)
	ch.voice.SetVolume(e.effective(ch.track))
	e.bus.Publish(api.AudioEvent{Type: api.EventVolumeChanged, Handle: handle, Track: ch.track, Volume: e.effective(ch.track)})
	return nil
}

// EffectiveVolume returns the volume currently applied to handle's channel
func (e *Engine) EffectiveVolume(handle api.PlaybackHandle) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.lookup(handle)
	if ch == nil {
		return 0, false
	}
	return e.effective(ch.track), true
}

// IsPlaying reports whether handle still owns its channel
func (e *Engine) IsPlaying(handle api.PlaybackHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lookup(handle) != nil
}

// Playing returns the playing tracks ordered by channel
func (e *Engine) Playing() []api.PlayingTrack {
	e.mu.Lock()
	defer e.mu.Unlock()

	playing := make([]api.PlayingTrack, 0, len(e.channels))
	for _, ch := range e.channels {
		if ch != nil {
			playing = append(playing, api.PlayingTrack{
				Handle:          ch.handle,
				Track:           ch.track,
				EffectiveVolume: e.effective(ch.track),
			})
		}
	}
	return playing
}

// Stop stops one track and frees its channel
func (e *Engine) Stop(handle api.PlaybackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.lookup(handle)
	if ch == nil {
		return playerrors.NewPlayerError("stop", "", playerrors.ErrHandleNotFound)
	}
	ch.voice.Stop()
	e.channels[handle.Channel] = nil
	e.bus.Publish(api.AudioEvent{Type: api.EventStopped, Handle: handle, Track: ch.track})
	return nil
}

// StopAll stops every channel. Calling it with nothing playing does nothing.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAllLocked()
}

func (e *Engine) stopAllLocked() {
	stopped := 0
	for i, ch := range e.channels {
		if ch != nil {
			ch.voice.Stop()
			e.channels[i] = nil
			stopped++
		}
	}
	if stopped > 0 {
		e.bus.Publish(api.AudioEvent{Type: api.EventStopped})
		e.logger.Debug("playback stopped", "tracks", stopped)
	}
}

// Crossfade is not implemented and always fails with ErrUnsupported
func (e *Engine) Crossfade(from, to api.PlaybackHandle, duration time.Duration) error {
	return playerrors.NewPlayerError("crossfade", "", playerrors.ErrUnsupported)
}

// Close stops playback and releases the backend
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.stopAllLocked()
	e.closed = true

	err := e.backend.Close()
	if e.ownsBus {
		e.bus.Close()
	}
	return err
}

// finished frees the channel of a track that played to its end.
// A stale handle means the channel was already reassigned.
func (e *Engine) finished(handle api.PlaybackHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.lookup(handle)
	if ch == nil {
		return
	}
	e.channels[handle.Channel] = nil
	if !e.closed {
		e.bus.Publish(api.AudioEvent{Type: api.EventTrackEnded, Handle: handle, Track: ch.track})
	}
}

func (e *Engine) lookup(handle api.PlaybackHandle) *channel {
	if handle.Channel < 0 || handle.Channel >= len(e.channels) {
		return nil
	}
	ch := e.channels[handle.Channel]
	if ch == nil || ch.handle.Token != handle.Token {
		return nil
	}
	return ch
}

// freeChannel returns the lowest idle channel index, or -1
func (e *Engine) freeChannel() int {
	for i, ch := range e.channels {
		if ch == nil {
			return i
		}
	}
	return -1
}

func (e *Engine) effective(track api.TrackSpec) float64 {
	return track.Volume * e.mainVolume
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return api.DefaultTrackVolume
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
