package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
	"github.com/patrickmn/go-cache"
)

// resampleQuality trades CPU for fidelity when a file's rate differs from the device
const resampleQuality = 4

// BeepConfig configures the speaker-backed backend
type BeepConfig struct {
	SampleRate int
	BufferSize time.Duration
	CacheTTL   time.Duration
}

// DefaultBeepConfig returns CD-rate output with a 100ms buffer
func DefaultBeepConfig() BeepConfig {
	return BeepConfig{
		SampleRate: 44100,
		BufferSize: 100 * time.Millisecond,
		CacheTTL:   10 * time.Minute,
	}
}

// BeepBackend plays sounds through the beep speaker.
// The speaker is process-wide, so only one BeepBackend may be open at a time.
type BeepBackend struct {
	sampleRate beep.SampleRate
	mixer      *beep.Mixer
	sounds     *cache.Cache
	logger     *log.Logger
	closeOnce  sync.Once
}

var _ Backend = (*BeepBackend)(nil)

// NewBeepBackend initializes the speaker and starts an empty mixer on it
func NewBeepBackend(cfg BeepConfig, logger *log.Logger) (*BeepBackend, error) {
	if cfg.SampleRate <= 0 || cfg.BufferSize <= 0 {
		return nil, playerrors.NewPlayerError("speaker_init", "", fmt.Errorf("%w: invalid sample rate or buffer size", playerrors.ErrAudioInit))
	}

	sr := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(sr, sr.N(cfg.BufferSize)); err != nil {
		return nil, playerrors.NewPlayerError("speaker_init", "", fmt.Errorf("%w: %v", playerrors.ErrAudioInit, err))
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	b := &BeepBackend{
		sampleRate: sr,
		mixer:      &beep.Mixer{},
		sounds:     cache.New(ttl, 2*ttl),
		logger:     logger,
	}
	speaker.Play(b.mixer)

	logger.Debug("speaker initialized", "sample_rate", cfg.SampleRate, "buffer", cfg.BufferSize)
	return b, nil
}

type beepSound struct {
	path   string
	buffer *beep.Buffer
}

func (s *beepSound) Path() string {
	return s.path
}

// Load decodes a file fully into memory, resampled to the device rate.
// Decoded sounds are cached by path.
func (b *BeepBackend) Load(path string) (Sound, error) {
	if cached, ok := b.sounds.Get(path); ok {
		return cached.(*beepSound), nil
	}

	streamer, format, err := OpenSound(path)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != b.sampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, b.sampleRate, streamer)
	}

	format.SampleRate = b.sampleRate
	buffer := beep.NewBuffer(format)
	buffer.Append(src)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", playerrors.ErrResourceLoad, err)
	}
	if buffer.Len() == 0 {
		return nil, fmt.Errorf("%w: no audio data", playerrors.ErrResourceLoad)
	}

	sound := &beepSound{path: path, buffer: buffer}
	b.sounds.Set(path, sound, cache.DefaultExpiration)
	b.logger.Debug("sound decoded", "path", path, "samples", buffer.Len())
	return sound, nil
}

type beepVoice struct {
	ctrl    *beep.Ctrl
	volume  *effects.Volume
	stopped bool
}

// setGain maps a linear 0..1 volume onto the base-2 exponent beep expects
func (v *beepVoice) setGain(volume float64) {
	if volume <= 0 {
		v.volume.Silent = true
		return
	}
	v.volume.Silent = false
	v.volume.Volume = math.Log2(volume)
}

func (v *beepVoice) SetVolume(volume float64) {
	speaker.Lock()
	v.setGain(volume)
	speaker.Unlock()
}

func (v *beepVoice) Stop() {
	speaker.Lock()
	v.stopped = true
	v.ctrl.Streamer = nil
	speaker.Unlock()
}

// Play adds the sound to the mixer
func (b *BeepBackend) Play(sound Sound, volume float64, loop bool, onEnd func()) (Voice, error) {
	s, ok := sound.(*beepSound)
	if !ok {
		return nil, fmt.Errorf("%w: sound %s was not loaded by this backend", playerrors.ErrResourceLoad, sound.Path())
	}

	var src beep.Streamer = s.buffer.Streamer(0, s.buffer.Len())
	if loop {
		src = beep.Loop(-1, s.buffer.Streamer(0, s.buffer.Len()))
	}

	v := &beepVoice{ctrl: &beep.Ctrl{Streamer: src}}
	v.volume = &effects.Volume{Streamer: v.ctrl, Base: 2}
	v.setGain(volume)

	// The callback runs with the speaker locked; onEnd must not run there
	done := beep.Callback(func() {
		if !v.stopped && onEnd != nil {
			go onEnd()
		}
	})

	speaker.Lock()
	b.mixer.Add(beep.Seq(v.volume, done))
	speaker.Unlock()
	return v, nil
}

// Close silences the mixer and releases the audio device
func (b *BeepBackend) Close() error {
	b.closeOnce.Do(func() {
		speaker.Lock()
		b.mixer.Clear()
		speaker.Unlock()
		speaker.Clear()
		speaker.Close()
		b.sounds.Flush()
	})
	return nil
}
