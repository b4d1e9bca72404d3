package audio

// Sound is a resolved, ready-to-play audio resource
type Sound interface {
	Path() string
}

// Voice is one sound currently playing on a channel
type Voice interface {
	SetVolume(volume float64)
	Stop()
}

// Backend performs the actual decoding and output.
// onEnd is called from a backend goroutine when a non-looping sound finishes;
// it is not called after Stop.
type Backend interface {
	Load(path string) (Sound, error)
	Play(sound Sound, volume float64, loop bool, onEnd func()) (Voice, error)
	Close() error
}
