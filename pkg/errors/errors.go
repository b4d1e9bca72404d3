package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrConfigStructure  = errors.New("malformed configuration")
	ErrSceneNotFound    = errors.New("scene not found")
	ErrChannelExhausted = errors.New("no free playback channel")
	ErrResourceLoad     = errors.New("audio resource could not be loaded")
	ErrInvalidFormat    = errors.New("unsupported audio format")
	ErrUnsupported      = errors.New("operation not supported")
	ErrAudioInit        = errors.New("audio subsystem initialization failed")
	ErrHandleNotFound   = errors.New("playback handle is not playing")
	ErrEngineClosed     = errors.New("audio engine is closed")
)

// PlayerError wraps errors with additional context
type PlayerError struct {
	Op    string // Operation that failed
	Track string // Track path if applicable
	Err   error  // Underlying error
}

func (e *PlayerError) Error() string {
	if e.Track != "" {
		return fmt.Sprintf("%s failed for track %s: %v", e.Op, e.Track, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// NewPlayerError creates a new PlayerError
func NewPlayerError(op, track string, err error) *PlayerError {
	return &PlayerError{Op: op, Track: track, Err: err}
}

// ConfigError reports a structural problem in a scene file.
// It always matches ErrConfigStructure with errors.Is.
type ConfigError struct {
	Path string
	Line int
	Err  error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigStructure
}

// NewConfigError creates a ConfigError for the given source line
func NewConfigError(line int, format string, args ...any) *ConfigError {
	return &ConfigError{Line: line, Err: fmt.Errorf(format, args...)}
}

// SceneError reports a scene lookup failure
type SceneError struct {
	Name string
}

func (e *SceneError) Error() string {
	return fmt.Sprintf("scene %q not found", e.Name)
}

func (e *SceneError) Is(target error) bool {
	return target == ErrSceneNotFound
}

// TrackWarning records a track field that was repaired while loading.
// It is informational, never returned as an error.
type TrackWarning struct {
	Scene  string
	Track  int
	Field  string
	Reason string
}

func (w TrackWarning) String() string {
	return fmt.Sprintf("scene %q track %d: %s %s", w.Scene, w.Track, w.Field, w.Reason)
}
