package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
)

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// decoders maps a lower-case file extension to its beep decoder
var decoders = map[string]decodeFunc{
	".mp3":  mp3.Decode,
	".ogg":  vorbis.Decode,
	".wav":  func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(r) },
	".flac": func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(r) },
}

// SupportedFormats returns the playable file extensions
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg"}
}

// IsSupported reports whether the extension of path has a decoder
func IsSupported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// CheckFile applies the checks OpenSound makes before decoding. The path
// must be set and name a regular file with a supported extension.
// Errors wrap ErrResourceLoad, and ErrInvalidFormat for an unknown extension.
func CheckFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", playerrors.ErrResourceLoad)
	}
	if !IsSupported(path) {
		return fmt.Errorf("%w: %w: %q", playerrors.ErrResourceLoad, playerrors.ErrInvalidFormat, filepath.Ext(path))
	}

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", playerrors.ErrResourceLoad, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%w: %s is a directory", playerrors.ErrResourceLoad, path)
	}
	return nil
}

// OpenSound checks and decodes the file at path. The caller closes the streamer.
func OpenSound(path string) (beep.StreamSeekCloser, beep.Format, error) {
	if err := CheckFile(path); err != nil {
		return nil, beep.Format{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", playerrors.ErrResourceLoad, err)
	}

	streamer, format, err := DecodeAudio(file, path)
	if err != nil {
		file.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: decode %s: %w", playerrors.ErrResourceLoad, filepath.Base(path), err)
	}
	return streamer, format, nil
}

// DecodeAudio decodes r with the decoder for the extension of path
func DecodeAudio(r io.ReadCloser, path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, beep.Format{}, fmt.Errorf("%w: %q", playerrors.ErrInvalidFormat, ext)
	}
	return decode(r)
}
