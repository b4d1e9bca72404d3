// Package library inspects the audio files scenes refer to.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// TrackInfo is what the file tags say about a track
type TrackInfo struct {
	Title  string
	Artist string
	Album  string
	Format string
	Tagged bool
}

// MetadataReader extracts metadata from audio files
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// Read extracts metadata from an audio file.
// Untagged files are described by their file name.
func (r *MetadataReader) Read(filePath string) (*TrackInfo, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	base := filepath.Base(filePath)
	info := &TrackInfo{
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), "."),
	}

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return info, nil
	}

	info.Tagged = true
	info.Title = getOrDefault(metadata.Title(), info.Title)
	info.Artist = metadata.Artist()
	info.Album = metadata.Album()
	if ft := string(metadata.FileType()); ft != "" {
		info.Format = strings.ToLower(ft)
	}
	return info, nil
}

// getOrDefault returns the value if non-empty, otherwise returns the default
func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
