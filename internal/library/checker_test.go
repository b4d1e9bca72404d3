package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jscyril/soundscape/api"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0644))
	return path
}

func TestChecker_Check(t *testing.T) {
	dir := t.TempDir()
	rain := touch(t, dir, "rain.wav")
	notes := touch(t, dir, "notes.txt")
	sub := filepath.Join(dir, "drums.mp3")
	require.NoError(t, os.Mkdir(sub, 0755))

	scenes := []api.Scene{
		{Name: "rain", Tracks: []api.TrackSpec{
			{Path: rain, Volume: 0.8, Loop: true},
			{Path: filepath.Join(dir, "missing.ogg"), Volume: 1, Loop: true},
		}},
		{Name: "odd", Tracks: []api.TrackSpec{
			{Path: "", Volume: 1},
			{Path: notes, Volume: 1},
			{Path: sub, Volume: 1},
		}},
	}

	reports, err := NewChecker(2).Check(context.Background(), scenes)
	require.NoError(t, err)
	require.Len(t, reports, 5)

	assert.Equal(t, "rain", reports[0].Scene)
	assert.Equal(t, 0, reports[0].Index)
	assert.True(t, reports[0].OK())
	require.NotNil(t, reports[0].Info)
	assert.Equal(t, "rain", reports[0].Info.Title)
	assert.Equal(t, "wav", reports[0].Info.Format)
	assert.False(t, reports[0].Info.Tagged)

	assert.ErrorIs(t, reports[1].Err, playerrors.ErrResourceLoad)

	assert.Equal(t, "odd", reports[2].Scene)
	assert.ErrorIs(t, reports[2].Err, playerrors.ErrResourceLoad)
	assert.ErrorIs(t, reports[3].Err, playerrors.ErrInvalidFormat)
	assert.ErrorIs(t, reports[4].Err, playerrors.ErrResourceLoad)
	assert.Equal(t, 2, reports[4].Index)
}

func TestChecker_Empty(t *testing.T) {
	reports, err := NewChecker(0).Check(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestChecker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenes := []api.Scene{{Name: "rain", Tracks: []api.TrackSpec{{Path: "x.wav"}}}}
	_, err := NewChecker(1).Check(ctx, scenes)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetadataReader_Untagged(t *testing.T) {
	path := touch(t, t.TempDir(), "Night Birds.flac")

	info, err := NewMetadataReader().Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Night Birds", info.Title)
	assert.Equal(t, "flac", info.Format)
	assert.Empty(t, info.Artist)
}

func TestMetadataReader_Missing(t *testing.T) {
	_, err := NewMetadataReader().Read(filepath.Join(t.TempDir(), "gone.mp3"))
	assert.Error(t, err)
}

func TestGetOrDefault(t *testing.T) {
	assert.Equal(t, "a", getOrDefault("a", "b"))
	assert.Equal(t, "b", getOrDefault("", "b"))
}
