package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jscyril/soundscape/api"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const rainYAML = `
scenes:
  rain:
    description: Steady rain on a tin roof
    tracks:
      - path: rain.wav
        volume: 0.8
      - path: thunder.wav
  forest:
    tracks:
      - path: birds.ogg
        volume: 0.3
        loop: false
`

func TestParse_RainScenario(t *testing.T) {
	cat, err := Parse([]byte(rainYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"rain", "forest"}, cat.Names())

	rain, ok := cat.Scene("rain")
	require.True(t, ok)
	assert.Equal(t, "Steady rain on a tin roof", rain.Description)
	assert.Equal(t, []api.TrackSpec{
		{Path: "rain.wav", Volume: 0.8, Loop: true},
		{Path: "thunder.wav", Volume: 1.0, Loop: true},
	}, rain.Tracks)

	forest, ok := cat.Scene("forest")
	require.True(t, ok)
	assert.False(t, forest.Tracks[0].Loop)
	assert.Empty(t, cat.Warnings())
}

func TestParse_EmptyDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"comment only", "# nothing here\n"},
		{"null", "~\n"},
		{"no scenes key", "other: 1\n"},
		{"null scenes", "scenes:\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, 0, cat.Len())
		})
	}
}

func TestParse_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"invalid yaml", "scenes: [unclosed\n"},
		{"top level list", "- a\n- b\n"},
		{"top level scalar", "hello\n"},
		{"scenes list", "scenes:\n  - rain\n"},
		{"scene scalar", "scenes:\n  rain: loud\n"},
		{"tracks mapping", "scenes:\n  rain:\n    tracks:\n      path: a.wav\n"},
		{"duplicate scene", "scenes:\n  rain: {}\n  rain: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, playerrors.ErrConfigStructure), "got %v", err)
		})
	}
}

func TestParse_RepairsTrackFields(t *testing.T) {
	doc := `
scenes:
  broken:
    tracks:
      - volume: 0.5
      - path: 42
      - path: "  wind.wav  "
        volume: 1.5
      - path: fire.wav
        volume: loud
      - path: sea.wav
        volume: "0.25"
      - just a string
      - path: owl.wav
        loop: sometimes
      - path: ""
`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)

	s, ok := cat.Scene("broken")
	require.True(t, ok)
	require.Len(t, s.Tracks, 8)

	assert.Equal(t, api.TrackSpec{Path: "", Volume: 0.5, Loop: true}, s.Tracks[0])
	assert.Equal(t, "", s.Tracks[1].Path)
	assert.Equal(t, api.TrackSpec{Path: "wind.wav", Volume: 1.0, Loop: true}, s.Tracks[2])
	assert.Equal(t, 1.0, s.Tracks[3].Volume)
	assert.Equal(t, 0.25, s.Tracks[4].Volume)
	assert.Equal(t, api.TrackSpec{Volume: 1.0, Loop: true}, s.Tracks[5])
	assert.True(t, s.Tracks[6].Loop)
	assert.Equal(t, "", s.Tracks[7].Path)

	fields := make([]string, 0, len(cat.Warnings()))
	for _, w := range cat.Warnings() {
		assert.Equal(t, "broken", w.Scene)
		fields = append(fields, fmt.Sprintf("%d:%s", w.Track, w.Field))
	}
	assert.Equal(t, []string{"0:path", "1:path", "2:volume", "3:volume", "5:entry", "6:loop", "7:path"}, fields)
}

func TestParse_AliasesResolve(t *testing.T) {
	doc := `
base: &base
  - path: hum.wav
    volume: 0.2
scenes:
  night:
    tracks: *base
`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)

	s, ok := cat.Scene("night")
	require.True(t, ok)
	assert.Equal(t, []api.TrackSpec{{Path: "hum.wav", Volume: 0.2, Loop: true}}, s.Tracks)
}

func TestParse_MergeKeyInheritsTracks(t *testing.T) {
	doc := "base: &b\n  tracks:\n    - path: a.wav\nscenes:\n  x:\n    <<: *b\n"
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)

	s, ok := cat.Scene("x")
	require.True(t, ok)
	assert.Equal(t, []api.TrackSpec{{Path: "a.wav", Volume: 1, Loop: true}}, s.Tracks)
	assert.Empty(t, cat.Warnings())
}

func TestParse_MergePrecedence(t *testing.T) {
	doc := `
quiet: &quiet
  description: quiet base
  tracks:
    - path: hum.wav
      volume: 0.1
loud: &loud
  description: loud base
  tracks:
    - path: roar.wav
soft: &soft
  volume: 0.25
  loop: false
scenes:
  night:
    <<: [*quiet, *loud]
  storm:
    <<: *loud
    description: own description
  drip:
    tracks:
      - <<: *soft
        path: drip.wav
      - <<: *soft
        path: tap.wav
        volume: 0.5
`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, cat.Warnings())

	night, _ := cat.Scene("night")
	assert.Equal(t, "quiet base", night.Description, "earlier merged mapping wins")
	assert.Equal(t, []api.TrackSpec{{Path: "hum.wav", Volume: 0.1, Loop: true}}, night.Tracks)

	storm, _ := cat.Scene("storm")
	assert.Equal(t, "own description", storm.Description, "explicit key wins")
	assert.Equal(t, []api.TrackSpec{{Path: "roar.wav", Volume: 1, Loop: true}}, storm.Tracks)

	drip, _ := cat.Scene("drip")
	assert.Equal(t, []api.TrackSpec{
		{Path: "drip.wav", Volume: 0.25, Loop: false},
		{Path: "tap.wav", Volume: 0.5, Loop: false},
	}, drip.Tracks)
}

func TestParse_MergeSceneTable(t *testing.T) {
	doc := `
shared: &shared
  lobby:
    tracks:
      - path: crowd.wav
  rain:
    description: shared rain
scenes:
  <<: *shared
  rain:
    description: local rain
`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"lobby", "rain"}, cat.Names())

	rain, _ := cat.Scene("rain")
	assert.Equal(t, "local rain", rain.Description)
}

func TestParse_QuotedMergeKeyIsLiteral(t *testing.T) {
	cat, err := Parse([]byte("scenes:\n  \"<<\":\n    description: odd name\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"<<"}, cat.Names())
}

func TestParse_InvalidMerge(t *testing.T) {
	_, err := Parse([]byte("scenes:\n  x:\n    <<: plain\n"))
	var cfgErr *playerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 3, cfgErr.Line)

	cat, err := Parse([]byte("scenes:\n  x:\n    tracks:\n      - <<: [1]\n        path: a.wav\n"))
	require.NoError(t, err)
	x, _ := cat.Scene("x")
	require.Len(t, x.Tracks, 1)
	assert.Empty(t, x.Tracks[0].Path)
	require.Len(t, cat.Warnings(), 1)
	assert.Equal(t, "entry", cat.Warnings()[0].Field)
}

func TestParse_NullSceneHasNoTracks(t *testing.T) {
	cat, err := Parse([]byte("scenes:\n  silence:\n"))
	require.NoError(t, err)

	s, ok := cat.Scene("silence")
	require.True(t, ok)
	assert.NotNil(t, s.Tracks)
	assert.Empty(t, s.Tracks)
}

func TestCatalog_SceneIsCopy(t *testing.T) {
	cat, err := Parse([]byte(rainYAML))
	require.NoError(t, err)

	s, _ := cat.Scene("rain")
	s.Tracks[0].Volume = 0.1

	again, _ := cat.Scene("rain")
	assert.Equal(t, 0.8, again.Tracks[0].Volume)
}

func TestLoadFile_MissingIsEmpty(t *testing.T) {
	cat, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
}

func TestLoadFile_ErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenes:\n  - bad\n"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)

	var cfgErr *playerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Path)
	assert.Equal(t, 2, cfgErr.Line)
	assert.Contains(t, err.Error(), path)
}

func TestStore_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rainYAML), 0644))

	store := NewStore(path, log.New(os.Stderr))
	assert.Equal(t, path, store.Path())

	cat, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	assert.Equal(t, DefaultPath, NewStore("", log.New(os.Stderr)).Path())
}

func TestProperty_OutOfRangeVolumeNormalizesToOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.OneOf(
			rapid.Float64Range(1.0000001, 1e9),
			rapid.Float64Range(-1e9, -0.0000001),
		).Draw(t, "volume")

		doc := fmt.Sprintf("scenes:\n  s:\n    tracks:\n      - path: a.wav\n        volume: %g\n", v)
		cat, err := Parse([]byte(doc))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		s, _ := cat.Scene("s")
		if s.Tracks[0].Volume != 1.0 {
			t.Fatalf("volume %g normalized to %g, want 1.0", v, s.Tracks[0].Volume)
		}
	})
}

func TestProperty_InRangeVolumeKept(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(0, 1).Draw(t, "volume")
		if NormalizeVolume(v) != v {
			t.Fatalf("NormalizeVolume(%g) changed a valid volume", v)
		}
	})
}

func TestNormalizeVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.4, 0.4},
		{1, 1},
		{-0.01, 1},
		{1.01, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeVolume(tt.in), "NormalizeVolume(%g)", tt.in)
	}
}
