package ui

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jscyril/soundscape/api"
	"github.com/jscyril/soundscape/internal/audio"
	"github.com/jscyril/soundscape/internal/scene"
	"github.com/jscyril/soundscape/internal/session"
	"github.com/jscyril/soundscape/internal/ui/components"
	"github.com/jscyril/soundscape/internal/ui/views"
)

// fakePlayer plays every track it is given
type fakePlayer struct {
	main    int
	playing []api.PlayingTrack
}

func (p *fakePlayer) PlayTracks(tracks []api.TrackSpec) audio.BatchResult {
	var result audio.BatchResult
	for _, tr := range tracks {
		h := api.PlaybackHandle{Channel: len(p.playing), Token: uuid.New()}
		p.playing = append(p.playing, api.PlayingTrack{
			Handle:          h,
			Track:           tr,
			EffectiveVolume: tr.Volume * float64(p.main) / 100,
		})
		result.Handles = append(result.Handles, h)
	}
	return result
}

func (p *fakePlayer) StopAll()                    { p.playing = nil }
func (p *fakePlayer) SetMainVolume(percent int)   { p.main = max(0, min(100, percent)) }
func (p *fakePlayer) MainVolumePercent() int      { return p.main }
func (p *fakePlayer) Playing() []api.PlayingTrack { return p.playing }

const scenesYAML = `
scenes:
  rain:
    description: Soft rain on a tin roof
    tracks:
      - path: rain.wav
        volume: 0.8
      - path: thunder.wav
        volume: 0.5
  forest:
    tracks:
      - path: birds.ogg
`

func newTestModel(t *testing.T) (Model, *session.Session) {
	t.Helper()
	cat, err := scene.Parse([]byte(scenesYAML))
	require.NoError(t, err)

	s := session.New(scene.NewManager(cat), &fakePlayer{main: 100}, nil, log.New(io.Discard))
	return NewModel(s, nil, nil), s
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_SubmitChangesScene(t *testing.T) {
	m, s := newTestModel(t)

	m, cmd := update(t, m, components.SubmitMsg{Line: "change rain"})
	assert.Nil(t, cmd)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "rain", active.Scene.Name)
	assert.Len(t, active.Handles, 2)

	view := m.View()
	assert.Contains(t, view, "rain")
	assert.Contains(t, view, "Soft rain on a tin roof")
	assert.Contains(t, view, "playing scene rain")
}

func TestModel_VolumeCommand(t *testing.T) {
	m, s := newTestModel(t)

	m, _ = update(t, m, components.SubmitMsg{Line: "40"})
	assert.Equal(t, 40, s.Player().MainVolumePercent())
	assert.Equal(t, 40, m.sceneView.MainVolume)
	assert.Contains(t, m.View(), "main volume 40%")
}

func TestModel_UnknownSceneShowsError(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, components.SubmitMsg{Line: "change desert"})
	require.Error(t, m.err)
	assert.Contains(t, m.View(), `scene "desert" not found`)
}

func TestModel_QuitCommand(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := update(t, m, components.SubmitMsg{Line: "q"})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_EnterSubmitsInput(t *testing.T) {
	m, _ := newTestModel(t)

	for _, r := range "list" {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, components.SubmitMsg{Line: "list"}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestModel_PickSceneFromList(t *testing.T) {
	m, s := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FocusScenes, m.focus)

	// Scenes are listed in file order: rain, forest
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, views.ChangeSceneMsg{Name: "forest"}, msg)

	m, _ = update(t, m, msg)
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "forest", active.Scene.Name)

	item, ok := m.scenesView.List.SelectedItem()
	require.True(t, ok)
	assert.True(t, item.Marked)
}

func TestModel_ReloadWithoutSource(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, ReloadMsg{})
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, session.ErrNoLoader)
}

func TestModel_EventUpdatesStatus(t *testing.T) {
	events := make(chan api.AudioEvent, 1)
	m, _ := newTestModel(t)
	m.events = events

	m, cmd := update(t, m, EventMsg(api.AudioEvent{Type: api.EventVolumeChanged, Volume: 0.5}))
	assert.Equal(t, "main volume 50%", m.status)
	require.NotNil(t, cmd)

	events <- api.AudioEvent{Type: api.EventStopped}
	assert.Equal(t, EventMsg(api.AudioEvent{Type: api.EventStopped}), cmd())
}

func TestDescribeEvent(t *testing.T) {
	handle := api.PlaybackHandle{Channel: 1, Token: uuid.New()}
	track := api.TrackSpec{Path: "sounds/rain.wav", Volume: 0.8, Loop: true}

	tests := []struct {
		event api.AudioEvent
		want  string
	}{
		{api.AudioEvent{Type: api.EventTrackStarted, Handle: handle, Track: track, Volume: 0.4}, "started rain.wav at 0.40"},
		{api.AudioEvent{Type: api.EventTrackEnded, Handle: handle, Track: track}, "ended rain.wav"},
		{api.AudioEvent{Type: api.EventTrackFailed, Track: track, Err: errors.New("boom")}, "failed rain.wav: boom"},
		{api.AudioEvent{Type: api.EventVolumeChanged, Handle: handle, Track: track, Volume: 0.25}, "rain.wav volume 0.25"},
		{api.AudioEvent{Type: api.EventStopped}, "playback stopped"},
		{api.AudioEvent{Type: api.EventStopped, Handle: handle, Track: track}, "stopped rain.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, describeEvent(tt.event))
		})
	}
}
