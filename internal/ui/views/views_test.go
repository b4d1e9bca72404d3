package views

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jscyril/soundscape/api"
	"github.com/jscyril/soundscape/internal/scene"
	"github.com/jscyril/soundscape/internal/session"
)

func TestSceneView_Idle(t *testing.T) {
	v := NewSceneView(80, 12)
	assert.Contains(t, v.View(), "No scene playing")
}

func TestSceneView_Tracks(t *testing.T) {
	v := NewSceneView(100, 12)
	v.Name = "rain"
	v.Description = "Steady rain"
	v.MainVolume = 50
	v.Tracks = []session.TrackStatus{
		{Index: 0, Track: api.TrackSpec{Path: "rain.ogg", Volume: 0.8}, Playing: true, EffectiveVolume: 0.4},
		{Index: 1, Track: api.TrackSpec{Path: "", Volume: 1}, Err: errors.New("empty path")},
		{Index: 2, Track: api.TrackSpec{Path: "wind.wav", Volume: 1}},
	}

	view := v.View()
	assert.Contains(t, view, "♪ rain")
	assert.Contains(t, view, "Steady rain")
	assert.Contains(t, view, " 50%")
	assert.Contains(t, view, "▶ 0.40")
	assert.Contains(t, view, "(no path)")
	assert.Contains(t, view, "✗ failed")
	assert.Contains(t, view, "⏹ stopped")
}

func TestSceneView_EmptyScene(t *testing.T) {
	v := NewSceneView(80, 12)
	v.Name = "silence"
	assert.Contains(t, v.View(), "(no tracks)")
}

func TestScenesView_EnterChangesScene(t *testing.T) {
	cat, err := scene.Parse([]byte("scenes:\n  rain:\n    description: wet\n  forest:\n"))
	require.NoError(t, err)
	m := scene.NewManager(cat)
	require.NoError(t, m.Activate("forest"))

	v := NewScenesView(60, 10)
	v.SetScenes(m)
	require.Len(t, v.List.Items, 2)
	assert.Equal(t, "wet", v.List.Items[0].Detail)
	assert.True(t, v.List.Items[1].Marked)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ChangeSceneMsg{Name: "forest"}, cmd())
}

func TestScenesView_EnterOnEmptyList(t *testing.T) {
	v := NewScenesView(60, 10)
	v.SetScenes(scene.NewManager(nil))
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, v.View(), "No scenes loaded")
}
