package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/soundscape/internal/session"
	"github.com/jscyril/soundscape/internal/ui/components"
)

// SceneView displays the active scene and the state of its tracks
type SceneView struct {
	Width       int
	Height      int
	Name        string
	Description string
	MainVolume  int
	Tracks      []session.TrackStatus

	// Styles
	TitleStyle    lipgloss.Style
	DescStyle     lipgloss.Style
	PlayingStyle  lipgloss.Style
	FailedStyle   lipgloss.Style
	StoppedStyle  lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewSceneView creates a new scene view
func NewSceneView(width, height int) SceneView {
	return SceneView{
		Width:      width,
		Height:     height,
		MainVolume: 100,
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		DescStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),
		PlayingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		FailedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		StoppedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetState refreshes the view from the session
func (v *SceneView) SetState(s *session.Session) {
	v.MainVolume = s.Player().MainVolumePercent()
	v.Tracks = s.TrackStatuses()

	active, ok := s.Active()
	if !ok {
		v.Name, v.Description = "", ""
		return
	}
	v.Name = active.Scene.Name
	v.Description = active.Scene.Description
}

// Update handles messages
func (v SceneView) Update(msg tea.Msg) (SceneView, tea.Cmd) {
	return v, nil
}

// View renders the scene view
func (v SceneView) View() string {
	var sb strings.Builder
	inner := max(20, v.Width-8)

	if v.Name == "" {
		sb.WriteString(v.TitleStyle.Render("♪ No scene playing"))
		sb.WriteString("\n")
		sb.WriteString(v.DescStyle.Render("Pick a scene and press Enter, or type change <scene>"))
	} else {
		sb.WriteString(v.TitleStyle.Render("♪ " + v.Name))
		if v.Description != "" {
			sb.WriteString("\n")
			sb.WriteString(v.DescStyle.Render(components.Truncate(v.Description, inner)))
		}
	}
	sb.WriteString("\n\n")

	mainBar := components.NewVolumeBar(20)
	mainBar.Level = float64(v.MainVolume) / 100
	sb.WriteString("Main  " + mainBar.View())

	if v.Name != "" && len(v.Tracks) == 0 {
		sb.WriteString("\n\n")
		sb.WriteString(v.StoppedStyle.Render("(no tracks)"))
	}
	if len(v.Tracks) > 0 {
		sb.WriteString("\n")
	}
	for _, st := range v.Tracks {
		sb.WriteString("\n")
		sb.WriteString(v.renderTrack(st, inner))
	}

	sb.WriteString("\n")
	sb.WriteString(v.ControlsStyle.Render(
		"[Tab] Focus  [Enter] Run/Change  [0-100] Volume  [q] Quit",
	))

	return v.BorderStyle.Width(max(0, v.Width-4)).Render(sb.String())
}

func (v SceneView) renderTrack(st session.TrackStatus, width int) string {
	bar := components.NewVolumeBar(10)
	bar.ShowPercent = false

	var state string
	switch {
	case st.Err != nil:
		state = v.FailedStyle.Render("✗ failed")
	case st.Playing:
		bar.Level = st.EffectiveVolume
		state = v.PlayingStyle.Render(fmt.Sprintf("▶ %.2f", st.EffectiveVolume))
	default:
		state = v.StoppedStyle.Render("⏹ stopped")
	}

	path := st.Track.Path
	if path == "" {
		path = "(no path)"
	}
	name := components.Truncate(path, max(8, width-32))
	return fmt.Sprintf("%2d. %s %s  %s", st.Index+1, bar.View(), state, name)
}
