// Package ui is the interactive terminal front end.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/soundscape/api"
	"github.com/jscyril/soundscape/internal/control"
	"github.com/jscyril/soundscape/internal/session"
	"github.com/jscyril/soundscape/internal/ui/components"
	"github.com/jscyril/soundscape/internal/ui/views"
)

// Focus is the part of the screen receiving keys
type Focus int

const (
	FocusInput Focus = iota
	FocusScenes
)

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	focus Focus

	// Views
	sceneView  views.SceneView
	scenesView views.ScenesView
	input      components.CommandInput

	session *session.Session
	events  <-chan api.AudioEvent
	reloads <-chan struct{}

	// State
	output []string
	status string
	err    error

	// Styles
	outputStyle lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
}

// EventMsg wraps an engine event
type EventMsg api.AudioEvent

// ReloadMsg is sent when the scene file changed on disk
type ReloadMsg struct{}

// NewModel creates a new application model.
// events and reloads may be nil.
func NewModel(s *session.Session, events <-chan api.AudioEvent, reloads <-chan struct{}) Model {
	m := Model{
		width:   80,
		height:  24,
		focus:   FocusInput,
		session: s,
		events:  events,
		reloads: reloads,
		outputStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Padding(0, 1),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1),
	}

	m.sceneView = views.NewSceneView(m.width, m.height/2)
	m.scenesView = views.NewScenesView(m.width, m.height/3)
	m.input = components.NewCommandInput(m.width)
	m.input.Focus()
	m.refresh()

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.listenForEvents(),
		m.listenForReloads(),
	)
}

// listenForEvents returns a command that waits for the next engine event
func (m Model) listenForEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg(event)
	}
}

// listenForReloads returns a command that waits for the next scene file change
func (m Model) listenForReloads() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	reloads := m.reloads
	return func() tea.Msg {
		if _, ok := <-reloads; !ok {
			return nil
		}
		return ReloadMsg{}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()
		return m, nil

	case EventMsg:
		m.status = describeEvent(api.AudioEvent(msg))
		m.refresh()
		return m, m.listenForEvents()

	case ReloadMsg:
		return m.apply(m.session.Execute(control.Command{Kind: control.CmdReload})), m.listenForReloads()

	case components.SubmitMsg:
		return m.run(m.session.ExecuteLine(msg.Line))

	case views.ChangeSceneMsg:
		return m.run(m.session.Execute(control.Command{Kind: control.CmdChange, Scene: msg.Name}))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.session.Close()
			return m, tea.Quit
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		}

		if m.focus == FocusScenes {
			if msg.String() == "q" {
				m.session.Close()
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.scenesView, cmd = m.scenesView.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) run(r session.Result) (tea.Model, tea.Cmd) {
	m = m.apply(r)
	if r.Quit {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) apply(r session.Result) Model {
	m.output = r.Lines
	m.err = r.Err
	m.refresh()
	return m
}

func (m *Model) toggleFocus() {
	if m.focus == FocusInput {
		m.focus = FocusScenes
		m.input.Blur()
		return
	}
	m.focus = FocusInput
	m.input.Focus()
}

// refresh pulls the current session state into the views
func (m *Model) refresh() {
	m.sceneView.SetState(m.session)
	m.scenesView.SetScenes(m.session.Scenes())
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	m.sceneView.Width = m.width
	m.sceneView.Height = m.height / 2
	m.scenesView.Resize(m.width, max(6, m.height/3))
	m.input.SetWidth(m.width)
}

// View renders the UI
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.sceneView.View())
	sb.WriteString("\n")
	sb.WriteString(m.scenesView.View())
	sb.WriteString("\n")

	for _, line := range m.output {
		sb.WriteString(m.outputStyle.Render(components.Truncate(line, m.width-2)))
		sb.WriteString("\n")
	}
	if m.err != nil {
		sb.WriteString(m.errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	}

	sb.WriteString(m.input.View())
	if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(m.statusStyle.Render(m.status))
	}

	return sb.String()
}

func describeEvent(e api.AudioEvent) string {
	name := filepath.Base(e.Track.Path)
	switch e.Type {
	case api.EventTrackStarted:
		return fmt.Sprintf("started %s at %.2f", name, e.Volume)
	case api.EventTrackEnded:
		return "ended " + name
	case api.EventTrackFailed:
		return fmt.Sprintf("failed %s: %v", name, e.Err)
	case api.EventVolumeChanged:
		if e.Handle.IsZero() {
			return fmt.Sprintf("main volume %.0f%%", e.Volume*100)
		}
		return fmt.Sprintf("%s volume %.2f", name, e.Volume)
	case api.EventStopped:
		if e.Handle.IsZero() {
			return "playback stopped"
		}
		return "stopped " + name
	}
	return e.Type.String()
}

// Run starts the bubbletea program and blocks until it exits or ctx is done
func Run(ctx context.Context, s *session.Session, events <-chan api.AudioEvent, reloads <-chan struct{}) error {
	model := NewModel(s, events, reloads)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
