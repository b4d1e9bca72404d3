package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/soundscape/internal/scene"
	"github.com/jscyril/soundscape/internal/ui/components"
)

// ChangeSceneMsg asks the app to switch to a scene picked from the list
type ChangeSceneMsg struct {
	Name string
}

// ScenesView lists the available scenes
type ScenesView struct {
	Width       int
	Height      int
	List        components.List
	BorderStyle lipgloss.Style
}

// NewScenesView creates a new scenes view
func NewScenesView(width, height int) ScenesView {
	list := components.NewList(height-4, width-6)
	list.Title = "Scenes"
	list.Empty = "No scenes loaded"

	return ScenesView{
		Width:  width,
		Height: height,
		List:   list,
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

// SetScenes fills the list from the manager and marks the active scene
func (v *ScenesView) SetScenes(m *scene.Manager) {
	current := ""
	if active, ok := m.Active(); ok {
		current = active.Name
	}

	names := m.ListScenes()
	items := make([]components.Item, 0, len(names))
	for _, name := range names {
		desc, _ := m.GetDescription(name)
		items = append(items, components.Item{
			Title:  name,
			Detail: desc,
			Marked: name == current,
		})
	}
	v.List.SetItems(items)
}

// Resize updates the view dimensions
func (v *ScenesView) Resize(width, height int) {
	v.Width = width
	v.Height = height
	v.List.Width = width - 6
	v.List.Height = height - 4
}

// Update handles messages
func (v ScenesView) Update(msg tea.Msg) (ScenesView, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		item, ok := v.List.SelectedItem()
		if !ok {
			return v, nil
		}
		return v, func() tea.Msg { return ChangeSceneMsg{Name: item.Title} }
	}

	var cmd tea.Cmd
	v.List, cmd = v.List.Update(msg)
	return v, cmd
}

// View renders the scenes view
func (v ScenesView) View() string {
	return v.BorderStyle.Width(max(0, v.Width-4)).Render(v.List.View())
}
