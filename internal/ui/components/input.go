package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmitMsg carries a line entered in a CommandInput
type SubmitMsg struct {
	Line string
}

// CommandInput is a single-line prompt submitting on enter
type CommandInput struct {
	input      textinput.Model
	history    []string
	recall     int
	Style      lipgloss.Style
	FocusStyle lipgloss.Style
}

// NewCommandInput creates a new command input
func NewCommandInput(width int) CommandInput {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "volume, list, change <scene>, q"
	ti.CharLimit = 256
	ti.Width = max(10, width-4)

	return CommandInput{
		input: ti,
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		FocusStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1),
	}
}

// Focus sets focus on the input
func (c *CommandInput) Focus() tea.Cmd {
	return c.input.Focus()
}

// Blur removes focus from the input
func (c *CommandInput) Blur() {
	c.input.Blur()
}

// Focused reports whether the input has focus
func (c CommandInput) Focused() bool {
	return c.input.Focused()
}

// Value returns the text typed so far
func (c CommandInput) Value() string {
	return c.input.Value()
}

// SetWidth resizes the input
func (c *CommandInput) SetWidth(width int) {
	c.input.Width = max(10, width-4)
}

// Update handles messages for the command input.
// Enter clears the line and returns a SubmitMsg command; up and down recall history.
func (c CommandInput) Update(msg tea.Msg) (CommandInput, tea.Cmd) {
	if !c.input.Focused() {
		return c, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			line := c.input.Value()
			c.input.Reset()
			if line != "" {
				c.history = append(c.history, line)
			}
			c.recall = len(c.history)
			return c, func() tea.Msg { return SubmitMsg{Line: line} }

		case tea.KeyUp:
			if c.recall > 0 {
				c.recall--
				c.input.SetValue(c.history[c.recall])
				c.input.CursorEnd()
			}
			return c, nil

		case tea.KeyDown:
			if c.recall < len(c.history)-1 {
				c.recall++
				c.input.SetValue(c.history[c.recall])
				c.input.CursorEnd()
			} else {
				c.recall = len(c.history)
				c.input.Reset()
			}
			return c, nil
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the command input
func (c CommandInput) View() string {
	if c.input.Focused() {
		return c.FocusStyle.Render(c.input.View())
	}
	return c.Style.Render(c.input.View())
}
