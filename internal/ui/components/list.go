package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Item is one row of a List
type Item struct {
	Title  string
	Detail string
	Marked bool
}

// List represents a scrollable list of named items
type List struct {
	Items         []Item
	Selected      int
	Height        int
	Width         int
	Offset        int
	Title         string
	Empty         string
	SelectedStyle lipgloss.Style
	NormalStyle   lipgloss.Style
	DetailStyle   lipgloss.Style
	TitleStyle    lipgloss.Style
}

// NewList creates a new list
func NewList(height, width int) List {
	return List{
		Items:    make([]Item, 0),
		Selected: 0,
		Height:   height,
		Width:    width,
		Offset:   0,
		Empty:    "Nothing here",
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		DetailStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
	}
}

// SetItems replaces the items, keeping the selection on the same title when it still exists
func (l *List) SetItems(items []Item) {
	current := ""
	if item, ok := l.SelectedItem(); ok {
		current = item.Title
	}

	l.Items = items
	l.Selected = 0
	l.Offset = 0
	for i, item := range items {
		if item.Title == current {
			l.Selected = i
			break
		}
	}
	l.ensureVisible()
}

// Update handles messages for the list
func (l List) Update(msg tea.Msg) (List, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home":
			l.Selected = 0
			l.Offset = 0
		case "end":
			if len(l.Items) > 0 {
				l.Selected = len(l.Items) - 1
				l.ensureVisible()
			}
		case "pgup":
			l.PageUp()
		case "pgdown":
			l.PageDown()
		}
	}
	return l, nil
}

// MoveUp moves selection up
func (l *List) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
		l.ensureVisible()
	}
}

// MoveDown moves selection down
func (l *List) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
		l.ensureVisible()
	}
}

// PageUp moves selection up by a page
func (l *List) PageUp() {
	l.Selected -= l.visibleHeight()
	if l.Selected < 0 {
		l.Selected = 0
	}
	l.ensureVisible()
}

// PageDown moves selection down by a page
func (l *List) PageDown() {
	l.Selected += l.visibleHeight()
	if l.Selected >= len(l.Items) {
		l.Selected = len(l.Items) - 1
	}
	if l.Selected < 0 {
		l.Selected = 0
	}
	l.ensureVisible()
}

func (l *List) visibleHeight() int {
	// Account for title and counter
	return max(1, l.Height-2)
}

// ensureVisible ensures the selected item is visible
func (l *List) ensureVisible() {
	visibleHeight := l.visibleHeight()
	if l.Selected < l.Offset {
		l.Offset = l.Selected
	} else if l.Selected >= l.Offset+visibleHeight {
		l.Offset = l.Selected - visibleHeight + 1
	}
}

// SelectedItem returns the currently selected item
func (l *List) SelectedItem() (Item, bool) {
	if l.Selected >= 0 && l.Selected < len(l.Items) {
		return l.Items[l.Selected], true
	}
	return Item{}, false
}

// View renders the list
func (l List) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}

	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render(l.Empty))
		return sb.String()
	}

	visibleHeight := l.visibleHeight()
	end := min(l.Offset+visibleHeight, len(l.Items))

	for i := l.Offset; i < end; i++ {
		item := l.Items[i]
		marker := "  "
		if item.Marked {
			marker = "▶ "
		}

		line := marker + item.Title
		if item.Detail != "" {
			line += "  " + item.Detail
		}
		line = Truncate(line, l.Width-2)

		if i == l.Selected {
			sb.WriteString(l.SelectedStyle.Render(line))
		} else {
			sb.WriteString(l.NormalStyle.Render(line))
		}

		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(l.Items) > visibleHeight {
		sb.WriteString("\n")
		sb.WriteString(l.DetailStyle.Render(fmt.Sprintf("  [%d/%d]", l.Selected+1, len(l.Items))))
	}

	return sb.String()
}

// Truncate shortens s to fit width terminal cells
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
