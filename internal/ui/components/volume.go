package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// VolumeBar renders a 0..1 level as a horizontal bar
type VolumeBar struct {
	Width       int
	Level       float64
	BarChar     string
	EmptyChar   string
	ShowPercent bool
	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
}

// NewVolumeBar creates a new volume bar
func NewVolumeBar(width int) VolumeBar {
	return VolumeBar{
		Width:       width,
		BarChar:     "█",
		EmptyChar:   "░",
		ShowPercent: true,
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Filled returns the number of filled cells for the current level
func (b VolumeBar) Filled() int {
	level := b.Level
	if math.IsNaN(level) || level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	return int(math.Round(float64(b.Width) * level))
}

// View renders the volume bar
func (b VolumeBar) View() string {
	var sb strings.Builder

	filled := b.Filled()
	sb.WriteString(b.FilledStyle.Render(strings.Repeat(b.BarChar, filled)))
	sb.WriteString(b.EmptyStyle.Render(strings.Repeat(b.EmptyChar, b.Width-filled)))

	if b.ShowPercent {
		fmt.Fprintf(&sb, " %3d%%", int(math.Round(b.Level*100)))
	}
	return sb.String()
}
