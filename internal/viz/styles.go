package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/placesim/internal/placement"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	ErrorText = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// status badges
var (
	badgePlaced   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	badgeOffered  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	badgeUnplaced = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	badgeOptedOut = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Badge renders a status with its colour.
func Badge(s placement.Status) string {
	switch s {
	case placement.StatusPlaced:
		return badgePlaced.Render(string(s))
	case placement.StatusOffered:
		return badgeOffered.Render(string(s))
	case placement.StatusOptedOut:
		return badgeOptedOut.Render(string(s))
	default:
		return badgeUnplaced.Render(string(s))
	}
}

// ProgressBar renders a bar for a fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if fraction > 0.8 {
		return barHigh.Render(bar)
	} else if fraction > 0.4 {
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

// Tile renders one summary metric in a panel.
func Tile(label, value string) string {
	return Panel.Render(MetricLabel.Render(label) + "\n" + MetricValue.Render(value))
}

// BoxWithTitle renders content in a panel headed by title.
func BoxWithTitle(title, content string) string {
	return Panel.Render(Title.Render(title) + "\n\n" + content)
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
