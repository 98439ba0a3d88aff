package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces the status bar style when a transient error
// message is shown.
var ErrorBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// CardStyle wraps a single stats card.
var CardStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CardLabelStyle renders the caption above a stats value.
var CardLabelStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// CardValueStyle renders the large stats value.
var CardValueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// DimmedStyle de-emphasizes completed tasks.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// StrikeStyle is applied to completed task titles.
var StrikeStyle = lipgloss.NewStyle().
	Strikethrough(true).
	Foreground(ColorGray)

// DueDateStyle renders due dates in list rows.
var DueDateStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// PanelStyle provides a bordered panel for forms and overlays.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// StatusStyle returns a color-coded style for the given task status.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "todo":
		return base.Foreground(ColorBlue)
	case "in_progress":
		return base.Foreground(ColorYellow)
	case "done":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for the given priority.
// High reads strongest, medium neutral, low muted.
func PriorityStyle(priority string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case "high":
		return base.Foreground(ColorRed)
	case "medium":
		return base.Foreground(ColorYellow)
	case "low":
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorGray)
	}
}
