package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktracker/internal/theme"
)

// Layout manages the terminal layout dimensions: a one-line header, the
// content area, and a one-line status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with the app title on the
// left and session info (logged-in user) on the right.
func (l Layout) RenderHeader(title string, sessionInfo string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	infoRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(sessionInfo)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(infoRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		infoRendered,
	)
}

// RenderStatusBar renders the bottom status bar. When isError is true
// the bar uses the error style to make the message stand out.
func (l Layout) RenderStatusBar(text string, isError bool) string {
	style := theme.StatusBarStyle
	if isError {
		style = theme.ErrorBarStyle
	}
	rendered := style.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
