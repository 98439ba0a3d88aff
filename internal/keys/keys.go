package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Task actions
	New    key.Binding
	Toggle key.Binding
	Delete key.Binding

	// Manual refresh
	Refresh key.Binding

	// Server-side filters
	FilterStatus   key.Binding
	FilterPriority key.Binding
	ClearFilters   key.Binding

	// Session
	Logout key.Binding

	// Help toggle
	Help key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x", "enter"),
			key.WithHelp("x", "toggle complete"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete task"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		FilterStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status filter"),
		),
		FilterPriority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle priority filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filters"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.New, k.Toggle, k.Delete, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Back, k.Quit},
		{k.New, k.Toggle, k.Delete, k.Refresh},
		{k.FilterStatus, k.FilterPriority, k.ClearFilters},
		{k.Logout, k.Help},
	}
}
