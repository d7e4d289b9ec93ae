package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Account focus
	NextAccount key.Binding
	PrevAccount key.Binding

	// Row navigation
	Down key.Binding
	Up   key.Binding

	// Seen state
	MarkSeen        key.Binding
	MarkSectionSeen key.Binding

	Filter key.Binding

	// Refresh
	Refresh    key.Binding
	RefreshAll key.Binding

	// Accounts
	AddAccount    key.Binding
	RemoveAccount key.Binding

	Details  key.Binding
	Settings key.Binding
	Back     key.Binding
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		NextAccount: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next account"),
		),
		PrevAccount: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous account"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		MarkSeen: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "mark seen"),
		),
		MarkSectionSeen: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "mark section seen"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh account"),
		),
		RefreshAll: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh all"),
		),
		AddAccount: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add account"),
		),
		RemoveAccount: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove account"),
		),
		Details: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "details"),
		),
		Settings: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "settings"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.NextAccount, k.Up, k.Down, k.MarkSeen,
		k.Filter, k.Refresh, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextAccount, k.PrevAccount, k.Up, k.Down},
		{k.MarkSeen, k.MarkSectionSeen, k.Details, k.Filter, k.Back},
		{k.Refresh, k.RefreshAll, k.AddAccount, k.RemoveAccount},
		{k.Settings, k.Help, k.Quit},
	}
}
