package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/reminder/internal/keys"
	"github.com/nhle/reminder/internal/theme"
)

// CloseMsg asks the parent to leave the help overlay.
type CloseMsg struct{}

// Model is the help overlay view.
type Model struct {
	keys     *keys.KeyMap
	help     help.Model
	interval string
	width    int
	height   int
}

// New creates a new help view model. interval is shown as the automatic
// refresh period.
func New(k *keys.KeyMap, interval string, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:     k,
		help:     h,
		interval: interval,
		width:    width,
		height:   height,
	}
}

// Update closes the overlay on esc or ?.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "?", "q":
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	body := m.help.View(m.keys)

	footer := theme.HelpStyle.Render(
		"Accounts refresh automatically every " + m.interval + ".\n" +
			"Seen is local to this app; 'Updated' means changed after your last read on GitHub.",
	)

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, "", footer)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
