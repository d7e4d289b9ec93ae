package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/reminder/internal/keys"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/theme"
)

const timeLayout = "2006-01-02 15:04"

// BackMsg signals the parent to navigate back to the dashboard.
type BackMsg struct{}

// HistoryLoadedMsg carries the recent sync runs of the account whose
// notification is shown.
type HistoryLoadedMsg struct {
	Login string
	Runs  []model.SyncRun
	Err   error
}

// Model shows one notification and the sync history of its account.
type Model struct {
	login    string
	record   *model.NotificationRecord
	runs     []model.SyncRun
	histErr  error
	loading  bool
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Show sets the record being displayed. History arrives separately via
// HistoryLoadedMsg.
func (m *Model) Show(login string, rec model.NotificationRecord) {
	m.login = login
	m.record = &rec
	m.runs = nil
	m.histErr = nil
	m.loading = true
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		if msg.Login != m.login {
			return m, nil
		}
		m.runs = msg.Runs
		m.histErr = msg.Err
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.record == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notification selected")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	if m.record == nil {
		return ""
	}

	rec := m.record
	var lines []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	lines = append(lines, titleStyle.Render(rec.Title))

	badges := theme.ReasonStyle(rec.Reason).Render(rec.ReasonLabel())
	if rec.UpdatedAfterRead {
		badges += "  " + theme.UpdatedBadgeStyle.Render("Updated")
	}
	if rec.Seen {
		badges += "  " + theme.SeenStyle.Render("seen")
	}
	lines = append(lines, badges, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	field := func(name, value string) {
		if value == "" {
			return
		}
		lines = append(lines, metaStyle.Render(name+":")+valStyle.Render(value))
	}

	field("Account", m.login)
	field("Repository", rec.Repository)
	field("Updated", formatTime(rec.UpdatedAt))
	field("Last read", formatTime(rec.LastReadAt))
	field("URL", rec.URL)
	field("Thread", rec.ID)

	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	lines = append(lines, "", sep, "")
	lines = append(lines, titleStyle.Render("Recent syncs"))

	switch {
	case m.loading:
		lines = append(lines, theme.HelpStyle.Render("Loading..."))
	case m.histErr != nil:
		lines = append(lines, theme.ErrorStyle.Render(m.histErr.Error()))
	case len(m.runs) == 0:
		lines = append(lines, theme.HelpStyle.Render("No syncs recorded"))
	default:
		for _, run := range m.runs {
			lines = append(lines, runLine(run))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func runLine(run model.SyncRun) string {
	line := fmt.Sprintf("%s  %-9s %6s", run.FinishedAt.Local().Format(timeLayout), run.Outcome, run.Duration().Round(10*time.Millisecond))
	switch run.Outcome {
	case model.SyncSucceeded:
		return line + fmt.Sprintf("  %d records", run.RecordCount)
	case model.SyncFailed:
		return theme.ErrorStyle.Render(line + "  " + run.ErrorKind + ": " + run.Error)
	default:
		return theme.HelpStyle.Render(line)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
