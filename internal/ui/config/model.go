package config

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/theme"
)

// Bounds for the refresh interval, in seconds.
const (
	MinIntervalSec = 30
	MaxIntervalSec = 24 * 60 * 60
)

// ConfigDoneMsg signals the settings view closed without changes.
type ConfigDoneMsg struct{}

// SavedMsg carries the edited configuration. The caller persists it and
// applies the settings that can change at runtime.
type SavedMsg struct {
	Config model.AppConfig
}

// bindings holds field values on the heap so huh's Value pointers survive
// Bubble Tea model copies.
type bindings struct {
	interval       string
	theme          string
	includeReviews bool
}

// Model is the Bubble Tea model for the settings form.
type Model struct {
	form   *huh.Form
	b      *bindings
	base   model.AppConfig
	width  int
	height int
}

// New creates an idle settings model.
func New(width, height int) Model {
	return Model{b: &bindings{}, width: width, height: height}
}

// Start opens the form prefilled from cfg.
func (m *Model) Start(cfg model.AppConfig) tea.Cmd {
	m.base = cfg
	m.b.interval = strconv.Itoa(cfg.Refresh.IntervalSec)
	m.b.theme = cfg.Display.Theme
	if m.b.theme == "" {
		m.b.theme = "default"
	}
	m.b.includeReviews = cfg.GitHub.IncludeReviews

	m.form = newForm(m.b).WithWidth(m.formWidth()).WithShowHelp(true)
	return m.form.Init()
}

func newForm(b *bindings) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh interval (seconds)").
				Description("How long an account may stay idle before it is fetched again.").
				Value(&b.interval).
				Validate(validateInterval),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Default", "default"),
					huh.NewOption("Monochrome", "mono"),
				).
				Value(&b.theme),
			huh.NewConfirm().
				Title("Include recent reviews").
				Description("Takes effect on the next start.").
				Value(&b.includeReviews),
		),
	)
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a number of seconds")
	}
	if n < MinIntervalSec || n > MaxIntervalSec {
		return errors.New("interval must be between 30s and 24h")
	}
	return nil
}

// Active reports whether the form is open.
func (m Model) Active() bool {
	return m.form != nil
}

// Update forwards messages to the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		cfg := m.result()
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	}

	return m, cmd
}

// result applies the bound values to a copy of the starting config.
func (m Model) result() model.AppConfig {
	cfg := m.base
	if n, err := strconv.Atoi(strings.TrimSpace(m.b.interval)); err == nil {
		cfg.Refresh.IntervalSec = n
	}
	cfg.Display.Theme = m.b.theme
	cfg.GitHub.IncludeReviews = m.b.includeReviews
	return cfg
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Settings")

	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-8, 30), 80)
}
