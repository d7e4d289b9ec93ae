package accountform

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/reminder/internal/sync"
	"github.com/nhle/reminder/internal/theme"
)

// SubmittedMsg carries a new account. Token is handed straight to the
// credential store and never rendered.
type SubmittedMsg struct {
	Login string
	Token string
}

// RemoveConfirmedMsg is sent when the user confirms removing Login.
type RemoveConfirmedMsg struct {
	Login string
}

// CancelMsg is sent when the form is aborted or removal declined.
type CancelMsg struct{}

type mode int

const (
	modeAdd mode = iota
	modeRemove
)

// formBindings holds field values on the heap so huh's Value pointers
// survive Bubble Tea model copies.
type formBindings struct {
	login   string
	token   string
	confirm bool
}

// Model wraps the add-account and remove-account forms.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	mode   mode
	target string
	width  int
	height int
}

// New creates an idle form model.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// StartAdd shows the login + token form. existing logins are rejected.
func (m *Model) StartAdd(existing []string) tea.Cmd {
	m.mode = modeAdd
	m.fb.login = ""
	m.fb.token = ""
	m.form = newAddForm(m.fb, existing).
		WithWidth(m.formWidth()).
		WithShowHelp(true)
	return m.form.Init()
}

// StartRemove shows a confirmation for removing login.
func (m *Model) StartRemove(login string) tea.Cmd {
	m.mode = modeRemove
	m.target = login
	m.fb.confirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Remove " + login + "?").
				Description("The stored token is deleted from the keyring.").
				Affirmative("Remove").
				Negative("Keep").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// newAddForm builds the add-account form bound to fb. It is shared with
// the CLI prompt.
func newAddForm(fb *formBindings, existing []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub login").
				Placeholder("octocat").
				Value(&fb.login).
				Validate(func(s string) error {
					login, err := sync.NormalizeLogin(s)
					if err != nil {
						return errors.New("not a valid GitHub login")
					}
					for _, e := range existing {
						if strings.EqualFold(e, login) {
							return errors.New("account already added")
						}
					}
					return nil
				}),
			huh.NewInput().
				Title("Personal access token").
				Description("Needs the notifications and repo scopes.").
				EchoMode(huh.EchoModePassword).
				Value(&fb.token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token is required")
					}
					return nil
				}),
		),
	)
}

// PromptAdd runs the add-account form standalone and returns the values.
func PromptAdd(existing []string) (login, token string, err error) {
	fb := &formBindings{}
	if err := newAddForm(fb, existing).Run(); err != nil {
		return "", "", err
	}
	login, _ = sync.NormalizeLogin(fb.login)
	return login, strings.TrimSpace(fb.token), nil
}

// PromptToken asks only for the token of a known login.
func PromptToken(login string) (string, error) {
	var token string
	err := huh.NewInput().
		Title("Personal access token for " + login).
		EchoMode(huh.EchoModePassword).
		Value(&token).
		Run()
	return strings.TrimSpace(token), err
}

// Update forwards messages to the active form.
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
		return m, m.handleSubmit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m Model) handleSubmit() tea.Cmd {
	if m.mode == modeRemove {
		if !m.fb.confirm {
			return func() tea.Msg { return CancelMsg{} }
		}
		login := m.target
		return func() tea.Msg { return RemoveConfirmedMsg{Login: login} }
	}

	login, _ := sync.NormalizeLogin(m.fb.login)
	token := strings.TrimSpace(m.fb.token)
	m.fb.token = ""
	return func() tea.Msg { return SubmittedMsg{Login: login, Token: token} }
}

// View renders the active form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "Add GitHub account"
	if m.mode == modeRemove {
		title = "Remove account"
	}

	content := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(title) + "\n" + m.form.View()

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
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
