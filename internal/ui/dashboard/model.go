package dashboard

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/reminder/internal/inbox"
	"github.com/nhle/reminder/internal/keys"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
)

// MarkSeenMsg asks the registry to mark one record as seen.
type MarkSeenMsg struct {
	Login string
	ID    string
}

// MarkSectionSeenMsg asks the registry to mark a whole bucket as seen.
type MarkSectionSeenMsg struct {
	Login  string
	Bucket inbox.Bucket
}

// SectionViewedMsg is sent when the cursor enters a highlighted section.
type SectionViewedMsg struct {
	Login  string
	Bucket inbox.Bucket
}

// FilterChangedMsg carries the live filter text of an account.
type FilterChangedMsg struct {
	Login string
	Text  string
}

// RefreshRequestMsg asks for a manual refresh of one account.
type RefreshRequestMsg struct {
	Login string
}

// Model renders one account card at a time with its four sections.
type Model struct {
	keys        *keys.KeyMap
	views       []inbox.BucketedView
	focus       int
	cursor      int
	filtering   bool
	filterInput textinput.Model
	hint        string
	width       int
	height      int
}

// New creates an empty dashboard.
func New(k *keys.KeyMap, width, height int) Model {
	fi := textinput.New()
	fi.Placeholder = "repo, title or reason..."
	fi.Prompt = "/ "
	fi.Width = width - 4
	fi.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		keys:        k,
		filterInput: fi,
		width:       width,
		height:      height,
	}
}

// SetViews replaces the rendered data, keeping focus on the same login.
func (m *Model) SetViews(views []inbox.BucketedView) {
	focused := m.FocusedLogin()
	m.views = views
	m.focus = 0
	for i, v := range views {
		if v.Login == focused {
			m.focus = i
			break
		}
	}
	m.clampCursor()
}

// FocusedLogin returns the login of the account on screen, or "".
func (m Model) FocusedLogin() string {
	if m.focus < 0 || m.focus >= len(m.views) {
		return ""
	}
	return m.views[m.focus].Login
}

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool {
	return m.filtering
}

// Hint returns a transient message for the status bar.
func (m Model) Hint() string {
	return m.hint
}

// SelectedRow returns the record under the cursor.
func (m Model) SelectedRow() (model.NotificationRecord, inbox.Bucket, bool) {
	rows := m.flatRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return model.NotificationRecord{}, 0, false
	}
	r := rows[m.cursor]
	return r.rec, r.bucket, true
}

// SetSize updates the dashboard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.filterInput.Width = width - 4
}

// Update handles key input for the focused account.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.hint = ""

	if m.filtering {
		return m.handleFilterKeys(keyMsg)
	}
	return m.handleNormalKeys(keyMsg)
}

func (m Model) handleFilterKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	login := m.FocusedLogin()

	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filterInput.Blur()
		return m, nil

	case tea.KeyEsc:
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.Reset()
		return m, filterChanged(login, "")
	}

	before := m.filterInput.Value()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if after := m.filterInput.Value(); after != before {
		m.cursor = 0
		return m, tea.Batch(cmd, filterChanged(login, after))
	}
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if len(m.views) == 0 {
		return m, nil
	}
	login := m.FocusedLogin()

	switch {
	case key.Matches(msg, m.keys.NextAccount):
		m.focus = (m.focus + 1) % len(m.views)
		m.cursor = 0
		return m, m.sectionViewed()

	case key.Matches(msg, m.keys.PrevAccount):
		m.focus = (m.focus - 1 + len(m.views)) % len(m.views)
		m.cursor = 0
		return m, m.sectionViewed()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.flatRows())-1 {
			m.cursor++
		}
		return m, m.sectionViewed()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.sectionViewed()

	case key.Matches(msg, m.keys.MarkSeen):
		rec, _, ok := m.SelectedRow()
		if !ok || rec.Seen {
			return m, nil
		}
		return m, func() tea.Msg { return MarkSeenMsg{Login: login, ID: rec.ID} }

	case key.Matches(msg, m.keys.MarkSectionSeen):
		_, bucket, ok := m.SelectedRow()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return MarkSectionSeenMsg{Login: login, Bucket: bucket} }

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filterInput.SetValue(m.views[m.focus].Filter)
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Back):
		if m.views[m.focus].Filter == "" {
			return m, nil
		}
		m.filterInput.Reset()
		return m, filterChanged(login, "")

	case key.Matches(msg, m.keys.Refresh):
		if m.views[m.focus].FetchInFlight {
			m.hint = login + " is already refreshing"
			return m, nil
		}
		return m, func() tea.Msg { return RefreshRequestMsg{Login: login} }
	}

	return m, nil
}

func (m Model) sectionViewed() tea.Cmd {
	_, bucket, ok := m.SelectedRow()
	if !ok {
		return nil
	}
	v := m.views[m.focus]
	if !v.Section(bucket).Highlighted {
		return nil
	}
	login := v.Login
	return func() tea.Msg { return SectionViewedMsg{Login: login, Bucket: bucket} }
}

func filterChanged(login, text string) tea.Cmd {
	return func() tea.Msg { return FilterChangedMsg{Login: login, Text: text} }
}

type flatRow struct {
	bucket inbox.Bucket
	rec    model.NotificationRecord
}

func (m Model) flatRows() []flatRow {
	if m.focus < 0 || m.focus >= len(m.views) {
		return nil
	}
	var rows []flatRow
	for _, sec := range m.views[m.focus].Sections {
		for _, rec := range sec.Rows {
			rows = append(rows, flatRow{bucket: sec.Bucket, rec: rec})
		}
	}
	return rows
}

func (m *Model) clampCursor() {
	n := len(m.flatRows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// errorSummary renders a fetch error for the card header.
func errorSummary(err error) string {
	switch source.KindOf(err) {
	case source.KindUnauthorized:
		return "token rejected; remove and re-add the account"
	case source.KindRateLimited:
		return "rate limited by GitHub"
	case source.KindTimeout:
		return "timed out"
	case source.KindMalformed:
		return "unexpected response from GitHub"
	default:
		return "network error"
	}
}
