package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/reminder/internal/inbox"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/theme"
)

// now is swapped in tests.
var now = time.Now

// View renders the account tabs and the focused account's card.
func (m Model) View() string {
	if len(m.views) == 0 {
		return m.renderEmptyState()
	}

	v := m.views[m.focus]
	header := []string{m.renderTabs(), m.renderCardHeader(v)}
	if m.filtering {
		header = append(header, m.filterInput.View())
	} else if v.Filter != "" {
		header = append(header, theme.HelpStyle.Render("filter: "+v.Filter+"  (esc to clear)"))
	}

	lines, cursorLine := m.renderSections(v)

	footer := ""
	if rec, _, ok := m.SelectedRow(); ok && rec.URL != "" {
		footer = theme.HelpStyle.Render(rec.URL)
	}

	avail := m.height - len(header) - 1
	lines = window(lines, cursorLine, avail)

	parts := append(header, lines...)
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderEmptyState() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render("No accounts yet.\n\nPress a to add a GitHub account.")
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.views))
	for i, v := range m.views {
		label := v.Login
		if n := v.UnseenTotal(); n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		switch {
		case v.FetchInFlight:
			label += " ⟳"
		case v.LastError != nil:
			label += " !"
		}

		if i == m.focus {
			tabs[i] = theme.ActiveTabStyle.Render(label)
		} else {
			tabs[i] = theme.TabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderCardHeader(v inbox.BucketedView) string {
	var status string
	switch {
	case v.FetchInFlight && v.LastSyncedAt.IsZero():
		status = "loading..."
	case v.FetchInFlight:
		status = "refreshing... (synced " + relativeTime(v.LastSyncedAt, now()) + ")"
	case v.LastSyncedAt.IsZero():
		status = "never synced"
	default:
		status = "synced " + relativeTime(v.LastSyncedAt, now())
	}

	line := lipgloss.NewStyle().Bold(true).Render(v.Login) + "  " + theme.HelpStyle.Render(status)
	if v.LastError != nil {
		line += "  " + theme.ErrorStyle.Render("⚠ "+errorSummary(v.LastError))
	}
	return line
}

// renderSections returns one line per section header and row, plus the
// index of the line holding the cursor.
func (m Model) renderSections(v inbox.BucketedView) ([]string, int) {
	var lines []string
	cursorLine := 0
	row := 0

	for _, sec := range v.Sections {
		lines = append(lines, sectionHeader(sec))

		if len(sec.Rows) == 0 {
			lines = append(lines, theme.ListItemStyle.Render(theme.HelpStyle.Render("nothing here")))
			continue
		}

		for _, rec := range sec.Rows {
			selected := row == m.cursor
			if selected {
				cursorLine = len(lines)
			}
			lines = append(lines, renderRow(rec, selected, now()))
			row++
		}
	}

	return lines, cursorLine
}

// sectionHeader renders e.g. "Review requests (2 unseen, 1 updated)".
func sectionHeader(sec inbox.Section) string {
	text := fmt.Sprintf("%s (%d unseen, %d updated)", sec.Bucket.Title(), sec.UnseenCount, sec.UpdatedCount)
	if sec.Total != len(sec.Rows) {
		text += fmt.Sprintf(" · %d/%d shown", len(sec.Rows), sec.Total)
	}
	if sec.Highlighted {
		return theme.HighlightedSectionStyle.Render("★ " + text)
	}
	return theme.SectionStyle.Render(text)
}

func renderRow(rec model.NotificationRecord, selected bool, at time.Time) string {
	marker := "●"
	if rec.Seen {
		marker = " "
	}

	parts := []string{
		marker,
		rec.Repository,
		rec.Title,
		theme.ReasonStyle(rec.Reason).Render(rec.ReasonLabel()),
		theme.HelpStyle.Render(relativeTime(rec.UpdatedAt, at)),
	}
	if rec.UpdatedAfterRead {
		parts = append(parts, theme.UpdatedBadgeStyle.Render("Updated"))
	}

	line := strings.Join(parts, "  ")
	if rec.Seen {
		line = theme.SeenStyle.Render(line)
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// window returns at most height lines around cursor.
func window(lines []string, cursor, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, at time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := at.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
