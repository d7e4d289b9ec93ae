package dashboard

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminder/internal/inbox"
	"github.com/nhle/reminder/internal/keys"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
)

var at = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func init() {
	now = func() time.Time { return at }
}

func sampleViews() []inbox.BucketedView {
	octo := inbox.NewState("octocat").ApplySuccess([]model.RawNotification{
		{ID: "1", Repository: "acme/app", Title: "Add cache", Reason: model.ReasonReviewRequested, UpdatedAt: at.Add(-5 * time.Minute)},
		{ID: "2", Repository: "acme/ops", Title: "Outage", Reason: model.ReasonMention, UpdatedAt: at.Add(-2 * time.Hour)},
		{ID: "3", Repository: "acme/lib", Title: "Bump", Reason: model.ReasonSubscribed, UpdatedAt: at.Add(-3 * time.Hour)},
	}, at.Add(-time.Hour), at.Add(-2*time.Minute))

	hubot := inbox.NewState("hubot").ApplyFailure(
		source.NewFetchError(source.KindUnauthorized, "hubot", errors.New("bad credentials")),
	)

	return []inbox.BucketedView{
		inbox.View(octo, inbox.Filter{}),
		inbox.View(hubot, inbox.Filter{}),
	}
}

func newModel() Model {
	m := New(keys.DefaultKeyMap(), 100, 40)
	m.SetViews(sampleViews())
	return m
}

func press(m Model, k string) (Model, tea.Msg) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestNavigationAndMarkSeen(t *testing.T) {
	m := newModel()
	assert.Equal(t, "octocat", m.FocusedLogin())

	m, msg := press(m, "enter")
	assert.Equal(t, MarkSeenMsg{Login: "octocat", ID: "1"}, msg)

	m, _ = press(m, "j")
	m, msg = press(m, "s")
	assert.Equal(t, MarkSectionSeenMsg{Login: "octocat", Bucket: inbox.BucketMention}, msg)

	m, _ = press(m, "j")
	m, _ = press(m, "j")
	rec, bucket, ok := m.SelectedRow()
	require.True(t, ok)
	assert.Equal(t, "3", rec.ID, "cursor stops at the last row")
	assert.Equal(t, inbox.BucketOther, bucket)

	m, _ = press(m, "tab")
	assert.Equal(t, "hubot", m.FocusedLogin())
	_, _, ok = m.SelectedRow()
	assert.False(t, ok)
}

func TestSetViewsKeepsFocus(t *testing.T) {
	m := newModel()
	m, _ = press(m, "tab")
	require.Equal(t, "hubot", m.FocusedLogin())

	views := sampleViews()
	m.SetViews([]inbox.BucketedView{views[1], views[0]})
	assert.Equal(t, "hubot", m.FocusedLogin())

	m.SetViews(views[:1])
	assert.Equal(t, "octocat", m.FocusedLogin())
}

func TestFilterInput(t *testing.T) {
	m := newModel()

	m, _ = press(m, "/")
	assert.True(t, m.Filtering())

	m, msg := press(m, "o")
	assert.Equal(t, FilterChangedMsg{Login: "octocat", Text: "o"}, msg)

	m, _ = press(m, "enter")
	assert.False(t, m.Filtering())

	m, _ = press(m, "/")
	m, msg = press(m, "esc")
	assert.Equal(t, FilterChangedMsg{Login: "octocat", Text: ""}, msg)
}

func TestRefreshIgnoredWhileInFlight(t *testing.T) {
	m := newModel()
	_, msg := press(m, "r")
	assert.Equal(t, RefreshRequestMsg{Login: "octocat"}, msg)

	views := sampleViews()
	views[0].FetchInFlight = true
	m.SetViews(views)
	m, msg = press(m, "r")
	assert.Nil(t, msg)
	assert.Contains(t, m.Hint(), "already refreshing")
}

func TestSectionViewedOnlyWhenHighlighted(t *testing.T) {
	views := sampleViews()
	views[0].Sections[inbox.BucketMention].Highlighted = true
	m := New(keys.DefaultKeyMap(), 100, 40)
	m.SetViews(views)

	_, msg := press(m, "j")
	assert.Equal(t, SectionViewedMsg{Login: "octocat", Bucket: inbox.BucketMention}, msg)

	m, _ = press(m, "j")
	_, msg = press(m, "k")
	assert.Equal(t, SectionViewedMsg{Login: "octocat", Bucket: inbox.BucketMention}, msg)
}

func TestView(t *testing.T) {
	m := newModel()
	out := m.View()

	assert.Contains(t, out, "octocat (3)")
	assert.Contains(t, out, "Review requests (1 unseen, 1 updated)")
	assert.Contains(t, out, "Mentions (1 unseen, 0 updated)")
	assert.Contains(t, out, "Recent reviews (0 unseen, 0 updated)")
	assert.Contains(t, out, "Add cache")
	assert.Contains(t, out, "Updated")
	assert.Contains(t, out, "synced 2m ago")

	m, _ = press(m, "tab")
	out = m.View()
	assert.Contains(t, out, "never synced")
	assert.Contains(t, out, "token rejected")
}

func TestEmptyView(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Contains(t, m.View(), "Press a to add")
	assert.Equal(t, "", m.FocusedLogin())
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "", relativeTime(time.Time{}, at))
	assert.Equal(t, "just now", relativeTime(at.Add(-10*time.Second), at))
	assert.Equal(t, "5m ago", relativeTime(at.Add(-5*time.Minute), at))
	assert.Equal(t, "3h ago", relativeTime(at.Add(-3*time.Hour), at))
	assert.Equal(t, "2d ago", relativeTime(at.Add(-48*time.Hour), at))
	assert.Equal(t, "2w ago", relativeTime(at.Add(-15*24*time.Hour), at))
}

func TestWindow(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e", "f"}
	assert.Equal(t, lines, window(lines, 0, 10))
	assert.Equal(t, []string{"a", "b", "c"}, window(lines, 0, 3))
	assert.Equal(t, []string{"c", "d", "e"}, window(lines, 4, 3))
	assert.Equal(t, []string{"d", "e", "f"}, window(lines, 5, 3))
}
