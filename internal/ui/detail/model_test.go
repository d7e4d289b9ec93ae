package detail

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminder/internal/keys"
	"github.com/nhle/reminder/internal/model"
)

func record() model.NotificationRecord {
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.NewRecord(model.RawNotification{
		ID:         "42",
		Repository: "acme/app",
		Title:      "Fix flaky test",
		URL:        "https://api.github.com/repos/acme/app/pulls/9",
		Reason:     model.ReasonMention,
		RawReason:  "team_mention",
		UpdatedAt:  updated,
	}, updated.Add(-time.Hour))
}

func TestShowRendersRecord(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	m.Show("octocat", record())

	out := m.View()
	assert.Contains(t, out, "Fix flaky test")
	assert.Contains(t, out, "acme/app")
	assert.Contains(t, out, "https://github.com/acme/app/pull/9")
	assert.Contains(t, out, "Mention (team_mention)")
	assert.Contains(t, out, "Updated")
	assert.Contains(t, out, "Loading...")
}

func TestHistoryLoaded(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	m.Show("octocat", record())

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.SyncRun{
		{Login: "octocat", StartedAt: start, FinishedAt: start.Add(time.Second), Outcome: model.SyncSucceeded, RecordCount: 7},
		{Login: "octocat", StartedAt: start, FinishedAt: start.Add(time.Second), Outcome: model.SyncFailed, ErrorKind: "timeout", Error: "deadline exceeded"},
	}

	m, _ = m.Update(HistoryLoadedMsg{Login: "someone-else", Err: errors.New("ignored")})
	assert.Contains(t, m.View(), "Loading...")

	m, _ = m.Update(HistoryLoadedMsg{Login: "octocat", Runs: runs})
	out := m.View()
	assert.Contains(t, out, "7 records")
	assert.Contains(t, out, "timeout: deadline exceeded")
	assert.NotContains(t, out, "Loading...")
}

func TestEmptyAndBack(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	assert.Contains(t, m.View(), "No notification selected")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, BackMsg{}, cmd())
}
