package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/reminder/internal/inbox"
)

func TestShouldRefresh(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	interval := 180 * time.Second

	synced := func(ago time.Duration) inbox.State {
		s := inbox.NewState("octocat")
		s.LastSyncedAt = now.Add(-ago)
		return s
	}
	inFlight := func(s inbox.State) inbox.State { return s.BeginFetch("f") }

	cases := []struct {
		name   string
		state  inbox.State
		manual bool
		want   bool
	}{
		{"stale and idle", synced(200 * time.Second), false, true},
		{"fresh", synced(10 * time.Second), false, false},
		{"fresh but manual", synced(10 * time.Second), true, true},
		{"exactly at interval", synced(interval), false, true},
		{"never synced", inbox.NewState("octocat"), false, true},
		{"in flight beats manual", inFlight(synced(10 * time.Second)), true, false},
		{"in flight beats stale", inFlight(synced(time.Hour)), false, false},
		{"in flight beats first load", inFlight(inbox.NewState("octocat")), true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRefresh(tc.state, now, interval, tc.manual))
		})
	}
}
