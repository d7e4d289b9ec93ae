package sync

import (
	"time"

	"github.com/nhle/reminder/internal/inbox"
)

// DefaultInterval is the automatic refresh period.
const DefaultInterval = 180 * time.Second

// ShouldRefresh decides whether an account should be fetched now. Rules
// are checked in order and the first match wins:
//
//   - a fetch already in flight: never
//   - a manual request: always
//   - never synced: immediately
//   - otherwise: once interval has elapsed since the last successful sync
func ShouldRefresh(s inbox.State, now time.Time, interval time.Duration, manual bool) bool {
	if s.FetchInFlight {
		return false
	}
	if manual {
		return true
	}
	if !s.HasSynced() {
		return true
	}
	return now.Sub(s.LastSyncedAt) >= interval
}
