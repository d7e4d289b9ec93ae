package inbox

import (
	"sort"
	"time"

	"github.com/nhle/reminder/internal/model"
)

// State is the per-account inbox. It is a value: every transition returns
// a new State and the Records map of a published State is never written
// again, so a State handed to a reader can be used without locking.
type State struct {
	Login string

	// Records maps notification id to record.
	Records map[string]model.NotificationRecord

	// LastSyncedAt is set only by a successful fetch. Zero means never.
	LastSyncedAt time.Time

	// LastReadAt is the account-level read watermark from the last fetch.
	LastReadAt time.Time

	// FetchInFlight is true from dispatch until the result is applied.
	FetchInFlight bool

	// FetchID identifies the in-flight (or last) dispatch.
	FetchID string

	// LastError is the most recent fetch failure, cleared on success.
	LastError error

	// Highlights marks buckets whose unseen or updated count grew on the
	// last successful fetch and have not been acknowledged yet.
	Highlights map[Bucket]bool
}

// NewState returns an empty, never-synced state for login.
func NewState(login string) State {
	return State{
		Login:   login,
		Records: map[string]model.NotificationRecord{},
	}
}

// HasSynced reports whether any fetch has succeeded.
func (s State) HasSynced() bool {
	return !s.LastSyncedAt.IsZero()
}

// Phase returns the fetch lifecycle phase.
func (s State) Phase() Phase {
	if s.FetchInFlight {
		return PhaseFetching
	}
	return PhaseIdle
}

// IDs returns record ids in ascending order.
func (s State) IDs() []string {
	ids := make([]string, 0, len(s.Records))
	for id := range s.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BeginFetch moves the state to Fetching under the given dispatch id.
func (s State) BeginFetch(fetchID string) State {
	s.FetchInFlight = true
	s.FetchID = fetchID
	return s
}

// ApplySuccess reconciles a fetched batch and returns to Idle.
func (s State) ApplySuccess(
	fetched []model.RawNotification,
	lastReadAt time.Time,
	syncedAt time.Time,
) State {
	prevCounts := countBuckets(s.Records)
	wasSynced := s.HasSynced()

	s.Records = Reconcile(s.Records, fetched, lastReadAt)
	s.LastReadAt = lastReadAt
	s.LastSyncedAt = syncedAt
	s.LastError = nil
	s.FetchInFlight = false

	if wasSynced {
		nextCounts := countBuckets(s.Records)
		highlights := copyHighlights(s.Highlights)
		for _, b := range Buckets {
			if nextCounts[b].bumpedSince(prevCounts[b]) {
				highlights[b] = true
			}
		}
		s.Highlights = highlights
	}

	return s
}

// ApplyFailure records err and returns to Idle. Records are retained.
func (s State) ApplyFailure(err error) State {
	s.LastError = err
	s.FetchInFlight = false
	return s
}

// MarkSeen flips one record to seen. It reports false when the id is
// unknown or already seen, in which case s is returned unchanged.
func (s State) MarkSeen(id string) (State, bool) {
	rec, ok := s.Records[id]
	if !ok || rec.Seen {
		return s, false
	}

	next := copyRecords(s.Records)
	rec.Seen = true
	next[id] = rec
	s.Records = next
	return s, true
}

// MarkBucketSeen flips every unseen record in bucket b to seen and returns
// how many changed.
func (s State) MarkBucketSeen(b Bucket) (State, int) {
	var next map[string]model.NotificationRecord
	changed := 0

	for id, rec := range s.Records {
		if rec.Seen || BucketFor(rec.Reason) != b {
			continue
		}
		if next == nil {
			next = copyRecords(s.Records)
		}
		rec.Seen = true
		next[id] = rec
		changed++
	}

	if changed > 0 {
		s.Records = next
	}
	return s, changed
}

// ClearHighlight acknowledges bucket b.
func (s State) ClearHighlight(b Bucket) State {
	if !s.Highlights[b] {
		return s
	}
	highlights := copyHighlights(s.Highlights)
	delete(highlights, b)
	s.Highlights = highlights
	return s
}

func copyRecords(in map[string]model.NotificationRecord) map[string]model.NotificationRecord {
	out := make(map[string]model.NotificationRecord, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyHighlights(in map[Bucket]bool) map[Bucket]bool {
	out := make(map[Bucket]bool, len(in))
	for k, v := range in {
		if v {
			out[k] = true
		}
	}
	return out
}

// Phase is the fetch lifecycle state of an account.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
)

func (p Phase) String() string {
	if p == PhaseFetching {
		return "fetching"
	}
	return "idle"
}
