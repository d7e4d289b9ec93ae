package inbox

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func raw(id string, reason model.Reason, updated time.Time) model.RawNotification {
	return model.RawNotification{
		ID:         id,
		Repository: "acme/app",
		Title:      "Item " + id,
		URL:        "https://api.github.com/repos/acme/app/pulls/" + id,
		Reason:     reason,
		RawReason:  string(reason),
		UpdatedAt:  updated,
	}
}

func TestReconcile_SeenCarriesForwardWhenUnchanged(t *testing.T) {
	prev := Reconcile(nil, []model.RawNotification{raw("1", model.ReasonMention, t0)}, t0.Add(-time.Hour))
	rec := prev["1"]
	rec.Seen = true
	prev["1"] = rec

	next := Reconcile(prev, []model.RawNotification{raw("1", model.ReasonMention, t0)}, t0.Add(-time.Hour))
	assert.True(t, next["1"].Seen)

	bumped := Reconcile(prev, []model.RawNotification{raw("1", model.ReasonMention, t0.Add(time.Second))}, t0.Add(-time.Hour))
	assert.False(t, bumped["1"].Seen, "a newer updated_at reopens the item")
}

func TestReconcile_DropsAbsentIDs(t *testing.T) {
	prev := Reconcile(nil, []model.RawNotification{
		raw("1", model.ReasonMention, t0),
		raw("2", model.ReasonOther, t0),
	}, time.Time{})

	next := Reconcile(prev, []model.RawNotification{raw("1", model.ReasonMention, t0)}, time.Time{})
	require.Len(t, next, 1)
	assert.Contains(t, next, "1")
	assert.Len(t, prev, 2, "previous mapping is not mutated")
}

func TestReconcile_Idempotent(t *testing.T) {
	batch := []model.RawNotification{
		raw("1", model.ReasonMention, t0),
		raw("2", model.ReasonReviewRequested, t0.Add(-2*time.Hour)),
	}
	start := Reconcile(nil, batch, t0.Add(-time.Hour))
	r := start["2"]
	r.Seen = true
	start["2"] = r

	once := Reconcile(start, batch, t0.Add(-time.Hour))
	twice := Reconcile(once, batch, t0.Add(-time.Hour))
	assert.Equal(t, once, twice)
}

func TestReconcile_UpdatedAfterRead(t *testing.T) {
	next := Reconcile(nil, []model.RawNotification{
		raw("new", model.ReasonMention, t0),
		raw("old", model.ReasonMention, t0.Add(-2*time.Hour)),
	}, t0.Add(-time.Hour))

	assert.True(t, next["new"].UpdatedAfterRead)
	assert.False(t, next["old"].UpdatedAfterRead)
	assert.Equal(t, "https://github.com/acme/app/pull/new", next["new"].URL)

	// A later read on the web clears the flag on the next fetch.
	again := Reconcile(next, []model.RawNotification{raw("new", model.ReasonMention, t0)}, t0.Add(time.Minute))
	assert.False(t, again["new"].UpdatedAfterRead)
}

func TestState_Transitions(t *testing.T) {
	s := NewState("octocat")
	assert.False(t, s.HasSynced())
	assert.Equal(t, PhaseIdle, s.Phase())

	s = s.BeginFetch("f1")
	assert.Equal(t, PhaseFetching, s.Phase())

	s = s.ApplySuccess([]model.RawNotification{
		raw("1", model.ReasonMention, t0),
		raw("2", model.ReasonOther, t0),
	}, t0.Add(-time.Hour), t0)
	assert.False(t, s.FetchInFlight)
	assert.True(t, s.LastSyncedAt.Equal(t0))
	assert.Equal(t, []string{"1", "2"}, s.IDs())

	before := s.Records
	s = s.BeginFetch("f2")
	timeout := source.NewFetchError(source.KindTimeout, "octocat", errors.New("deadline"))
	s = s.ApplyFailure(timeout)
	assert.False(t, s.FetchInFlight)
	assert.Equal(t, source.KindTimeout, source.KindOf(s.LastError))
	assert.Equal(t, before, s.Records)
	assert.True(t, s.LastSyncedAt.Equal(t0), "failure keeps the last successful sync time")

	s = s.BeginFetch("f3")
	s = s.ApplySuccess([]model.RawNotification{raw("1", model.ReasonMention, t0)}, t0, t0.Add(time.Minute))
	assert.NoError(t, s.LastError)
}

func TestState_MarkSeenCopiesOnWrite(t *testing.T) {
	s := NewState("octocat").ApplySuccess([]model.RawNotification{
		raw("1", model.ReasonMention, t0),
	}, time.Time{}, t0)
	snapshot := s

	s, changed := s.MarkSeen("1")
	assert.True(t, changed)
	assert.True(t, s.Records["1"].Seen)
	assert.False(t, snapshot.Records["1"].Seen, "earlier snapshot is untouched")

	_, changed = s.MarkSeen("1")
	assert.False(t, changed)
	_, changed = s.MarkSeen("missing")
	assert.False(t, changed)
}

func TestState_MarkBucketSeen(t *testing.T) {
	s := NewState("octocat").ApplySuccess([]model.RawNotification{
		raw("1", model.ReasonMention, t0),
		raw("2", model.ReasonMention, t0),
		raw("3", model.ReasonReviewRequested, t0),
	}, time.Time{}, t0)

	s, n := s.MarkBucketSeen(BucketMention)
	assert.Equal(t, 2, n)
	assert.True(t, s.Records["1"].Seen)
	assert.True(t, s.Records["2"].Seen)
	assert.False(t, s.Records["3"].Seen)

	_, n = s.MarkBucketSeen(BucketMention)
	assert.Zero(t, n)
}

func TestState_Highlights(t *testing.T) {
	s := NewState("octocat").ApplySuccess([]model.RawNotification{
		raw("1", model.ReasonMention, t0),
	}, time.Time{}, t0)
	assert.Empty(t, s.Highlights, "first load never highlights")

	s = s.ApplySuccess([]model.RawNotification{
		raw("1", model.ReasonMention, t0),
		raw("2", model.ReasonReviewRequested, t0),
	}, time.Time{}, t0.Add(time.Minute))
	assert.True(t, s.Highlights[BucketReviewRequested])
	assert.False(t, s.Highlights[BucketMention])

	s = s.ClearHighlight(BucketReviewRequested)
	assert.False(t, s.Highlights[BucketReviewRequested])
}
