package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/reminder/internal/inbox"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
	"github.com/nhle/reminder/tests/testutil"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func notification(id string, reason model.Reason, updated time.Time) model.RawNotification {
	return model.RawNotification{
		ID:         id,
		Repository: "acme/app",
		Title:      "Item " + id,
		Reason:     reason,
		RawReason:  string(reason),
		UpdatedAt:  updated,
	}
}

type memRecorder struct {
	mu   gosync.Mutex
	runs []model.SyncRun
}

func (m *memRecorder) RecordSyncRun(_ context.Context, run model.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRecorder) outcomes() []model.SyncOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SyncOutcome, len(m.runs))
	for i, r := range m.runs {
		out[i] = r.Outcome
	}
	return out
}

type fixture struct {
	reg      *Registry
	fetcher  *testutil.FakeFetcher
	clock    *clockwork.FakeClock
	recorder *memRecorder
}

func newFixture(t *testing.T, logins ...string) *fixture {
	t.Helper()

	f := &fixture{
		fetcher:  testutil.NewFakeFetcher(),
		clock:    clockwork.NewFakeClockAt(epoch),
		recorder: &memRecorder{},
	}
	f.reg = NewRegistry(f.fetcher, testutil.NewTestKeyring(t, logins...), Config{
		Interval: time.Minute,
		Timeout:  time.Second,
		Clock:    f.clock,
		Logger:   zap.NewNop(),
		Recorder: f.recorder,
	})
	t.Cleanup(f.reg.Close)

	for _, login := range logins {
		require.NoError(t, f.reg.Add(login))
	}
	return f
}

func (f *fixture) refresh(t *testing.T, login string) {
	t.Helper()
	ok, err := f.reg.RequestRefresh(login, true)
	require.NoError(t, err)
	require.True(t, ok)
	f.reg.Wait()
}

func (f *fixture) snapshot(t *testing.T, login string) inbox.State {
	t.Helper()
	s, err := f.reg.Snapshot(login)
	require.NoError(t, err)
	return s
}

func TestRegistry_AddValidation(t *testing.T) {
	f := newFixture(t, "octocat")

	assert.ErrorIs(t, f.reg.Add(""), ErrInvalidLogin)
	assert.ErrorIs(t, f.reg.Add("   "), ErrInvalidLogin)
	assert.ErrorIs(t, f.reg.Add("two words"), ErrInvalidLogin)
	assert.ErrorIs(t, f.reg.Add(" octocat "), ErrDuplicateAccount)

	require.NoError(t, f.reg.Add("  hubot "))
	assert.Equal(t, []string{"octocat", "hubot"}, f.reg.Logins())

	assert.ErrorIs(t, f.reg.Remove("ghost"), ErrUnknownAccount)
	_, err := f.reg.RequestRefresh("ghost", true)
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestRegistry_SuccessfulFetch(t *testing.T) {
	f := newFixture(t, "octocat")
	f.fetcher.Succeed("octocat", []model.RawNotification{
		notification("1", model.ReasonReviewRequested, epoch),
		notification("2", model.ReasonMention, epoch.Add(-time.Hour)),
	}, epoch.Add(-30*time.Minute))

	f.refresh(t, "octocat")

	s := f.snapshot(t, "octocat")
	assert.False(t, s.FetchInFlight)
	assert.NoError(t, s.LastError)
	assert.True(t, s.LastSyncedAt.Equal(epoch))
	assert.Len(t, s.Records, 2)
	assert.True(t, s.Records["1"].UpdatedAfterRead)
	assert.False(t, s.Records["2"].UpdatedAfterRead)
	assert.Equal(t, "token-octocat", f.fetcher.Token("octocat"))

	ev := <-f.reg.Events()
	assert.Equal(t, "octocat", ev.Login)
	assert.Equal(t, model.SyncSucceeded, ev.Outcome)
	assert.Equal(t, 2, ev.Records)
	assert.Equal(t, []model.SyncOutcome{model.SyncSucceeded}, f.recorder.outcomes())
}

func TestRegistry_AtMostOneInFlight(t *testing.T) {
	f := newFixture(t, "octocat")
	f.fetcher.Block()

	ok, err := f.reg.RequestRefresh("octocat", true)
	require.NoError(t, err)
	require.True(t, ok)
	<-f.fetcher.Started()

	var wg gosync.WaitGroup
	var mu gosync.Mutex
	dispatched := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := f.reg.RequestRefresh("octocat", true)
			if ok {
				mu.Lock()
				dispatched++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, dispatched)
	assert.Empty(t, f.reg.Tick())
	assert.True(t, f.snapshot(t, "octocat").FetchInFlight)

	f.fetcher.Release()
	f.reg.Wait()

	assert.False(t, f.snapshot(t, "octocat").FetchInFlight)
	assert.Equal(t, 1, f.fetcher.Calls("octocat"))
}

func TestRegistry_ConcurrentFirstDispatch(t *testing.T) {
	f := newFixture(t, "octocat")
	f.fetcher.Block()

	var wg gosync.WaitGroup
	results := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := f.reg.RequestRefresh("octocat", i%2 == 0)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	n := 0
	for ok := range results {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)

	f.fetcher.Release()
	f.reg.Wait()
	assert.Equal(t, 1, f.fetcher.Calls("octocat"))
}

func TestRegistry_FailureKeepsRecords(t *testing.T) {
	f := newFixture(t, "octocat")
	f.fetcher.Succeed("octocat", []model.RawNotification{
		notification("1", model.ReasonMention, epoch),
	}, time.Time{})
	f.fetcher.Fail("octocat", source.NewFetchError(source.KindRateLimited, "octocat", errors.New("slow down")))

	f.refresh(t, "octocat")
	before := f.snapshot(t, "octocat")

	f.clock.Advance(time.Minute)
	f.refresh(t, "octocat")

	after := f.snapshot(t, "octocat")
	assert.False(t, after.FetchInFlight)
	assert.Equal(t, source.KindRateLimited, source.KindOf(after.LastError))
	assert.Equal(t, before.Records, after.Records)
	assert.True(t, after.LastSyncedAt.Equal(epoch))
	assert.Equal(t, []model.SyncOutcome{model.SyncSucceeded, model.SyncFailed}, f.recorder.outcomes())

	assert.Equal(t, "failing: octocat", f.reg.Status().String())
}

func TestRegistry_InFlightAccountDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t, "octocat", "hubot")
	f.fetcher.BlockLogin("octocat")
	defer f.fetcher.ReleaseLogin("octocat")
	f.fetcher.Succeed("hubot", []model.RawNotification{
		notification("h1", model.ReasonMention, epoch),
	}, epoch.Add(-time.Hour))

	ok, err := f.reg.RequestRefresh("octocat", true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "octocat", <-f.fetcher.Started())

	ok, err = f.reg.RequestRefresh("hubot", true)
	require.NoError(t, err)
	require.True(t, ok)

	select {
	case ev := <-f.reg.Events():
		require.Equal(t, "hubot", ev.Login)
		assert.Equal(t, model.SyncSucceeded, ev.Outcome)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("hubot did not complete while octocat was in flight")
	}

	hubot := f.snapshot(t, "hubot")
	assert.True(t, hubot.LastSyncedAt.Equal(epoch))
	assert.NoError(t, hubot.LastError)
	assert.Equal(t, []string{"h1"}, hubot.IDs())
	assert.False(t, hubot.FetchInFlight)

	octocat := f.snapshot(t, "octocat")
	assert.True(t, octocat.FetchInFlight)
	assert.False(t, octocat.HasSynced())

	f.fetcher.ReleaseLogin("octocat")
	f.reg.Wait()
	assert.False(t, f.snapshot(t, "octocat").FetchInFlight)
}

func TestRegistry_FailureStaysWithAccount(t *testing.T) {
	f := newFixture(t, "octocat", "hubot")
	f.fetcher.Fail("octocat", source.NewFetchError(source.KindUnauthorized, "octocat", errors.New("bad credentials")))
	f.fetcher.Succeed("hubot", []model.RawNotification{
		notification("h1", model.ReasonReviewRequested, epoch),
	}, epoch.Add(-time.Hour))

	assert.ElementsMatch(t, []string{"octocat", "hubot"}, f.reg.RefreshAll(true))
	f.reg.Wait()

	octocat := f.snapshot(t, "octocat")
	assert.True(t, source.IsAuthError(octocat.LastError))
	assert.False(t, octocat.FetchInFlight)

	hubot := f.snapshot(t, "hubot")
	assert.NoError(t, hubot.LastError)
	assert.True(t, hubot.HasSynced())
	assert.Equal(t, []string{"h1"}, hubot.IDs())
}

func TestRegistry_TimeoutIsFailure(t *testing.T) {
	f := newFixture(t, "octocat")
	f.fetcher.Block()
	defer f.fetcher.Release()

	f.refresh(t, "octocat")

	s := f.snapshot(t, "octocat")
	assert.False(t, s.FetchInFlight)
	assert.Equal(t, source.KindTimeout, source.KindOf(s.LastError))
	assert.False(t, s.HasSynced())
}

func TestRegistry_MissingCredential(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Add("nokey"))

	f.refresh(t, "nokey")

	s := f.snapshot(t, "nokey")
	assert.True(t, source.IsAuthError(s.LastError))
	assert.Zero(t, f.fetcher.Calls("nokey"))
}

func TestRegistry_RemoveDiscardsLateResult(t *testing.T) {
	f := newFixture(t, "octocat", "hubot")
	f.fetcher.Block()

	ok, err := f.reg.RequestRefresh("octocat", true)
	require.NoError(t, err)
	require.True(t, ok)
	<-f.fetcher.Started()

	require.NoError(t, f.reg.Remove("octocat"))
	require.NoError(t, f.reg.Add("octocat"))

	f.fetcher.Release()
	f.reg.Wait()

	s := f.snapshot(t, "octocat")
	assert.False(t, s.HasSynced(), "result for the removed account is not applied to the new one")
	assert.False(t, s.FetchInFlight)
	assert.Equal(t, []string{"hubot", "octocat"}, f.reg.Logins())
	assert.Equal(t, []model.SyncOutcome{model.SyncDiscarded}, f.recorder.outcomes())
}

func TestRegistry_IntervalSchedule(t *testing.T) {
	f := newFixture(t, "octocat", "hubot")

	assert.ElementsMatch(t, []string{"octocat", "hubot"}, f.reg.Tick(), "first load is immediate")
	f.reg.Wait()
	assert.Empty(t, f.reg.Tick())

	f.clock.Advance(30 * time.Second)
	assert.Empty(t, f.reg.Tick())

	f.clock.Advance(30 * time.Second)
	assert.ElementsMatch(t, []string{"octocat", "hubot"}, f.reg.Tick())
	f.reg.Wait()
}

func TestRegistry_SeenSurvivesRefresh(t *testing.T) {
	f := newFixture(t, "octocat")
	batch := []model.RawNotification{
		notification("1", model.ReasonMention, epoch),
		notification("2", model.ReasonMention, epoch),
	}
	f.fetcher.Succeed("octocat", batch, time.Time{})
	f.fetcher.Succeed("octocat", batch, time.Time{})
	f.fetcher.Succeed("octocat", []model.RawNotification{
		notification("1", model.ReasonMention, epoch.Add(time.Minute)),
		notification("2", model.ReasonMention, epoch),
	}, time.Time{})

	f.refresh(t, "octocat")
	n, err := f.reg.MarkBucketSeen("octocat", inbox.BucketMention)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f.refresh(t, "octocat")
	s := f.snapshot(t, "octocat")
	assert.True(t, s.Records["1"].Seen)
	assert.True(t, s.Records["2"].Seen)

	f.refresh(t, "octocat")
	s = f.snapshot(t, "octocat")
	assert.False(t, s.Records["1"].Seen, "new activity reopens the item")
	assert.True(t, s.Records["2"].Seen)
	assert.True(t, s.Highlights[inbox.BucketMention])

	require.NoError(t, f.reg.ClearHighlight("octocat", inbox.BucketMention))
	changed, err := f.reg.MarkSeen("octocat", "1")
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := f.reg.View("octocat")
	require.NoError(t, err)
	mentions := v.Section(inbox.BucketMention)
	assert.Zero(t, mentions.UnseenCount)
	assert.False(t, mentions.Highlighted)
}

func TestRegistry_FilterIsPerAccount(t *testing.T) {
	f := newFixture(t, "octocat", "hubot")
	f.fetcher.Succeed("octocat", []model.RawNotification{
		notification("1", model.ReasonMention, epoch),
	}, time.Time{})
	f.fetcher.Succeed("hubot", []model.RawNotification{
		notification("9", model.ReasonMention, epoch),
	}, time.Time{})
	f.reg.RefreshAll(true)
	f.reg.Wait()

	require.NoError(t, f.reg.SetFilter("octocat", "no-such-repo"))

	views := f.reg.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "octocat", views[0].Login)
	assert.Empty(t, views[0].Section(inbox.BucketMention).Rows)
	assert.Len(t, views[1].Section(inbox.BucketMention).Rows, 1)
}

func TestRegistry_Close(t *testing.T) {
	f := newFixture(t, "octocat")
	f.fetcher.Block()

	ok, err := f.reg.RequestRefresh("octocat", true)
	require.NoError(t, err)
	require.True(t, ok)
	<-f.fetcher.Started()

	f.reg.Close()

	s := f.snapshot(t, "octocat")
	assert.False(t, s.FetchInFlight)
	assert.Equal(t, source.KindTimeout, source.KindOf(s.LastError))

	_, err = f.reg.RequestRefresh("octocat", true)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.reg.Add("hubot"), ErrClosed)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "no accounts", Status{}.String())
	assert.Equal(t, "idle", Status{Accounts: 2}.String())
	assert.Equal(t, "syncing (1) · failing: a, b", Status{
		Accounts: 3,
		Syncing:  []string{"c"},
		Failing:  []string{"a", "b"},
	}.String())
}
