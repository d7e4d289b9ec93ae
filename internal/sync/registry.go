package sync

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/reminder/internal/credential"
	"github.com/nhle/reminder/internal/inbox"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

var (
	ErrUnknownAccount   = errors.New("unknown account")
	ErrDuplicateAccount = errors.New("account already registered")
	ErrInvalidLogin     = errors.New("invalid login")
	ErrClosed           = errors.New("registry closed")
)

// GitHub logins: alphanumerics and hyphens; Enterprise managed users may
// carry an underscore suffix.
var loginPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,62}$`)

// NormalizeLogin trims login and validates its shape.
func NormalizeLogin(login string) (string, error) {
	login = strings.TrimSpace(login)
	if !loginPattern.MatchString(login) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLogin, login)
	}
	return login, nil
}

// RunRecorder persists the outcome of each fetch attempt.
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, run model.SyncRun) error
}

// Config tunes a Registry. Zero values select defaults.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    clockwork.Clock
	Logger   *zap.Logger
	Recorder RunRecorder

	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
}

// Event is published after each fetch attempt completes.
type Event struct {
	Login   string
	FetchID string
	Outcome model.SyncOutcome
	Err     error
	Records int
}

type account struct {
	state  inbox.State
	filter inbox.Filter
	cancel context.CancelFunc
}

// Registry owns every account's inbox state and dispatches fetches. All
// state transitions happen under mu; network calls never do.
type Registry struct {
	fetcher source.Fetcher
	creds   credential.Store
	cfg     Config
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
	events chan Event

	mu       gosync.Mutex
	order    []string
	accounts map[string]*account
	closed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry(fetcher source.Fetcher, creds credential.Store, cfg Config) *Registry {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		fetcher:  fetcher,
		creds:    creds,
		cfg:      cfg,
		log:      cfg.Logger.Named("registry"),
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, cfg.EventBuffer),
		accounts: make(map[string]*account),
	}
}

// Interval returns the automatic refresh period in use.
func (r *Registry) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg.Interval
}

// SetInterval changes the automatic refresh interval. It applies from the
// next scheduler pass; fetches in flight are unaffected.
func (r *Registry) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	r.mu.Lock()
	r.cfg.Interval = d
	r.mu.Unlock()
}

// Add registers login at the end of the display order. The account starts
// never-synced, so the next Tick loads it.
func (r *Registry) Add(login string) error {
	login, err := NormalizeLogin(login)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.accounts[login]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, login)
	}

	r.accounts[login] = &account{state: inbox.NewState(login)}
	r.order = append(r.order, login)
	r.log.Info("account added", zap.String("account", login))
	return nil
}

// Remove drops login. A fetch in flight for it is cancelled and its
// result discarded.
func (r *Registry) Remove(login string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[login]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, login)
	}
	if acc.cancel != nil {
		acc.cancel()
	}

	delete(r.accounts, login)
	for i, l := range r.order {
		if l == login {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}

	r.log.Info("account removed", zap.String("account", login))
	return nil
}

// Logins returns account logins in display order.
func (r *Registry) Logins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RequestRefresh asks the scheduler whether login should be fetched now
// and, if so, marks it in flight and dispatches the fetch. The decision and
// the transition happen in one critical section. It reports whether a
// fetch was dispatched.
func (r *Registry) RequestRefresh(login string, manual bool) (bool, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, ErrClosed
	}
	acc, ok := r.accounts[login]
	if !ok {
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownAccount, login)
	}

	now := r.cfg.Clock.Now()
	if !ShouldRefresh(acc.state, now, r.cfg.Interval, manual) {
		r.mu.Unlock()
		return false, nil
	}

	fetchID := uuid.NewString()
	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.Timeout)
	acc.state = acc.state.BeginFetch(fetchID)
	acc.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	r.log.Debug("fetch dispatched",
		zap.String("account", login),
		zap.String("fetch_id", fetchID),
		zap.Bool("manual", manual),
	)

	go r.run(ctx, cancel, login, fetchID, now)
	return true, nil
}

// RefreshAll requests a refresh for every account and returns the logins
// that were dispatched.
func (r *Registry) RefreshAll(manual bool) []string {
	var dispatched []string
	for _, login := range r.Logins() {
		ok, err := r.RequestRefresh(login, manual)
		if err != nil {
			// Removed between Logins and RequestRefresh.
			continue
		}
		if ok {
			dispatched = append(dispatched, login)
		}
	}
	return dispatched
}

// Tick runs the automatic schedule once across all accounts.
func (r *Registry) Tick() []string {
	return r.RefreshAll(false)
}

func (r *Registry) run(
	ctx context.Context,
	cancel context.CancelFunc,
	login, fetchID string,
	startedAt time.Time,
) {
	defer r.wg.Done()
	defer cancel()

	var (
		res *source.FetchResult
		err error
	)

	cred, credErr := r.creds.Get(login)
	if credErr != nil {
		err = source.NewFetchError(source.KindUnauthorized, login, credErr)
	} else {
		res, err = r.fetcher.Fetch(ctx, login, cred)
		if err == nil && res == nil {
			err = source.NewFetchError(source.KindMalformed, login, errors.New("empty fetch result"))
		}
		err = source.Classify(login, err)
	}

	r.complete(login, fetchID, startedAt, res, err)
}

// complete applies a fetch outcome. Records and the in-flight flag change
// together under mu.
func (r *Registry) complete(
	login, fetchID string,
	startedAt time.Time,
	res *source.FetchResult,
	err error,
) {
	finishedAt := r.cfg.Clock.Now()
	outcome := model.SyncSucceeded
	records := 0

	r.mu.Lock()
	acc, ok := r.accounts[login]
	switch {
	case !ok || acc.state.FetchID != fetchID:
		outcome = model.SyncDiscarded
	case err != nil:
		outcome = model.SyncFailed
		acc.state = acc.state.ApplyFailure(err)
		acc.cancel = nil
	default:
		acc.state = acc.state.ApplySuccess(res.Notifications, res.LastReadAt, finishedAt)
		acc.cancel = nil
		records = len(acc.state.Records)
	}
	r.mu.Unlock()

	fields := []zap.Field{
		zap.String("account", login),
		zap.String("fetch_id", fetchID),
		zap.String("outcome", string(outcome)),
		zap.Duration("duration", finishedAt.Sub(startedAt)),
	}
	switch outcome {
	case model.SyncFailed:
		r.log.Warn("fetch failed", append(fields,
			zap.String("kind", string(source.KindOf(err))),
			zap.Error(err),
		)...)
	case model.SyncDiscarded:
		r.log.Info("fetch result discarded", fields...)
	default:
		r.log.Info("fetch succeeded", append(fields, zap.Int("records", records))...)
	}

	r.record(model.SyncRun{
		ID:          fetchID,
		Login:       login,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Outcome:     outcome,
		ErrorKind:   errorKind(err),
		Error:       errorText(err),
		RecordCount: records,
	})

	r.publish(Event{
		Login:   login,
		FetchID: fetchID,
		Outcome: outcome,
		Err:     err,
		Records: records,
	})
}

func (r *Registry) record(run model.SyncRun) {
	if r.cfg.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.cfg.Recorder.RecordSyncRun(ctx, run); err != nil {
		r.log.Warn("recording sync run", zap.String("account", run.Login), zap.Error(err))
	}
}

// publish sends ev without blocking; consumers re-read snapshots, so a
// dropped event only delays a redraw.
func (r *Registry) publish(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

// Events delivers one Event per completed fetch.
func (r *Registry) Events() <-chan Event {
	return r.events
}

// Snapshot returns a copy of login's state safe to read without locking.
func (r *Registry) Snapshot(login string) (inbox.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[login]
	if !ok {
		return inbox.State{}, fmt.Errorf("%w: %s", ErrUnknownAccount, login)
	}
	return acc.state, nil
}

// Snapshots returns every account's state in display order.
func (r *Registry) Snapshots() []inbox.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]inbox.State, 0, len(r.order))
	for _, login := range r.order {
		out = append(out, r.accounts[login].state)
	}
	return out
}

// View projects login's current records through its filter.
func (r *Registry) View(login string) (inbox.BucketedView, error) {
	r.mu.Lock()
	acc, ok := r.accounts[login]
	if !ok {
		r.mu.Unlock()
		return inbox.BucketedView{}, fmt.Errorf("%w: %s", ErrUnknownAccount, login)
	}
	state, filter := acc.state, acc.filter
	r.mu.Unlock()

	return inbox.View(state, filter), nil
}

// Views projects every account in display order.
func (r *Registry) Views() []inbox.BucketedView {
	r.mu.Lock()
	type pair struct {
		state  inbox.State
		filter inbox.Filter
	}
	pairs := make([]pair, 0, len(r.order))
	for _, login := range r.order {
		acc := r.accounts[login]
		pairs = append(pairs, pair{acc.state, acc.filter})
	}
	r.mu.Unlock()

	views := make([]inbox.BucketedView, len(pairs))
	for i, p := range pairs {
		views[i] = inbox.View(p.state, p.filter)
	}
	return views
}

// SetFilter replaces login's transient filter text.
func (r *Registry) SetFilter(login, text string) error {
	return r.update(login, func(acc *account) {
		acc.filter = inbox.NewFilter(text)
	})
}

// MarkSeen flags one record of login as seen. It reports whether anything
// changed.
func (r *Registry) MarkSeen(login, id string) (bool, error) {
	var changed bool
	err := r.update(login, func(acc *account) {
		acc.state, changed = acc.state.MarkSeen(id)
	})
	return changed, err
}

// MarkBucketSeen flags every unseen record in bucket b as seen.
func (r *Registry) MarkBucketSeen(login string, b inbox.Bucket) (int, error) {
	var n int
	err := r.update(login, func(acc *account) {
		acc.state, n = acc.state.MarkBucketSeen(b)
	})
	return n, err
}

// ClearHighlight acknowledges bucket b of login.
func (r *Registry) ClearHighlight(login string, b inbox.Bucket) error {
	return r.update(login, func(acc *account) {
		acc.state = acc.state.ClearHighlight(b)
	})
}

func (r *Registry) update(login string, fn func(acc *account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[login]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, login)
	}
	fn(acc)
	return nil
}

// Wait blocks until every dispatched fetch has completed.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Close cancels fetches in flight and waits for them to finish. Later
// refresh requests fail with ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	return string(source.KindOf(err))
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
