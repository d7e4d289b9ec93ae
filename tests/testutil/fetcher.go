package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/reminder/internal/credential"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
)

type fakeResponse struct {
	res *source.FetchResult
	err error
}

// FakeFetcher is a scriptable source.Fetcher. Responses are queued per
// login; the last one repeats once the queue is drained. With no response
// queued a fetch succeeds with an empty batch.
//
// Block makes subsequent fetches wait until Release (or their context
// ends), which lets tests hold a fetch in flight. BlockLogin does the same
// for a single account.
type FakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     map[string]int
	tokens    map[string]string
	gate      chan struct{}
	gates     map[string]chan struct{}
	started   chan string
}

// NewFakeFetcher returns a FakeFetcher with no scripted responses.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		responses: make(map[string][]fakeResponse),
		calls:     make(map[string]int),
		tokens:    make(map[string]string),
		gates:     make(map[string]chan struct{}),
		started:   make(chan string, 64),
	}
}

var _ source.Fetcher = (*FakeFetcher)(nil)

// Succeed queues a successful batch for login.
func (f *FakeFetcher) Succeed(login string, raws []model.RawNotification, lastReadAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[login] = append(f.responses[login], fakeResponse{
		res: &source.FetchResult{Notifications: raws, LastReadAt: lastReadAt},
	})
}

// Fail queues a failure for login.
func (f *FakeFetcher) Fail(login string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[login] = append(f.responses[login], fakeResponse{err: err})
}

// Block holds every subsequent fetch until Release.
func (f *FakeFetcher) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

// Release lets blocked fetches proceed.
func (f *FakeFetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// BlockLogin holds subsequent fetches for login until ReleaseLogin. It
// takes precedence over Block for that login.
func (f *FakeFetcher) BlockLogin(login string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.gates[login]; !ok {
		f.gates[login] = make(chan struct{})
	}
}

// ReleaseLogin lets login's blocked fetches proceed.
func (f *FakeFetcher) ReleaseLogin(login string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.gates[login]; ok {
		close(g)
		delete(f.gates, login)
	}
}

// Started receives the login of every fetch as it begins.
func (f *FakeFetcher) Started() <-chan string {
	return f.started
}

// Calls returns how many fetches ran for login.
func (f *FakeFetcher) Calls(login string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[login]
}

// Token returns the token passed on login's last fetch.
func (f *FakeFetcher) Token(login string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[login]
}

// Fetch implements source.Fetcher.
func (f *FakeFetcher) Fetch(
	ctx context.Context,
	login string,
	cred credential.Credential,
) (*source.FetchResult, error) {
	f.mu.Lock()
	f.calls[login]++
	f.tokens[login] = cred.Token()
	gate := f.gate
	if g, ok := f.gates[login]; ok {
		gate = g
	}

	var resp fakeResponse
	if queue := f.responses[login]; len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			f.responses[login] = queue[1:]
		}
	} else {
		resp = fakeResponse{res: &source.FetchResult{}}
	}
	f.mu.Unlock()

	select {
	case f.started <- login:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if resp.err != nil {
		return nil, resp.err
	}
	return resp.res, nil
}
