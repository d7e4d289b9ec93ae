package github

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/reminder/internal/credential"
	"github.com/nhle/reminder/internal/model"
	"github.com/nhle/reminder/internal/source"
)

// reviewIDPrefix keeps synthetic review ids apart from notification thread ids.
const reviewIDPrefix = "review:"

// Adapter implements source.Fetcher against the GitHub REST API.
type Adapter struct {
	opts Options
	now  func() time.Time
}

// NewAdapter creates a new GitHub fetch adapter.
func NewAdapter(opts Options) *Adapter {
	if opts.PerPage <= 0 || opts.PerPage > 100 {
		opts.PerPage = 50
	}
	return &Adapter{opts: opts, now: time.Now}
}

var _ source.Fetcher = (*Adapter)(nil)

// Fetch retrieves the account's notification feed (and, if enabled, the
// PRs it recently reviewed) as one batch. Any failure, including a single
// malformed thread, fails the whole batch.
func (a *Adapter) Fetch(
	ctx context.Context,
	login string,
	cred credential.Credential,
) (*source.FetchResult, error) {
	if cred.Empty() {
		return nil, source.NewFetchError(
			source.KindUnauthorized, login, errors.New("account token is missing"),
		)
	}

	client, err := newAPIClient(ctx, a.opts, cred.Token())
	if err != nil {
		return nil, source.NewFetchError(source.KindNetwork, login, err)
	}

	var (
		mu       sync.Mutex
		threads  []*gogithub.Notification
		reviewed []*gogithub.Issue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := listNotifications(gctx, client, a.opts.PerPage)
		if err != nil {
			return err
		}
		mu.Lock()
		threads = list
		mu.Unlock()
		return nil
	})
	if a.opts.IncludeReviews {
		g.Go(func() error {
			list, err := searchReviewedPRs(gctx, client, login, a.opts.PerPage)
			if err != nil {
				return err
			}
			mu.Lock()
			reviewed = list
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, source.Classify(login, err)
	}

	raws, lastReadAt, err := convertThreads(threads)
	if err != nil {
		return nil, source.NewFetchError(source.KindMalformed, login, err)
	}

	reviews, err := convertReviews(reviewed)
	if err != nil {
		return nil, source.NewFetchError(source.KindMalformed, login, err)
	}
	raws = append(raws, reviews...)

	for i := range raws {
		raws[i].LastReadAt = lastReadAt
	}

	return &source.FetchResult{
		Notifications: raws,
		LastReadAt:    lastReadAt,
		FetchedAt:     a.now(),
	}, nil
}

// convertThreads validates and maps notification threads. It also returns
// the account-level last_read_at: the latest read time across all threads.
func convertThreads(threads []*gogithub.Notification) ([]model.RawNotification, time.Time, error) {
	var lastReadAt time.Time
	raws := make([]model.RawNotification, 0, len(threads))
	seen := make(map[string]bool, len(threads))

	for i, n := range threads {
		if n == nil {
			return nil, time.Time{}, fmt.Errorf("thread %d: null entry", i)
		}
		id := n.GetID()
		if id == "" {
			return nil, time.Time{}, fmt.Errorf("thread %d: missing id", i)
		}
		if seen[id] {
			return nil, time.Time{}, fmt.Errorf("thread %s: duplicate id", id)
		}
		seen[id] = true
		if n.UpdatedAt == nil || n.UpdatedAt.IsZero() {
			return nil, time.Time{}, fmt.Errorf("thread %s: missing updated_at", id)
		}
		repo := n.GetRepository().GetFullName()
		if repo == "" {
			return nil, time.Time{}, fmt.Errorf("thread %s: missing repository", id)
		}
		title := n.GetSubject().GetTitle()
		if title == "" {
			return nil, time.Time{}, fmt.Errorf("thread %s: missing subject title", id)
		}

		if read := n.GetLastReadAt().Time; read.After(lastReadAt) {
			lastReadAt = read
		}

		raws = append(raws, model.RawNotification{
			ID:         id,
			Repository: repo,
			Title:      title,
			URL:        n.GetSubject().GetURL(),
			Reason:     model.ParseReason(n.GetReason()),
			RawReason:  n.GetReason(),
			UpdatedAt:  n.GetUpdatedAt().Time.UTC(),
		})
	}

	return raws, lastReadAt.UTC(), nil
}

// convertReviews maps "reviewed-by" search hits into review records.
func convertReviews(issues []*gogithub.Issue) ([]model.RawNotification, error) {
	raws := make([]model.RawNotification, 0, len(issues))

	for i, issue := range issues {
		if issue == nil || issue.ID == nil {
			return nil, fmt.Errorf("review %d: missing id", i)
		}
		if issue.UpdatedAt == nil || issue.UpdatedAt.IsZero() {
			return nil, fmt.Errorf("review %d: missing updated_at", issue.GetID())
		}

		raws = append(raws, model.RawNotification{
			ID:         reviewIDPrefix + strconv.FormatInt(issue.GetID(), 10),
			Repository: repoFromAPIURL(issue.GetRepositoryURL()),
			Title:      fmt.Sprintf("#%d %s", issue.GetNumber(), issue.GetTitle()),
			URL:        issue.GetHTMLURL(),
			Reason:     model.ReasonReview,
			RawReason:  string(model.ReasonReview),
			UpdatedAt:  issue.GetUpdatedAt().Time.UTC(),
		})
	}

	return raws, nil
}

// repoFromAPIURL extracts "owner/name" from a repository API URL.
func repoFromAPIURL(apiURL string) string {
	if idx := strings.Index(apiURL, "/repos/"); idx >= 0 {
		return apiURL[idx+len("/repos/"):]
	}
	return apiURL
}
