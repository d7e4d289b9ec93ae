package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// userAgent identifies the application to the GitHub API.
const userAgent = "reminder/1.0"

// Options configures the API client.
type Options struct {
	// BaseURL is empty for github.com, otherwise the Enterprise API root
	// (e.g. https://ghe.example.com/api/v3/).
	BaseURL string

	// PerPage is the page size for paginated list calls (max 100).
	PerPage int

	// IncludeReviews adds "reviewed-by" search results as review records.
	IncludeReviews bool

	// HTTPClient is the base transport the oauth2 client wraps. Nil uses
	// a client with a 30s timeout.
	HTTPClient *http.Client
}

// newAPIClient returns a go-github client authenticated with token.
func newAPIClient(ctx context.Context, opts Options, token string) (*gogithub.Client, error) {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gogithub.NewClient(oauth2.NewClient(ctx, ts))
	client.UserAgent = userAgent

	if opts.BaseURL == "" {
		return client, nil
	}

	baseURL := opts.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	if strings.Contains(baseURL, "/api/v3/") {
		enterprise, err := client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring enterprise URL %s: %w", opts.BaseURL, err)
		}
		return enterprise, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %s: %w", opts.BaseURL, err)
	}
	client.BaseURL = u
	return client, nil
}

// listNotifications pages through /notifications?all=true.
func listNotifications(ctx context.Context, client *gogithub.Client, perPage int) ([]*gogithub.Notification, error) {
	var all []*gogithub.Notification
	opts := &gogithub.NotificationListOptions{
		All: true,
		ListOptions: gogithub.ListOptions{
			PerPage: perPage,
		},
	}

	for {
		page, resp, err := client.Activity.ListNotifications(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("listing notifications: %w", err)
		}

		all = append(all, page...)

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// searchReviewedPRs returns the first page of PRs reviewed by login,
// most recently updated first.
func searchReviewedPRs(ctx context.Context, client *gogithub.Client, login string, perPage int) ([]*gogithub.Issue, error) {
	query := fmt.Sprintf("is:pr reviewed-by:%s", login)
	result, _, err := client.Search.Issues(ctx, query, &gogithub.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: gogithub.ListOptions{
			PerPage: perPage,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching reviewed PRs: %w", err)
	}

	return result.Issues, nil
}
