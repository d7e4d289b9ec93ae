package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/nhle/reminder/internal/credential"
	"github.com/nhle/reminder/internal/model"
)

// Kind enumerates the fetch failure taxonomy.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindNetwork      Kind = "network"
	KindTimeout      Kind = "timeout"
	KindMalformed    Kind = "malformed"
)

// FetchError is the only error type a Fetcher surfaces to the engine.
type FetchError struct {
	Kind    Kind
	Account string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s (%s)", e.Kind, e.Account)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Kind, e.Account, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError of the given kind.
func NewFetchError(kind Kind, account string, err error) *FetchError {
	return &FetchError{Kind: kind, Account: account, Err: err}
}

// KindOf returns the Kind carried by err, classifying it first when it is
// not already a FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return classifyKind(err)
}

// IsAuthError reports whether err (or any error in its chain) is an
// Unauthorized fetch failure.
func IsAuthError(err error) bool {
	return err != nil && KindOf(err) == KindUnauthorized
}

// Classify wraps an arbitrary transport error into a FetchError. Errors that
// already are FetchErrors are returned unchanged.
func Classify(account string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return NewFetchError(classifyKind(err), account, err)
}

func classifyKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return KindRateLimited
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return KindUnauthorized
		case http.StatusForbidden:
			if respErr.Response.Header.Get("X-RateLimit-Remaining") == "0" {
				return KindRateLimited
			}
			return KindUnauthorized
		case http.StatusTooManyRequests:
			return KindRateLimited
		}
		return KindNetwork
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindMalformed
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindNetwork
}

// FetchResult is one complete batch for an account.
type FetchResult struct {
	Notifications []model.RawNotification

	// LastReadAt is the account's last_read_at as of this fetch.
	LastReadAt time.Time

	FetchedAt time.Time
}

// Fetcher performs the network call for one account. It knows nothing
// about reconciliation; errors must be *FetchError (or classifiable).
type Fetcher interface {
	Fetch(ctx context.Context, login string, cred credential.Credential) (*FetchResult, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, login string, cred credential.Credential) (*FetchResult, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, login string, cred credential.Credential) (*FetchResult, error) {
	return f(ctx, login, cred)
}
