package model

import (
	"strings"
	"time"
)

// Reason classifies why a notification reached the account.
type Reason string

const (
	ReasonReviewRequested Reason = "review_requested"
	ReasonMention         Reason = "mention"
	ReasonReview          Reason = "review"
	ReasonSubscribed      Reason = "subscribed"
	ReasonOther           Reason = "other"
)

// ParseReason maps a GitHub notification reason string onto a Reason.
// Team mentions are folded into ReasonMention; anything unrecognised is
// ReasonOther.
func ParseReason(raw string) Reason {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "review_requested":
		return ReasonReviewRequested
	case "mention", "team_mention":
		return ReasonMention
	case "review":
		return ReasonReview
	case "subscribed":
		return ReasonSubscribed
	default:
		return ReasonOther
	}
}

// Label returns the human-readable label used in filters and rows.
func (r Reason) Label() string {
	switch r {
	case ReasonReviewRequested:
		return "Review requested"
	case ReasonMention:
		return "Mention"
	case ReasonReview:
		return "Reviewed"
	case ReasonSubscribed:
		return "Subscribed"
	default:
		return "Other"
	}
}

// RawNotification is one notification as delivered by a fetch, before any
// local state is attached.
type RawNotification struct {
	// ID is the remote thread id. Stable across fetches.
	ID string `json:"id"`

	// Repository is the full "owner/name" of the repository.
	Repository string `json:"repository"`

	// Title is the subject title.
	Title string `json:"title"`

	// URL is the subject URL as returned by the API (not normalized).
	URL string `json:"url"`

	// Reason is the mapped reason code.
	Reason Reason `json:"reason"`

	// RawReason keeps the original GitHub reason string (e.g. "team_mention").
	RawReason string `json:"raw_reason"`

	// UpdatedAt is the remote updated_at of the thread.
	UpdatedAt time.Time `json:"updated_at"`

	// LastReadAt is the account-level last_read_at at fetch time.
	LastReadAt time.Time `json:"last_read_at"`
}

// NotificationRecord is a RawNotification plus the two locally derived flags.
// Records are values; reconciliation builds new ones instead of mutating.
type NotificationRecord struct {
	ID         string    `json:"id"`
	Repository string    `json:"repository"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Reason     Reason    `json:"reason"`
	RawReason  string    `json:"raw_reason"`
	UpdatedAt  time.Time `json:"updated_at"`
	LastReadAt time.Time `json:"last_read_at"`

	// UpdatedAfterRead is UpdatedAt > LastReadAt, recomputed on every fetch.
	UpdatedAfterRead bool `json:"updated_after_read"`

	// Seen is the local "displayed in this app" flag. It is independent of
	// GitHub's own read state.
	Seen bool `json:"seen"`
}

// NewRecord builds an unseen record from raw transport data, comparing its
// update time against lastReadAt. The subject URL is normalized.
func NewRecord(raw RawNotification, lastReadAt time.Time) NotificationRecord {
	return NotificationRecord{
		ID:               raw.ID,
		Repository:       raw.Repository,
		Title:            raw.Title,
		URL:              NormalizeSubjectURL(raw.URL),
		Reason:           raw.Reason,
		RawReason:        raw.RawReason,
		UpdatedAt:        raw.UpdatedAt,
		LastReadAt:       lastReadAt,
		UpdatedAfterRead: raw.UpdatedAt.After(lastReadAt),
	}
}

// ReasonLabel returns the label shown for the record, preferring the
// original GitHub reason when it carries more detail than the mapped code.
func (n NotificationRecord) ReasonLabel() string {
	if n.RawReason != "" && n.RawReason != string(n.Reason) {
		return n.Reason.Label() + " (" + n.RawReason + ")"
	}
	return n.Reason.Label()
}

// NormalizeSubjectURL rewrites an API subject URL into the browser form:
// "api.github.com/repos/" becomes "github.com/", Enterprise "/api/v3/repos/"
// becomes "/", and "/pulls/" becomes "/pull/". Applying it twice is a no-op.
func NormalizeSubjectURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	u = strings.Replace(u, "://api.github.com/repos/", "://github.com/", 1)
	u = strings.Replace(u, "/api/v3/repos/", "/", 1)
	return strings.ReplaceAll(u, "/pulls/", "/pull/")
}
