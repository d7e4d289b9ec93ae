package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseReason(t *testing.T) {
	cases := map[string]Reason{
		"review_requested": ReasonReviewRequested,
		"mention":          ReasonMention,
		"team_mention":     ReasonMention,
		"review":           ReasonReview,
		"subscribed":       ReasonSubscribed,
		"ci_activity":      ReasonOther,
		"":                 ReasonOther,
		" Mention ":        ReasonMention,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseReason(raw), "reason %q", raw)
	}
}

func TestNormalizeSubjectURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://api.github.com/repos/acme/app/pulls/12", "https://github.com/acme/app/pull/12"},
		{"https://api.github.com/repos/acme/app/issues/3", "https://github.com/acme/app/issues/3"},
		{"https://ghe.corp/api/v3/repos/acme/app/pulls/7", "https://ghe.corp/acme/app/pull/7"},
		{"https://github.com/acme/app/pull/12", "https://github.com/acme/app/pull/12"},
		{"", ""},
	}
	for _, tc := range cases {
		got := NormalizeSubjectURL(tc.in)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, got, NormalizeSubjectURL(got), "normalizing %q twice", tc.in)
	}
}

func TestNewRecord(t *testing.T) {
	read := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := RawNotification{
		ID:         "1",
		Repository: "acme/app",
		Title:      "Fix it",
		URL:        "https://api.github.com/repos/acme/app/pulls/1",
		Reason:     ReasonReviewRequested,
		RawReason:  "review_requested",
		UpdatedAt:  read.Add(time.Hour),
	}

	rec := NewRecord(raw, read)
	assert.True(t, rec.UpdatedAfterRead)
	assert.False(t, rec.Seen)
	assert.Equal(t, "https://github.com/acme/app/pull/1", rec.URL)
	assert.Equal(t, read, rec.LastReadAt)

	raw.UpdatedAt = read
	assert.False(t, NewRecord(raw, read).UpdatedAfterRead, "equal timestamps are not an update")
}

func TestReasonLabel(t *testing.T) {
	rec := NotificationRecord{Reason: ReasonMention, RawReason: "team_mention"}
	assert.Equal(t, "Mention (team_mention)", rec.ReasonLabel())

	rec = NotificationRecord{Reason: ReasonMention, RawReason: "mention"}
	assert.Equal(t, "Mention", rec.ReasonLabel())
}
