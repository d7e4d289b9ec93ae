package inbox

import (
	"sort"
	"time"

	"github.com/nhle/reminder/internal/model"
)

// Bucket is one of the four reason groupings shown as a section.
type Bucket int

const (
	BucketReviewRequested Bucket = iota
	BucketMention
	BucketReview
	BucketOther
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketReviewRequested, BucketMention, BucketReview, BucketOther}

// Title returns the section heading for b.
func (b Bucket) Title() string {
	switch b {
	case BucketReviewRequested:
		return "Review requests"
	case BucketMention:
		return "Mentions"
	case BucketReview:
		return "Recent reviews"
	default:
		return "Notifications"
	}
}

func (b Bucket) String() string {
	switch b {
	case BucketReviewRequested:
		return "review_requested"
	case BucketMention:
		return "mention"
	case BucketReview:
		return "review"
	default:
		return "other"
	}
}

// BucketFor maps a reason onto its bucket. Subscribed and unknown reasons
// land in BucketOther.
func BucketFor(r model.Reason) Bucket {
	switch r {
	case model.ReasonReviewRequested:
		return BucketReviewRequested
	case model.ReasonMention:
		return BucketMention
	case model.ReasonReview:
		return BucketReview
	default:
		return BucketOther
	}
}

// Section is one bucket of a BucketedView.
type Section struct {
	Bucket Bucket

	// Rows are the records passing the filter, newest first.
	Rows []model.NotificationRecord

	// UnseenCount and UpdatedCount are computed over Rows.
	UnseenCount  int
	UpdatedCount int

	// Total is the unfiltered record count of the bucket.
	Total int

	Highlighted bool
}

// BucketedView is a read-only projection of one account for presentation.
type BucketedView struct {
	Login         string
	Filter        string
	LastSyncedAt  time.Time
	FetchInFlight bool
	LastError     error
	Sections      []Section
}

// Section returns the section for b.
func (v BucketedView) Section(b Bucket) Section {
	for _, s := range v.Sections {
		if s.Bucket == b {
			return s
		}
	}
	return Section{Bucket: b}
}

// UnseenTotal sums UnseenCount across sections.
func (v BucketedView) UnseenTotal() int {
	n := 0
	for _, s := range v.Sections {
		n += s.UnseenCount
	}
	return n
}

// View partitions the records of s into buckets, keeping those that pass
// filter. Counts are taken from the same filtered rows that are returned.
func View(s State, filter Filter) BucketedView {
	sections := make([]Section, len(Buckets))
	for i, b := range Buckets {
		sections[i] = Section{Bucket: b, Highlighted: s.Highlights[b]}
	}

	for _, rec := range s.Records {
		sec := &sections[BucketFor(rec.Reason)]
		sec.Total++
		if !filter.Match(rec) {
			continue
		}
		sec.Rows = append(sec.Rows, rec)
		if !rec.Seen {
			sec.UnseenCount++
		}
		if rec.UpdatedAfterRead {
			sec.UpdatedCount++
		}
	}

	for i := range sections {
		sortRows(sections[i].Rows)
	}

	return BucketedView{
		Login:         s.Login,
		Filter:        filter.Text(),
		LastSyncedAt:  s.LastSyncedAt,
		FetchInFlight: s.FetchInFlight,
		LastError:     s.LastError,
		Sections:      sections,
	}
}

func sortRows(rows []model.NotificationRecord) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].UpdatedAt.Equal(rows[j].UpdatedAt) {
			return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
}

type bucketCounts struct {
	unseen  int
	updated int
}

func (c bucketCounts) bumpedSince(prev bucketCounts) bool {
	return c.unseen > prev.unseen || c.updated > prev.updated
}

func countBuckets(records map[string]model.NotificationRecord) map[Bucket]bucketCounts {
	counts := make(map[Bucket]bucketCounts, len(Buckets))
	for _, rec := range records {
		b := BucketFor(rec.Reason)
		c := counts[b]
		if !rec.Seen {
			c.unseen++
		}
		if rec.UpdatedAfterRead {
			c.updated++
		}
		counts[b] = c
	}
	return counts
}
