package inbox

import (
	"strings"

	"github.com/nhle/reminder/internal/model"
)

// Filter is a case-insensitive substring predicate over a record's
// repository, title and reason label. The zero Filter matches everything.
type Filter struct {
	needle string
}

// NewFilter normalizes text into a Filter.
func NewFilter(text string) Filter {
	return Filter{needle: strings.ToLower(strings.TrimSpace(text))}
}

// Text returns the normalized filter text.
func (f Filter) Text() string {
	return f.needle
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.needle == ""
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec model.NotificationRecord) bool {
	if f.needle == "" {
		return true
	}
	for _, field := range []string{rec.Repository, rec.Title, rec.ReasonLabel()} {
		if strings.Contains(strings.ToLower(field), f.needle) {
			return true
		}
	}
	return false
}
