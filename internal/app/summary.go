package app

import (
	"fmt"
	"io"
	"time"

	"github.com/nhle/reminder/internal/inbox"
)

// WriteSummary prints a plain-text rendition of views, one block per
// account. Only unseen rows are listed.
func WriteSummary(w io.Writer, views []inbox.BucketedView) error {
	for i, v := range views {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, "%s: %s\n", v.Login, accountLine(v)); err != nil {
			return err
		}
		if v.LastError != nil {
			continue
		}

		for _, s := range v.Sections {
			if s.Total == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s (%d unseen, %d updated)\n", s.Bucket.Title(), s.UnseenCount, s.UpdatedCount); err != nil {
				return err
			}
			for _, r := range s.Rows {
				if r.Seen {
					continue
				}
				if _, err := fmt.Fprintf(w, "    %s  %s  %s\n", r.Repository, r.Title, r.URL); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func accountLine(v inbox.BucketedView) string {
	switch {
	case v.LastError != nil:
		return "error: " + v.LastError.Error()
	case v.LastSyncedAt.IsZero():
		return "not synced"
	default:
		return fmt.Sprintf("%d unseen, synced %s", v.UnseenTotal(), v.LastSyncedAt.Local().Format(time.Kitchen))
	}
}

// AllFailed reports whether every view ended in an error. No views is not
// a failure.
func AllFailed(views []inbox.BucketedView) bool {
	if len(views) == 0 {
		return false
	}
	for _, v := range views {
		if v.LastError == nil {
			return false
		}
	}
	return true
}
