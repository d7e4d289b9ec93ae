package inbox

import (
	"time"

	"github.com/nhle/reminder/internal/model"
)

// Reconcile merges a freshly fetched batch into the previous record set and
// returns a new mapping. It never mutates previous.
//
// Every fetched id gets a new record whose UpdatedAfterRead is computed
// against lastReadAt. Seen is carried forward only when the id existed
// before with an identical UpdatedAt; a new or changed item starts unseen.
// Ids missing from fetched are dropped.
func Reconcile(
	previous map[string]model.NotificationRecord,
	fetched []model.RawNotification,
	lastReadAt time.Time,
) map[string]model.NotificationRecord {
	next := make(map[string]model.NotificationRecord, len(fetched))

	for _, raw := range fetched {
		rec := model.NewRecord(raw, lastReadAt)
		if prev, ok := previous[raw.ID]; ok && prev.UpdatedAt.Equal(rec.UpdatedAt) {
			rec.Seen = prev.Seen
		}
		next[raw.ID] = rec
	}

	return next
}
