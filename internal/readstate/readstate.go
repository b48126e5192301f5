// ABOUTME: Read/unread state transitions for stored entries
// ABOUTME: Thin façade over the store so callers never touch read columns directly

package readstate

import (
	"time"

	"github.com/tripp1592/rss-reader/internal/storage"
)

// Tracker owns read-state transitions. Marking is never automatic: the
// sync engine inserts entries unread and only explicit calls here flip
// the flag.
type Tracker struct {
	store storage.Store
}

// New creates a Tracker backed by store.
func New(store storage.Store) *Tracker {
	return &Tracker{store: store}
}

// MarkRead marks the entry as read, stamping the read time on the first
// transition. Re-marking an already-read entry keeps the original time.
// Returns storage.ErrNotFound when no such entry exists.
func (t *Tracker) MarkRead(entryID string) error {
	return t.store.MarkEntryRead(entryID)
}

// MarkUnread returns the entry to unread and clears its read time.
// Idempotent like MarkRead.
func (t *Tracker) MarkUnread(entryID string) error {
	return t.store.MarkEntryUnread(entryID)
}

// MarkReadBefore marks every unread entry published before the cutoff as
// read, returning how many changed. Entries with an unknown publish time
// are never swept.
func (t *Tracker) MarkReadBefore(before time.Time) (int64, error) {
	return t.store.MarkEntriesReadBefore(before)
}

// MarkAllRead marks every unread entry as read, undated ones included.
func (t *Tracker) MarkAllRead() (int64, error) {
	return t.store.MarkAllEntriesRead()
}

// CountUnread counts unread entries, scoped to one feed when feedID is
// non-nil.
func (t *Tracker) CountUnread(feedID *string) (int, error) {
	return t.store.CountUnreadEntries(feedID)
}
