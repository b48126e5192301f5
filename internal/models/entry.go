// ABOUTME: Entry model representing a single feed entry with read/unread state
// ABOUTME: Carries the normalized publish timestamp plus the raw source date string

package models

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents a single entry (article/item) in an RSS/Atom feed.
// Seq is assigned by the store on insert and breaks ordering ties between
// entries whose publish timestamps are equal or unknown.
type Entry struct {
	Seq          int64      `db:"seq"`
	ID           string     `db:"id"`
	FeedID       string     `db:"feed_id"`
	GUID         string     `db:"guid"`
	Title        *string    `db:"title"`
	Link         *string    `db:"link"`
	Author       *string    `db:"author"`
	Description  *string    `db:"description"`
	PublishedAt  *time.Time `db:"published_at"`
	PublishedRaw string     `db:"published_raw"`
	Read         bool       `db:"read"`
	ReadAt       *time.Time `db:"read_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

// NewEntry creates a new Entry with the given feedID, guid, and title
// Sets ID to a new UUID, CreatedAt to current time, and Read to false
func NewEntry(feedID, guid, title string) *Entry {
	now := time.Now()
	return &Entry{
		ID:        uuid.New().String(),
		FeedID:    feedID,
		GUID:      guid,
		Title:     &title,
		Read:      false,
		ReadAt:    nil,
		CreatedAt: now,
	}
}

// MarkRead marks the entry as read and sets ReadAt to the current time
func (e *Entry) MarkRead() {
	now := time.Now()
	e.Read = true
	e.ReadAt = &now
}

// MarkUnread marks the entry as unread and clears the ReadAt timestamp
func (e *Entry) MarkUnread() {
	e.Read = false
	e.ReadAt = nil
}

// DisplayTitle returns the entry title, falling back to "Untitled".
func (e *Entry) DisplayTitle() string {
	if e.Title != nil && *e.Title != "" {
		return *e.Title
	}
	return "Untitled"
}
