// ABOUTME: Storage interface and types for feed and entry persistence
// ABOUTME: Defines the contract the sync engine and CLI program against

package storage

import (
	"time"

	"github.com/tripp1592/rss-reader/internal/models"
)

// EntryFilter specifies criteria for listing entries.
type EntryFilter struct {
	FeedID     *string
	FeedIDs    []string
	UnreadOnly *bool
	Since      *time.Time
	Until      *time.Time
	Limit      *int
	Offset     *int
}

// UpsertResult counts what one merge pass did.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// FeedStatsRow represents statistics for a single feed.
type FeedStatsRow struct {
	FeedID       string     `db:"feed_id"`
	FeedURL      string     `db:"feed_url"`
	FeedTitle    *string    `db:"feed_title"`
	LastSyncedAt *time.Time `db:"last_synced_at"`
	ErrorCount   int        `db:"error_count"`
	LastError    *string    `db:"last_error"`
	EntryCount   int        `db:"entry_count"`
	UnreadCount  int        `db:"unread_count"`
}

// OverallStats represents overall statistics.
type OverallStats struct {
	TotalFeeds   int
	TotalEntries int
	UnreadCount  int
}

// Store defines the persistence contract. It is the sole writer of
// durable state; the sync engine computes candidate entries and hands
// them over for atomic application.
type Store interface {
	// Close closes the store and releases resources.
	Close() error

	// Feed Operations

	// CreateFeed stores a new feed. A feed with the same URL already
	// present surfaces as a constraint violation.
	CreateFeed(feed *models.Feed) error

	// GetFeed retrieves a feed by ID.
	GetFeed(id string) (*models.Feed, error)

	// GetFeedByURL finds a feed by its URL.
	GetFeedByURL(url string) (*models.Feed, error)

	// GetFeedByPrefix finds a feed by ID prefix (min 6 chars).
	GetFeedByPrefix(prefix string) (*models.Feed, error)

	// ListFeeds returns all feeds, sorted by creation date (newest first).
	ListFeeds() ([]*models.Feed, error)

	// UpdateFeed updates an existing feed.
	UpdateFeed(feed *models.Feed) error

	// DeleteFeed removes a feed and all its entries (cascade).
	DeleteFeed(id string) error

	// RecordSyncSuccess stores new cache validators, stamps the sync
	// time, and clears the feed's error state.
	RecordSyncSuccess(feedID string, etag, lastModified *string, syncedAt time.Time) error

	// RecordSyncError notes a failed sync attempt on the feed row.
	RecordSyncError(feedID string, message string) error

	// Entry Operations

	// UpsertEntries merges candidate entries into feedID atomically.
	// New natural keys insert as unread; existing ones update only
	// title, description, and the raw date string, leaving identity,
	// read state, and sequence number untouched. Candidates whose
	// stored copy is already identical are not counted as updated.
	UpsertEntries(feedID string, candidates []*models.Entry) (UpsertResult, error)

	// GetEntry retrieves an entry by ID.
	GetEntry(id string) (*models.Entry, error)

	// GetEntryByPrefix finds an entry by ID prefix (min 6 chars).
	GetEntryByPrefix(prefix string) (*models.Entry, error)

	// ListEntries returns entries matching the filter, newest first;
	// entries without a publish timestamp sort after dated ones.
	ListEntries(filter *EntryFilter) ([]*models.Entry, error)

	// MarkEntryRead marks an entry as read. Already-read entries are
	// left untouched, keeping their original read time.
	MarkEntryRead(id string) error

	// MarkEntryUnread marks an entry as unread.
	MarkEntryUnread(id string) error

	// MarkEntriesReadBefore marks all unread entries published before
	// the given time as read, returning how many changed.
	MarkEntriesReadBefore(before time.Time) (int64, error)

	// MarkAllEntriesRead marks every unread entry as read, including
	// entries with no publish timestamp.
	MarkAllEntriesRead() (int64, error)

	// CountUnreadEntries counts unread entries, optionally for one feed.
	CountUnreadEntries(feedID *string) (int, error)

	// Statistics

	// GetFeedStats retrieves per-feed entry and error statistics.
	GetFeedStats() ([]FeedStatsRow, error)

	// GetOverallStats retrieves totals across all feeds.
	GetOverallStats() (*OverallStats, error)

	// Retrieval helpers

	// GetEntryByIDOrPrefix tries to get an entry by exact ID first,
	// then falls back to prefix matching if not found.
	GetEntryByIDOrPrefix(ref string) (*models.Entry, error)

	// GetFeedByRef resolves a feed by URL, exact ID, or ID prefix.
	GetFeedByRef(ref string) (*models.Feed, error)

	// Maintenance

	// Compact performs database maintenance (VACUUM).
	Compact() error

	// Search performs full-text search over entry titles and bodies.
	Search(query string, limit int) ([]*models.Entry, error)
}
