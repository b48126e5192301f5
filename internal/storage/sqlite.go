// ABOUTME: SQLite implementation of the Store interface via sqlx
// ABOUTME: Owns the entry merge transaction, read-state updates, and FTS search

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tripp1592/rss-reader/internal/models"
	"github.com/tripp1592/rss-reader/internal/storage/migrations"
)

// prefixMinLen is the shortest ID prefix accepted by prefix lookups.
const prefixMinLen = 6

// SQLiteStore implements Store backed by a single SQLite database file.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, wrap("open database", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	dbx, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, wrap("open database", err)
	}

	// SQLite serializes writers anyway; a second connection only buys
	// SQLITE_BUSY under concurrent syncs.
	dbx.SetMaxOpenConns(1)
	dbx.SetMaxIdleConns(1)

	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, wrap("migrate database", err)
	}

	return &SQLiteStore{db: dbx}, nil
}

// GetDefaultDBPath returns the default database path, honoring
// XDG_DATA_HOME and falling back to ~/.local/share.
func GetDefaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "rss-reader", "rss-reader.db"), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Feed operations

// CreateFeed stores a new feed.
func (s *SQLiteStore) CreateFeed(feed *models.Feed) error {
	query := `
		INSERT INTO feeds (id, url, title, folder, credential, cred_place, etag,
			last_modified, last_synced_at, last_error, error_count, created_at)
		VALUES (:id, :url, :title, :folder, :credential, :cred_place, :etag,
			:last_modified, :last_synced_at, :last_error, :error_count, :created_at)`
	_, err := s.db.NamedExec(query, feed)
	return wrap("create feed", err)
}

// GetFeed retrieves a feed by ID.
func (s *SQLiteStore) GetFeed(id string) (*models.Feed, error) {
	var feed models.Feed
	if err := s.db.Get(&feed, `SELECT * FROM feeds WHERE id = ?`, id); err != nil {
		return nil, wrap("get feed", err)
	}
	return &feed, nil
}

// GetFeedByURL finds a feed by its URL.
func (s *SQLiteStore) GetFeedByURL(url string) (*models.Feed, error) {
	var feed models.Feed
	if err := s.db.Get(&feed, `SELECT * FROM feeds WHERE url = ?`, url); err != nil {
		return nil, wrap("get feed by url", err)
	}
	return &feed, nil
}

// GetFeedByPrefix finds a feed whose ID starts with prefix.
func (s *SQLiteStore) GetFeedByPrefix(prefix string) (*models.Feed, error) {
	if len(prefix) < prefixMinLen {
		return nil, fmt.Errorf("feed prefix %q too short (need at least %d characters)", prefix, prefixMinLen)
	}
	var feeds []*models.Feed
	if err := s.db.Select(&feeds, `SELECT * FROM feeds WHERE id LIKE ? LIMIT 2`, prefix+"%"); err != nil {
		return nil, wrap("get feed by prefix", err)
	}
	switch len(feeds) {
	case 0:
		return nil, fmt.Errorf("get feed by prefix: %w", ErrNotFound)
	case 1:
		return feeds[0], nil
	default:
		return nil, fmt.Errorf("feed prefix %q is ambiguous", prefix)
	}
}

// ListFeeds returns all feeds, newest first.
func (s *SQLiteStore) ListFeeds() ([]*models.Feed, error) {
	feeds := []*models.Feed{}
	if err := s.db.Select(&feeds, `SELECT * FROM feeds ORDER BY created_at DESC, id`); err != nil {
		return nil, wrap("list feeds", err)
	}
	return feeds, nil
}

// UpdateFeed updates an existing feed.
func (s *SQLiteStore) UpdateFeed(feed *models.Feed) error {
	query := `
		UPDATE feeds
		SET url = :url, title = :title, folder = :folder, credential = :credential,
			cred_place = :cred_place, etag = :etag, last_modified = :last_modified,
			last_synced_at = :last_synced_at, last_error = :last_error, error_count = :error_count
		WHERE id = :id`
	res, err := s.db.NamedExec(query, feed)
	if err != nil {
		return wrap("update feed", err)
	}
	return requireRow(res, "update feed")
}

// DeleteFeed removes a feed. Its entries go with it via cascade, and
// the delete triggers keep the search index consistent.
func (s *SQLiteStore) DeleteFeed(id string) error {
	res, err := s.db.Exec(`DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return wrap("delete feed", err)
	}
	return requireRow(res, "delete feed")
}

// RecordSyncSuccess stores the validators returned by the last fetch,
// stamps the sync time, and clears the feed's error state.
func (s *SQLiteStore) RecordSyncSuccess(feedID string, etag, lastModified *string, syncedAt time.Time) error {
	query := `
		UPDATE feeds
		SET etag = ?, last_modified = ?, last_synced_at = ?, last_error = NULL, error_count = 0
		WHERE id = ?`
	res, err := s.db.Exec(query, etag, lastModified, syncedAt.UTC(), feedID)
	if err != nil {
		return wrap("record sync success", err)
	}
	return requireRow(res, "record sync success")
}

// RecordSyncError notes a failed sync attempt and bumps the feed's
// consecutive error count.
func (s *SQLiteStore) RecordSyncError(feedID string, message string) error {
	query := `
		UPDATE feeds
		SET last_error = ?, error_count = error_count + 1
		WHERE id = ?`
	res, err := s.db.Exec(query, message, feedID)
	if err != nil {
		return wrap("record sync error", err)
	}
	return requireRow(res, "record sync error")
}

// Entry operations

// UpsertEntries merges candidates into feedID in one transaction. A
// candidate whose guid is new inserts as unread; an existing guid
// refreshes title, description, and the raw date string, and only when
// the stored values differ. Read state, publish timestamp, and seq are
// never touched on update.
func (s *SQLiteStore) UpsertEntries(feedID string, candidates []*models.Entry) (UpsertResult, error) {
	var result UpsertResult
	if len(candidates) == 0 {
		return result, nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return result, wrap("upsert entries", err)
	}
	defer tx.Rollback()

	for _, cand := range candidates {
		var existing models.Entry
		err := tx.Get(&existing, `SELECT * FROM entries WHERE feed_id = ? AND guid = ?`, feedID, cand.GUID)
		if errors.Is(err, sql.ErrNoRows) {
			if err := insertEntry(tx, feedID, cand); err != nil {
				return UpsertResult{}, err
			}
			result.Inserted++
			continue
		}
		if err != nil {
			return UpsertResult{}, wrap("upsert entries", err)
		}

		if sameText(existing.Title, cand.Title) &&
			sameText(existing.Description, cand.Description) &&
			existing.PublishedRaw == cand.PublishedRaw {
			continue
		}
		_, err = tx.Exec(`UPDATE entries SET title = ?, description = ?, published_raw = ? WHERE seq = ?`,
			cand.Title, cand.Description, cand.PublishedRaw, existing.Seq)
		if err != nil {
			return UpsertResult{}, wrap("upsert entries", err)
		}
		result.Updated++
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, wrap("upsert entries", err)
	}
	return result, nil
}

func insertEntry(tx *sqlx.Tx, feedID string, cand *models.Entry) error {
	id := cand.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := cand.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO entries (id, feed_id, guid, title, link, author, description,
			published_at, published_raw, read, read_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)`
	_, err := tx.Exec(query, id, feedID, cand.GUID, cand.Title, cand.Link, cand.Author,
		cand.Description, utcPtr(cand.PublishedAt), cand.PublishedRaw, createdAt.UTC())
	return wrap("upsert entries", err)
}

// GetEntry retrieves an entry by ID.
func (s *SQLiteStore) GetEntry(id string) (*models.Entry, error) {
	var entry models.Entry
	if err := s.db.Get(&entry, `SELECT * FROM entries WHERE id = ?`, id); err != nil {
		return nil, wrap("get entry", err)
	}
	return &entry, nil
}

// GetEntryByPrefix finds an entry whose ID starts with prefix.
func (s *SQLiteStore) GetEntryByPrefix(prefix string) (*models.Entry, error) {
	if len(prefix) < prefixMinLen {
		return nil, fmt.Errorf("entry prefix %q too short (need at least %d characters)", prefix, prefixMinLen)
	}
	var entries []*models.Entry
	if err := s.db.Select(&entries, `SELECT * FROM entries WHERE id LIKE ? LIMIT 2`, prefix+"%"); err != nil {
		return nil, wrap("get entry by prefix", err)
	}
	switch len(entries) {
	case 0:
		return nil, fmt.Errorf("get entry by prefix: %w", ErrNotFound)
	case 1:
		return entries[0], nil
	default:
		return nil, fmt.Errorf("entry prefix %q is ambiguous", prefix)
	}
}

// ListEntries returns entries matching the filter, dated entries first
// (newest to oldest), then undated ones in insertion order.
func (s *SQLiteStore) ListEntries(filter *EntryFilter) ([]*models.Entry, error) {
	q := sq.Select("*").From("entries").
		OrderBy("(published_at IS NULL)", "published_at DESC", "seq")

	if filter != nil {
		if filter.FeedID != nil {
			q = q.Where(sq.Eq{"feed_id": *filter.FeedID})
		}
		if len(filter.FeedIDs) > 0 {
			q = q.Where(sq.Eq{"feed_id": filter.FeedIDs})
		}
		if filter.UnreadOnly != nil && *filter.UnreadOnly {
			q = q.Where(sq.Eq{"read": 0})
		}
		if filter.Since != nil {
			q = q.Where(sq.GtOrEq{"published_at": filter.Since.UTC()})
		}
		if filter.Until != nil {
			q = q.Where(sq.LtOrEq{"published_at": filter.Until.UTC()})
		}
		if filter.Limit != nil {
			q = q.Limit(uint64(*filter.Limit))
		} else if filter.Offset != nil {
			// SQLite accepts OFFSET only after a LIMIT clause.
			q = q.Limit(uint64(1<<63 - 1))
		}
		if filter.Offset != nil {
			q = q.Offset(uint64(*filter.Offset))
		}
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := []*models.Entry{}
	if err := s.db.Select(&entries, query, args...); err != nil {
		return nil, wrap("list entries", err)
	}
	return entries, nil
}

// MarkEntryRead marks an entry as read. Marking an already-read entry
// is a no-op that keeps the original read time.
func (s *SQLiteStore) MarkEntryRead(id string) error {
	res, err := s.db.Exec(`UPDATE entries SET read = 1, read_at = ? WHERE id = ? AND read = 0`,
		time.Now().UTC(), id)
	if err != nil {
		return wrap("mark entry read", err)
	}
	return requireEntry(s.db, res, "mark entry read", id)
}

// MarkEntryUnread marks an entry as unread and clears its read time.
func (s *SQLiteStore) MarkEntryUnread(id string) error {
	res, err := s.db.Exec(`UPDATE entries SET read = 0, read_at = NULL WHERE id = ? AND read = 1`, id)
	if err != nil {
		return wrap("mark entry unread", err)
	}
	return requireEntry(s.db, res, "mark entry unread", id)
}

// MarkEntriesReadBefore marks unread entries published before the given
// time as read. Entries with no publish timestamp are never matched.
func (s *SQLiteStore) MarkEntriesReadBefore(before time.Time) (int64, error) {
	res, err := s.db.Exec(`UPDATE entries SET read = 1, read_at = ? WHERE read = 0 AND published_at < ?`,
		time.Now().UTC(), before.UTC())
	if err != nil {
		return 0, wrap("mark entries read before", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("mark entries read before", err)
	}
	return n, nil
}

// MarkAllEntriesRead marks every unread entry as read. Unlike
// MarkEntriesReadBefore this also sweeps entries with no publish
// timestamp.
func (s *SQLiteStore) MarkAllEntriesRead() (int64, error) {
	res, err := s.db.Exec(`UPDATE entries SET read = 1, read_at = ? WHERE read = 0`, time.Now().UTC())
	if err != nil {
		return 0, wrap("mark all entries read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("mark all entries read", err)
	}
	return n, nil
}

// CountUnreadEntries counts unread entries, optionally scoped to a feed.
func (s *SQLiteStore) CountUnreadEntries(feedID *string) (int, error) {
	q := sq.Select("COUNT(*)").From("entries").Where(sq.Eq{"read": 0})
	if feedID != nil {
		q = q.Where(sq.Eq{"feed_id": *feedID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("count unread entries: %w", err)
	}
	var count int
	if err := s.db.Get(&count, query, args...); err != nil {
		return 0, wrap("count unread entries", err)
	}
	return count, nil
}

// Statistics

// GetFeedStats retrieves per-feed entry counts and sync health.
func (s *SQLiteStore) GetFeedStats() ([]FeedStatsRow, error) {
	query := `
		SELECT
			f.id AS feed_id,
			f.url AS feed_url,
			f.title AS feed_title,
			f.last_synced_at,
			f.error_count,
			f.last_error,
			COUNT(e.seq) AS entry_count,
			COALESCE(SUM(CASE WHEN e.read = 0 THEN 1 ELSE 0 END), 0) AS unread_count
		FROM feeds f
		LEFT JOIN entries e ON e.feed_id = f.id
		GROUP BY f.id
		ORDER BY f.created_at DESC, f.id`
	rows := []FeedStatsRow{}
	if err := s.db.Select(&rows, query); err != nil {
		return nil, wrap("get feed stats", err)
	}
	return rows, nil
}

// GetOverallStats retrieves totals across all feeds.
func (s *SQLiteStore) GetOverallStats() (*OverallStats, error) {
	var stats OverallStats
	if err := s.db.Get(&stats.TotalFeeds, `SELECT COUNT(*) FROM feeds`); err != nil {
		return nil, wrap("get overall stats", err)
	}
	if err := s.db.Get(&stats.TotalEntries, `SELECT COUNT(*) FROM entries`); err != nil {
		return nil, wrap("get overall stats", err)
	}
	if err := s.db.Get(&stats.UnreadCount, `SELECT COUNT(*) FROM entries WHERE read = 0`); err != nil {
		return nil, wrap("get overall stats", err)
	}
	return &stats, nil
}

// Retrieval helpers

// GetEntryByIDOrPrefix tries an exact ID match before prefix matching.
func (s *SQLiteStore) GetEntryByIDOrPrefix(ref string) (*models.Entry, error) {
	entry, err := s.GetEntry(ref)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.GetEntryByPrefix(ref)
}

// GetFeedByRef resolves a feed reference: a URL, an exact ID, or an ID
// prefix, tried in that order.
func (s *SQLiteStore) GetFeedByRef(ref string) (*models.Feed, error) {
	if strings.Contains(ref, "://") {
		return s.GetFeedByURL(ref)
	}
	feed, err := s.GetFeed(ref)
	if err == nil {
		return feed, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.GetFeedByPrefix(ref)
}

// Maintenance

// Compact reclaims space from deleted rows.
func (s *SQLiteStore) Compact() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return wrap("compact", err)
	}
	return nil
}

// Search performs full-text search over entry titles and descriptions,
// best matches first.
func (s *SQLiteStore) Search(query string, limit int) ([]*models.Entry, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Entry{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	stmt := `
		SELECT e.* FROM entries e
		JOIN entries_fts fts ON fts.rowid = e.seq
		WHERE entries_fts MATCH ?
		ORDER BY rank
		LIMIT ?`
	entries := []*models.Entry{}
	if err := s.db.Select(&entries, stmt, query, limit); err != nil {
		return nil, wrap("search", err)
	}
	return entries, nil
}

// helpers

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// requireEntry distinguishes an idempotent no-op on an existing entry
// from an update that matched nothing because the entry is missing.
func requireEntry(db *sqlx.DB, res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n > 0 {
		return nil
	}
	var one int
	if err := db.Get(&one, `SELECT 1 FROM entries WHERE id = ?`, id); err != nil {
		return wrap(op, err)
	}
	return nil
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// utcPtr normalizes a timestamp so stored text values compare and sort
// consistently regardless of the caller's zone.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
