// ABOUTME: Sync engine running fetch→parse→merge pipelines over a bounded worker pool
// ABOUTME: Isolates failures per feed so one broken feed never blocks the rest

package sync

import (
	"context"
	"errors"
	"strings"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripp1592/rss-reader/internal/fetch"
	"github.com/tripp1592/rss-reader/internal/models"
	"github.com/tripp1592/rss-reader/internal/parse"
	"github.com/tripp1592/rss-reader/internal/storage"
)

const (
	// DefaultConcurrency is the worker count used when none is configured.
	DefaultConcurrency = 6
	// MaxConcurrency caps the worker pool regardless of configuration.
	MaxConcurrency = 8
)

// Fetcher retrieves one feed payload. Satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (*fetch.Result, error)
}

// Result reports the outcome of syncing a single feed. Results are
// ephemeral: they exist for presentation and are never persisted.
type Result struct {
	FeedID      string
	FeedURL     string
	FeedTitle   string
	Inserted    int
	Updated     int
	NotModified bool
	Err         error
}

// Options configures an Engine.
type Options struct {
	// Concurrency is the worker pool size, clamped to [1, MaxConcurrency].
	// Zero means DefaultConcurrency.
	Concurrency int
	// Force skips conditional request validators so the server always
	// returns a full payload.
	Force bool
	// OnResult, when set, is called as each feed finishes. done counts
	// completed feeds, total is the batch size.
	OnResult func(done, total int, result Result)
}

// Engine syncs feeds: fetch, parse, and merge into the store, one feed
// at a time per worker.
type Engine struct {
	store       storage.Store
	fetcher     Fetcher
	concurrency int
	force       bool
	onResult    func(done, total int, result Result)
}

// New creates an Engine over store and fetcher.
func New(store storage.Store, fetcher Fetcher, opts Options) *Engine {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}
	return &Engine{
		store:       store,
		fetcher:     fetcher,
		concurrency: concurrency,
		force:       opts.Force,
		onResult:    opts.OnResult,
	}
}

// SyncAll syncs every feed in the store.
func (e *Engine) SyncAll(ctx context.Context) ([]Result, error) {
	feeds, err := e.store.ListFeeds()
	if err != nil {
		return nil, err
	}
	return e.SyncFeeds(ctx, feeds), nil
}

// SyncFeeds syncs the given feeds and returns one Result per feed, in
// input order. Feeds not yet started when ctx is canceled report
// ctx.Err(); merges already committed stay committed.
func (e *Engine) SyncFeeds(ctx context.Context, feeds []*models.Feed) []Result {
	if len(feeds) == 0 {
		return nil
	}
	if len(feeds) == 1 {
		result := e.syncOne(ctx, feeds[0])
		if e.onResult != nil {
			e.onResult(1, 1, result)
		}
		return []Result{result}
	}

	workers := e.concurrency
	if workers > len(feeds) {
		workers = len(feeds)
	}

	jobs := make(chan *models.Feed)
	out := make(chan Result, len(feeds))
	wg := stdsync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range jobs {
				select {
				case <-ctx.Done():
					out <- Result{FeedID: feed.ID, FeedURL: feed.URL, FeedTitle: feed.DisplayTitle(), Err: ctx.Err()}
				default:
					out <- e.syncOne(ctx, feed)
				}
			}
		}()
	}

	go func() {
		for _, feed := range feeds {
			jobs <- feed
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	byID := make(map[string]Result, len(feeds))
	done := 0
	for result := range out {
		byID[result.FeedID] = result
		done++
		if e.onResult != nil {
			e.onResult(done, len(feeds), result)
		}
	}

	results := make([]Result, 0, len(feeds))
	for _, feed := range feeds {
		results = append(results, byID[feed.ID])
	}
	return results
}

// syncOne runs the full pipeline for a single feed: fetch the payload,
// parse it into candidate entries, merge them, adopt the feed title if
// we have none, and record the sync outcome on the feed row.
func (e *Engine) syncOne(ctx context.Context, feed *models.Feed) Result {
	result := Result{FeedID: feed.ID, FeedURL: feed.URL, FeedTitle: feed.DisplayTitle()}
	log.Debug().Str("url", feed.URL).Msg("syncing feed")

	req := fetch.Request{URL: feed.URL}
	if feed.Credential != nil {
		req.Credential = *feed.Credential
		req.CredPlacement = feed.CredPlacement
	}
	if !e.force {
		if feed.ETag != nil {
			req.ETag = *feed.ETag
		}
		if feed.LastModified != nil {
			req.LastModified = *feed.LastModified
		}
	}

	fres, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		return e.fail(feed, result, err)
	}

	if fres.NotModified {
		result.NotModified = true
		if err := e.recordSuccess(feed.ID, fres); err != nil {
			return e.fail(feed, result, err)
		}
		log.Debug().Str("url", feed.URL).Msg("feed not modified")
		return result
	}

	parsed, err := parse.Parse(fres.Body)
	if err != nil {
		return e.fail(feed, result, err)
	}

	candidates := make([]*models.Entry, 0, len(parsed.Entries))
	for i := range parsed.Entries {
		candidates = append(candidates, toCandidate(feed.ID, &parsed.Entries[i]))
	}

	upsert, err := e.store.UpsertEntries(feed.ID, candidates)
	if err != nil {
		return e.fail(feed, result, err)
	}
	result.Inserted = upsert.Inserted
	result.Updated = upsert.Updated

	if err := e.adoptTitle(feed, parsed.Title); err != nil {
		return e.fail(feed, result, err)
	}
	result.FeedTitle = feed.DisplayTitle()

	if err := e.recordSuccess(feed.ID, fres); err != nil {
		return e.fail(feed, result, err)
	}

	log.Debug().
		Str("url", feed.URL).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Msg("feed synced")
	return result
}

// fail records the error against the feed row, except when the batch
// itself was canceled: cancellation is not a feed failure.
func (e *Engine) fail(feed *models.Feed, result Result, err error) Result {
	result.Err = err
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return result
	}
	if recErr := e.store.RecordSyncError(feed.ID, err.Error()); recErr != nil {
		log.Warn().Str("url", feed.URL).Err(recErr).Msg("could not record sync error")
	}
	return result
}

func (e *Engine) recordSuccess(feedID string, fres *fetch.Result) error {
	var etag, lastModified *string
	if fres.ETag != "" {
		etag = &fres.ETag
	}
	if fres.LastModified != "" {
		lastModified = &fres.LastModified
	}
	return e.store.RecordSyncSuccess(feedID, etag, lastModified, time.Now())
}

// adoptTitle stores the parsed feed title when the feed has none yet.
// A user-set title always wins over what the feed says about itself.
func (e *Engine) adoptTitle(feed *models.Feed, title string) error {
	title = strings.TrimSpace(title)
	if title == "" || (feed.Title != nil && *feed.Title != "") {
		return nil
	}
	feed.Title = &title
	return e.store.UpdateFeed(feed)
}

// toCandidate converts a parsed entry into a store candidate. Empty
// optional fields become NULLs rather than empty strings.
func toCandidate(feedID string, pe *parse.Entry) *models.Entry {
	entry := models.NewEntry(feedID, pe.GUID, pe.Title)
	if pe.Title == "" {
		entry.Title = nil
	}
	if pe.Link != "" {
		entry.Link = &pe.Link
	}
	if pe.Author != "" {
		entry.Author = &pe.Author
	}
	if pe.Description != "" {
		entry.Description = &pe.Description
	}
	entry.PublishedAt = pe.PublishedAt
	entry.PublishedRaw = pe.PublishedRaw
	return entry
}
