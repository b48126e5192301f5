// ABOUTME: Sync command running the fetch, parse, and merge pipeline over feeds
// ABOUTME: Prints colored per-feed progress and a summary; Ctrl-C cancels cleanly

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/fetch"
	"github.com/tripp1592/rss-reader/internal/models"
	"github.com/tripp1592/rss-reader/internal/storage"
	feedsync "github.com/tripp1592/rss-reader/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync [url|id-prefix]...",
	Short: "Sync feeds",
	Long: `Fetch, parse, and merge new entries for all feeds, or only for the
feeds given as arguments.

Conditional requests (ETag, Last-Modified) skip feeds that have not
changed since the last sync. Use --force to re-fetch unconditionally.
A feed that fails is recorded and skipped; it never blocks the rest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = cfg.Concurrency
		}

		feeds, err := resolveSyncTargets(args)
		if err != nil {
			return err
		}
		if len(feeds) == 0 {
			fmt.Println("No feeds found. Add a feed with 'rss-reader feed add <url>'")
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := fetch.NewClient(fetch.Options{
			Timeout:    cfg.HTTPTimeout,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		})

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		engine := feedsync.New(store, client, feedsync.Options{
			Concurrency: concurrency,
			Force:       force,
			OnResult: func(done, total int, result feedsync.Result) {
				prefix := faint(fmt.Sprintf("(%d/%d)", done, total))
				switch {
				case errors.Is(result.Err, context.Canceled):
					fmt.Printf("%s %s %s %s\n", prefix, yellow("-"), result.FeedTitle, faint("canceled"))
				case result.Err != nil:
					fmt.Printf("%s %s %s: %v\n", prefix, red("x"), result.FeedTitle, result.Err)
				case result.NotModified:
					fmt.Printf("%s %s %s %s\n", prefix, faint("-"), result.FeedTitle, faint("(not modified)"))
				case result.Inserted == 0 && result.Updated == 0:
					fmt.Printf("%s %s %s: no new entries\n", prefix, green("v"), result.FeedTitle)
				default:
					fmt.Printf("%s %s %s: %d new, %d updated\n", prefix, green("v"), result.FeedTitle, result.Inserted, result.Updated)
				}
			},
		})

		printSyncSummary(engine.SyncFeeds(ctx, feeds))
		return nil
	},
}

func resolveSyncTargets(refs []string) ([]*models.Feed, error) {
	if len(refs) == 0 {
		feeds, err := store.ListFeeds()
		if err != nil {
			return nil, fmt.Errorf("failed to list feeds: %w", err)
		}
		return feeds, nil
	}

	feeds := make([]*models.Feed, 0, len(refs))
	seen := make(map[string]bool)
	for _, ref := range refs {
		feed, err := store.GetFeedByRef(ref)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("feed not found: %s", ref)
			}
			return nil, fmt.Errorf("failed to find feed %q: %w", ref, err)
		}
		if seen[feed.ID] {
			continue
		}
		seen[feed.ID] = true
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

func printSyncSummary(results []feedsync.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	var inserted, updated, cached, failed, canceled int
	for _, r := range results {
		switch {
		case errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded):
			canceled++
		case r.Err != nil:
			failed++
		case r.NotModified:
			cached++
		default:
			inserted += r.Inserted
			updated += r.Updated
		}
	}

	fmt.Println()
	fmt.Printf("Summary: %d feed(s) synced\n", len(results))
	if inserted > 0 {
		fmt.Printf("  %s %d new entries\n", green("v"), inserted)
	}
	if updated > 0 {
		fmt.Printf("  %s %d updated entries\n", green("v"), updated)
	}
	if cached > 0 {
		fmt.Printf("  %s %d cached (not modified)\n", faint("-"), cached)
	}
	if failed > 0 {
		fmt.Printf("  %s %d errors\n", red("x"), failed)
	}
	if canceled > 0 {
		fmt.Printf("  %s %d canceled\n", yellow("-"), canceled)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolP("force", "f", false, "ignore cache headers and fetch unconditionally")
	syncCmd.Flags().Int("concurrency", 0, "feeds to sync in parallel (default from config)")
}
