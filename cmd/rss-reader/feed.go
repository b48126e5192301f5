// ABOUTME: Feed management commands for adding, listing, removing, and renaming feeds
// ABOUTME: Keeps the database and the OPML subscription mirror in step

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/config"
	"github.com/tripp1592/rss-reader/internal/models"
	"github.com/tripp1592/rss-reader/internal/storage"
)

var feedCmd = &cobra.Command{
	Use:     "feed",
	Aliases: []string{"f"},
	Short:   "Manage RSS/Atom feeds",
	Long:    "Add, list, remove, and rename RSS/Atom feed subscriptions",
}

var feedAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a new RSS/Atom feed",
	Long:  "Add a new feed to your subscriptions and mirror it into the OPML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		title, _ := cmd.Flags().GetString("title")
		folder, _ := cmd.Flags().GetString("folder")
		token, _ := cmd.Flags().GetString("token")
		auth, _ := cmd.Flags().GetString("auth")

		existing, err := store.GetFeedByURL(url)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check for existing feed: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("feed already exists: %s", url)
		}

		if token == "" && auth != "" {
			return fmt.Errorf("--auth requires --token")
		}

		feed := models.NewFeed(url)
		if title != "" {
			feed.Title = &title
		}
		feed.Folder = folder
		if token != "" {
			placement := models.CredPlacement(auth)
			if auth == "" {
				placement = models.CredPlacementQuery
			}
			if !placement.Valid() || placement == models.CredPlacementNone {
				return fmt.Errorf("invalid --auth %q: use query or header", auth)
			}
			feed.SetCredential(token, placement)
		}

		if err := store.CreateFeed(feed); err != nil {
			return fmt.Errorf("failed to create feed: %w", err)
		}

		opmlDoc.Add(url, title, folder)
		if err := saveOPML(); err != nil {
			return fmt.Errorf("failed to save OPML: %w", err)
		}

		if folder != "" {
			fmt.Printf("Added feed to folder '%s': %s\n", folder, url)
		} else {
			fmt.Printf("Added feed: %s\n", url)
		}
		fmt.Printf("Feed ID: %s\n", feed.ID)

		return nil
	},
}

var feedListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all feeds",
	Long:    "List all subscribed feeds with entry and unread counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := store.GetFeedStats()
		if err != nil {
			return fmt.Errorf("failed to list feeds: %w", err)
		}

		if len(stats) == 0 {
			fmt.Println("No feeds found. Add a feed with 'rss-reader feed add <url>'")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("Found %d feed(s):\n\n", len(stats))
		for _, row := range stats {
			title := row.FeedURL
			if row.FeedTitle != nil && *row.FeedTitle != "" {
				title = *row.FeedTitle
			}

			idShort := row.FeedID
			if len(idShort) > config.DisplayIDLength {
				idShort = idShort[:config.DisplayIDLength]
			}

			fmt.Printf("%s %s\n", faint(idShort), title)
			fmt.Printf("  URL: %s\n", row.FeedURL)
			fmt.Printf("  Entries: %d (%d unread)\n", row.EntryCount, row.UnreadCount)
			if row.LastSyncedAt != nil {
				fmt.Printf("  Last synced: %s\n", row.LastSyncedAt.Local().Format(config.DateFormatShort))
			}
			if row.ErrorCount > 0 && row.LastError != nil {
				fmt.Printf("  %s %s (%d failure(s))\n", red("Last error:"), *row.LastError, row.ErrorCount)
			}
			fmt.Println()
		}

		return nil
	},
}

var feedRemoveCmd = &cobra.Command{
	Use:   "remove <url|id-prefix>",
	Short: "Remove a feed",
	Long:  "Remove a feed and all its entries, and drop it from the OPML mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feed, err := store.GetFeedByRef(args[0])
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("feed not found: %s", args[0])
			}
			return fmt.Errorf("failed to find feed: %w", err)
		}

		if err := store.DeleteFeed(feed.ID); err != nil {
			return fmt.Errorf("failed to delete feed: %w", err)
		}

		opmlDoc.Remove(feed.URL)
		if err := saveOPML(); err != nil {
			return fmt.Errorf("failed to save OPML: %w", err)
		}

		fmt.Printf("Removed feed: %s\n", feed.URL)
		return nil
	},
}

var feedRenameCmd = &cobra.Command{
	Use:   "rename <url|id-prefix> <title>",
	Short: "Rename a feed",
	Long:  "Set a feed's display title. The title survives syncs; the feed's own title never overwrites it.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feed, err := store.GetFeedByRef(args[0])
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("feed not found: %s", args[0])
			}
			return fmt.Errorf("failed to find feed: %w", err)
		}

		title := args[1]
		feed.Title = &title
		if err := store.UpdateFeed(feed); err != nil {
			return fmt.Errorf("failed to rename feed: %w", err)
		}

		// Rewrite the mirror entry so the new title round-trips.
		opmlDoc.Remove(feed.URL)
		opmlDoc.Add(feed.URL, title, feed.Folder)
		if err := saveOPML(); err != nil {
			return fmt.Errorf("failed to save OPML: %w", err)
		}

		fmt.Printf("Renamed feed to: %s\n", title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedAddCmd)
	feedCmd.AddCommand(feedListCmd)
	feedCmd.AddCommand(feedRemoveCmd)
	feedCmd.AddCommand(feedRenameCmd)

	feedAddCmd.Flags().StringP("title", "t", "", "feed title (defaults to the feed's own title)")
	feedAddCmd.Flags().StringP("folder", "f", "", "folder to organize feed in")
	feedAddCmd.Flags().String("token", "", "auth token for feeds that require credentials")
	feedAddCmd.Flags().String("auth", "", "credential placement: query or header (default query)")
}
