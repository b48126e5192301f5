// ABOUTME: List command for browsing entries with feed, folder, and period filters
// ABOUTME: Prints one line per entry with read marker, title, and publish date

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/config"
	"github.com/tripp1592/rss-reader/internal/storage"
	"github.com/tripp1592/rss-reader/internal/timeutil"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List entries",
	Long:    "List entries with optional filtering by feed, folder, read status, and date",
	RunE: func(cmd *cobra.Command, args []string) error {
		unread, _ := cmd.Flags().GetBool("unread")
		feedRef, _ := cmd.Flags().GetString("feed")
		folder, _ := cmd.Flags().GetString("folder")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		today, _ := cmd.Flags().GetBool("today")
		yesterday, _ := cmd.Flags().GetBool("yesterday")
		week, _ := cmd.Flags().GetBool("week")

		filter := &storage.EntryFilter{
			Limit:  &limit,
			Offset: &offset,
		}

		if unread {
			unreadOnly := true
			filter.UnreadOnly = &unreadOnly
		}

		if feedRef != "" {
			feed, err := store.GetFeedByRef(feedRef)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("feed not found: %s", feedRef)
				}
				return fmt.Errorf("failed to find feed: %w", err)
			}
			filter.FeedID = &feed.ID
		}

		if folder != "" {
			feeds, err := store.ListFeeds()
			if err != nil {
				return fmt.Errorf("failed to list feeds: %w", err)
			}
			for _, feed := range feeds {
				if feed.Folder == folder {
					filter.FeedIDs = append(filter.FeedIDs, feed.ID)
				}
			}
			if len(filter.FeedIDs) == 0 {
				return fmt.Errorf("no feeds in folder %q", folder)
			}
		}

		switch {
		case today:
			s := timeutil.StartOfToday()
			filter.Since = &s
		case yesterday:
			s := timeutil.StartOfYesterday()
			u := timeutil.EndOfYesterday()
			filter.Since = &s
			filter.Until = &u
		case week:
			s := timeutil.StartOfWeek()
			filter.Since = &s
		}

		entries, err := store.ListEntries(filter)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries found")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()

		for _, entry := range entries {
			idShort := entry.ID
			if len(idShort) > config.DisplayIDLength {
				idShort = idShort[:config.DisplayIDLength]
			}
			fmt.Print(faint(idShort))
			fmt.Print(" ")

			// Read status (checkmark or space)
			if entry.Read {
				fmt.Print("✓ ")
			} else {
				fmt.Print("  ")
			}

			fmt.Print(entry.DisplayTitle())

			if entry.PublishedAt != nil {
				fmt.Print(" ")
				fmt.Print(faint(entry.PublishedAt.Local().Format(config.DateFormatShort)))
			}

			fmt.Println()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("unread", "u", false, "show only unread entries")
	listCmd.Flags().StringP("feed", "f", "", "filter by feed URL or ID prefix")
	listCmd.Flags().String("folder", "", "filter by folder")
	listCmd.Flags().IntP("limit", "n", config.DefaultListLimit, "max entries to show")
	listCmd.Flags().IntP("offset", "o", 0, "number of entries to skip (for pagination)")
	listCmd.Flags().Bool("today", false, "show only today's entries")
	listCmd.Flags().Bool("yesterday", false, "show only yesterday's entries")
	listCmd.Flags().Bool("week", false, "show only this week's entries")

	listCmd.MarkFlagsMutuallyExclusive("today", "yesterday", "week")
	listCmd.MarkFlagsMutuallyExclusive("feed", "folder")
}
