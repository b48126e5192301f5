// ABOUTME: Read command for viewing a single entry in the terminal
// ABOUTME: Renders the description as markdown via glamour and marks the entry read

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/config"
	"github.com/tripp1592/rss-reader/internal/content"
	"github.com/tripp1592/rss-reader/internal/readstate"
	"github.com/tripp1592/rss-reader/internal/storage"
)

var readCmd = &cobra.Command{
	Use:   "read <entry-id>",
	Short: "Read an entry",
	Long:  "Display the full content of an entry and mark it as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryRef := args[0]
		noMark, _ := cmd.Flags().GetBool("no-mark")

		entry, err := store.GetEntryByIDOrPrefix(entryRef)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("entry not found: %s", entryRef)
			}
			return fmt.Errorf("failed to get entry: %w", err)
		}

		feed, err := store.GetFeed(entry.FeedID)
		if err != nil {
			return fmt.Errorf("failed to get feed: %w", err)
		}

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Println(strings.Repeat("─", config.SeparatorWidth))
		fmt.Printf("%s\n\n", bold(entry.DisplayTitle()))
		fmt.Printf("%s %s\n", faint("Feed:"), feed.DisplayTitle())

		if entry.Author != nil && *entry.Author != "" {
			fmt.Printf("%s %s\n", faint("Author:"), *entry.Author)
		}

		if entry.PublishedAt != nil {
			fmt.Printf("%s %s\n", faint("Published:"), entry.PublishedAt.Local().Format(config.DateFormatLong))
		} else if entry.PublishedRaw != "" {
			// Unparseable source date: show it raw rather than nothing
			fmt.Printf("%s %s\n", faint("Published:"), entry.PublishedRaw)
		}

		if entry.Link != nil {
			fmt.Printf("%s %s\n", faint("Link:"), cyan(*entry.Link))
		}

		fmt.Println(strings.Repeat("─", config.SeparatorWidth))

		if entry.Description != nil && *entry.Description != "" {
			markdown := content.ToMarkdown(*entry.Description)

			rendered, err := glamour.Render(markdown, "dark")
			if err != nil {
				// Fall back to plain markdown if rendering fails
				fmt.Printf("%s\n", faint("(markdown rendering unavailable, showing plain text)"))
				fmt.Printf("\n%s\n", markdown)
			} else {
				fmt.Print(rendered)
			}
		} else {
			fmt.Println("\n(No content available)")
		}

		fmt.Println()

		if !noMark && !entry.Read {
			tracker := readstate.New(store)
			if err := tracker.MarkRead(entry.ID); err != nil {
				return fmt.Errorf("failed to mark entry as read: %w", err)
			}
			fmt.Printf("%s\n", faint("Marked as read"))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().Bool("no-mark", false, "don't mark the entry as read")
}
