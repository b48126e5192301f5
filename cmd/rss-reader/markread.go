// ABOUTME: Mark-read command for marking entries as read
// ABOUTME: Supports entry prefixes, --all for everything, and --before for date cutoffs

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/readstate"
	"github.com/tripp1592/rss-reader/internal/storage"
	"github.com/tripp1592/rss-reader/internal/timeutil"
)

var markReadCmd = &cobra.Command{
	Use:   "mark-read [entry-id]...",
	Short: "Mark entries as read",
	Long: `Mark one or more entries as read by ID prefix, every entry with --all,
or all entries older than a date with --before`,
	RunE: func(cmd *cobra.Command, args []string) error {
		before, _ := cmd.Flags().GetString("before")
		all, _ := cmd.Flags().GetBool("all")

		if len(args) > 0 && (before != "" || all) {
			return fmt.Errorf("cannot combine entry IDs with --all or --before")
		}

		tracker := readstate.New(store)

		// Per-entry mode
		if len(args) > 0 {
			for _, entryRef := range args {
				entry, err := store.GetEntryByIDOrPrefix(entryRef)
				if err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						return fmt.Errorf("entry not found: %s", entryRef)
					}
					return fmt.Errorf("failed to get entry: %w", err)
				}

				if entry.Read {
					fmt.Printf("Already read: %s\n", entry.DisplayTitle())
					continue
				}

				if err := tracker.MarkRead(entry.ID); err != nil {
					return fmt.Errorf("failed to mark entry as read: %w", err)
				}
				fmt.Printf("Marked as read: %s\n", entry.DisplayTitle())
			}
			return nil
		}

		// Sweep everything
		if all {
			count, err := tracker.MarkAllRead()
			if err != nil {
				return fmt.Errorf("failed to mark entries as read: %w", err)
			}
			if count == 0 {
				fmt.Println("No entries to mark as read")
			} else {
				fmt.Printf("Marked %d entries as read\n", count)
			}
			return nil
		}

		if before == "" {
			return fmt.Errorf("provide an entry ID, --all, or --before for bulk marking")
		}

		cutoff, ok := timeutil.ParsePeriod(before)
		if !ok {
			parsed, err := time.Parse("2006-01-02", before)
			if err != nil {
				return fmt.Errorf("invalid period %q: use today, yesterday, week, month, or YYYY-MM-DD", before)
			}
			cutoff = parsed
		}

		count, err := tracker.MarkReadBefore(cutoff)
		if err != nil {
			return fmt.Errorf("failed to mark entries as read: %w", err)
		}

		if count == 0 {
			fmt.Println("No entries to mark as read")
		} else {
			fmt.Printf("Marked %d entries as read\n", count)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(markReadCmd)

	markReadCmd.Flags().BoolP("all", "a", false, "mark every unread entry as read")
	markReadCmd.Flags().StringP("before", "b", "", "mark entries older than: today, yesterday, week, month, or YYYY-MM-DD")

	markReadCmd.MarkFlagsMutuallyExclusive("all", "before")
}
