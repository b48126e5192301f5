// ABOUTME: Mark-unread command for putting entries back into the unread pool
// ABOUTME: Accepts one or more entry ID prefixes

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/readstate"
	"github.com/tripp1592/rss-reader/internal/storage"
)

var markUnreadCmd = &cobra.Command{
	Use:   "mark-unread <entry-id>...",
	Short: "Mark entries as unread",
	Long:  "Mark one or more entries as unread by ID prefix",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker := readstate.New(store)

		for _, entryRef := range args {
			entry, err := store.GetEntryByIDOrPrefix(entryRef)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("entry not found: %s", entryRef)
				}
				return fmt.Errorf("failed to get entry: %w", err)
			}

			if !entry.Read {
				fmt.Printf("Already unread: %s\n", entry.DisplayTitle())
				continue
			}

			if err := tracker.MarkUnread(entry.ID); err != nil {
				return fmt.Errorf("failed to mark entry as unread: %w", err)
			}
			fmt.Printf("Marked as unread: %s\n", entry.DisplayTitle())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(markUnreadCmd)
}
