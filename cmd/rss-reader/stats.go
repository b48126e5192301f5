// ABOUTME: Stats command showing overall and per-feed entry counts
// ABOUTME: Optionally compacts the database after reporting

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feed and entry statistics",
	Long:  "Show entry totals, unread counts, and per-feed sync health",
	RunE: func(cmd *cobra.Command, args []string) error {
		compact, _ := cmd.Flags().GetBool("compact")

		overall, err := store.GetOverallStats()
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("%s\n", bold("Totals"))
		fmt.Printf("  Feeds:   %d\n", overall.TotalFeeds)
		fmt.Printf("  Entries: %d\n", overall.TotalEntries)
		fmt.Printf("  Unread:  %d\n", overall.UnreadCount)

		rows, err := store.GetFeedStats()
		if err != nil {
			return fmt.Errorf("failed to get feed stats: %w", err)
		}

		if len(rows) > 0 {
			fmt.Printf("\n%s\n", bold("Per feed"))
			for _, row := range rows {
				idShort := row.FeedID
				if len(idShort) > config.DisplayIDLength {
					idShort = idShort[:config.DisplayIDLength]
				}

				title := row.FeedURL
				if row.FeedTitle != nil && *row.FeedTitle != "" {
					title = *row.FeedTitle
				}

				fmt.Printf("  %s %s: %d entries, %d unread\n", faint(idShort), title, row.EntryCount, row.UnreadCount)
				if row.ErrorCount > 0 && row.LastError != nil {
					fmt.Printf("       %s %s (%d failure(s))\n", red("x"), *row.LastError, row.ErrorCount)
				}
			}
		}

		if compact {
			if err := store.Compact(); err != nil {
				return fmt.Errorf("failed to compact database: %w", err)
			}
			fmt.Println("\nCompacted database")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Bool("compact", false, "reclaim disk space after reporting")
}
