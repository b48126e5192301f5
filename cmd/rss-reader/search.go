// ABOUTME: Search command running full-text queries over stored entries
// ABOUTME: Prints matches in list format with a short plain-text snippet

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/config"
	"github.com/tripp1592/rss-reader/internal/content"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search entries",
	Long:  "Full-text search over entry titles and bodies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		query := strings.Join(args, " ")

		entries, err := store.Search(query, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries matched")
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

			if entry.Description != nil && *entry.Description != "" {
				snippet := content.Snippet(*entry.Description, 120)
				if snippet != "" {
					fmt.Printf("           %s\n", faint(snippet))
				}
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "n", config.DefaultSearchLimit, "max results to show")
}
