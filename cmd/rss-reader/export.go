// ABOUTME: Export command for writing the subscribed feeds as OPML to stdout
// ABOUTME: Rebuilds the document from the store so exports never contain strays

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/opml"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export OPML to stdout",
	Long:  "Export the subscribed feeds in OPML format to standard output",
	RunE: func(cmd *cobra.Command, args []string) error {
		feeds, err := store.ListFeeds()
		if err != nil {
			return fmt.Errorf("failed to list feeds: %w", err)
		}

		// The store is the source of truth, not the OPML mirror.
		doc := opml.NewDocument(opml.DefaultTitle)
		for i := len(feeds) - 1; i >= 0; i-- { // oldest first
			feed := feeds[i]
			title := ""
			if feed.Title != nil {
				title = *feed.Title
			}
			doc.Add(feed.URL, title, feed.Folder)
		}

		return doc.Write(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
