// ABOUTME: Import command for subscribing to every feed in an OPML file
// ABOUTME: Skips feeds already subscribed and reports imported/skipped counts

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/models"
	"github.com/tripp1592/rss-reader/internal/opml"
	"github.com/tripp1592/rss-reader/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <file.opml>",
	Short: "Import feeds from an OPML file",
	Long:  "Subscribe to every feed listed in an OPML file, preserving folder assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := opml.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to parse OPML file: %w", err)
		}

		subs := doc.Subscriptions()
		if len(subs) == 0 {
			fmt.Println("No feeds found in OPML file")
			return nil
		}

		var imported, skipped int
		for _, sub := range subs {
			_, err := store.GetFeedByURL(sub.URL)
			if err == nil {
				skipped++
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("failed to check feed %s: %w", sub.URL, err)
			}

			feed := models.NewFeed(sub.URL)
			if sub.Title != "" {
				title := sub.Title
				feed.Title = &title
			}
			feed.Folder = sub.Folder

			if err := store.CreateFeed(feed); err != nil {
				return fmt.Errorf("failed to create feed %s: %w", sub.URL, err)
			}
			opmlDoc.Add(sub.URL, sub.Title, sub.Folder)
			imported++
		}

		if imported > 0 {
			if err := saveOPML(); err != nil {
				return err
			}
		}

		fmt.Printf("Imported %d feed(s), skipped %d existing\n", imported, skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
