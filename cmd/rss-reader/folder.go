// ABOUTME: Folder management commands for organizing feeds into groups
// ABOUTME: Folders live in the OPML mirror; feeds carry their folder name in the store

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage feed folders",
	Long:  "Create and list folders for organizing feeds",
}

var folderAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if !opmlDoc.AddFolder(name) {
			fmt.Printf("Folder already exists: %s\n", name)
			return nil
		}

		if err := saveOPML(); err != nil {
			return fmt.Errorf("failed to save OPML: %w", err)
		}

		fmt.Printf("Created folder: %s\n", name)
		return nil
	},
}

var folderListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all folders",
	Long:    "List all folders and the count of feeds in each",
	RunE: func(cmd *cobra.Command, args []string) error {
		folders := opmlDoc.Folders()

		if len(folders) == 0 {
			fmt.Println("No folders found. Create a folder with 'rss-reader folder add <name>'")
			return nil
		}

		counts := make(map[string]int)
		for _, sub := range opmlDoc.Subscriptions() {
			counts[sub.Folder]++
		}

		fmt.Printf("Found %d folder(s):\n\n", len(folders))
		for _, folder := range folders {
			fmt.Printf("%s (%d feed(s))\n", folder, counts[folder])
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(folderCmd)
	folderCmd.AddCommand(folderAddCmd)
	folderCmd.AddCommand(folderListCmd)
}
