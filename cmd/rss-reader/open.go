// ABOUTME: Open command for launching entry links in the default browser
// ABOUTME: Validates the link scheme, opens it, and marks the entry as read

package main

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/readstate"
	"github.com/tripp1592/rss-reader/internal/storage"
)

var openCmd = &cobra.Command{
	Use:   "open <entry-prefix>",
	Short: "Open entry link in browser and mark as read",
	Long:  "Open an entry's link in your default browser and mark the entry as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := store.GetEntryByIDOrPrefix(args[0])
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("entry not found: %s", args[0])
			}
			return fmt.Errorf("failed to find entry: %w", err)
		}

		if entry.Link == nil || *entry.Link == "" {
			return fmt.Errorf("entry has no link")
		}

		// Validate URL format and scheme before handing it to the shell
		parsedURL, err := url.Parse(*entry.Link)
		if err != nil {
			return fmt.Errorf("entry has malformed link: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("entry link must be http or https, got: %s", parsedURL.Scheme)
		}

		if err := openBrowser(parsedURL.String()); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}

		tracker := readstate.New(store)
		if err := tracker.MarkRead(entry.ID); err != nil {
			return fmt.Errorf("failed to mark entry as read: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Opened and marked as read: %s\n", green("v"), entry.DisplayTitle())

		return nil
	},
}

// openBrowser opens a URL in the default browser for the current platform.
func openBrowser(urlStr string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", urlStr)
	case "linux":
		cmd = exec.Command("xdg-open", urlStr)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlStr)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	// Reap the process asynchronously to prevent zombies
	go func() { _ = cmd.Wait() }()

	return nil
}

func init() {
	rootCmd.AddCommand(openCmd)
}
