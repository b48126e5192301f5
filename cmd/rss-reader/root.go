// ABOUTME: Root Cobra command, global flags, and shared store/OPML state
// ABOUTME: Loads config and opens the database before each command runs

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tripp1592/rss-reader/internal/config"
	"github.com/tripp1592/rss-reader/internal/opml"
	"github.com/tripp1592/rss-reader/internal/storage"
)

var (
	dbPath   string
	opmlPath string
	verbose  bool

	cfg     config.Config
	store   storage.Store
	opmlDoc *opml.Document
)

var rootCmd = &cobra.Command{
	Use:   "rss-reader",
	Short: "RSS/Atom feed reader for the terminal",
	Long: `Subscribe to RSS and Atom feeds, sync them into a local database,
and read entries without leaving the terminal.

Feeds live in SQLite; subscriptions are mirrored to an OPML file so
they stay portable across readers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbPath != "" {
			cfg.DBPath = config.ExpandPath(dbPath)
		}
		if opmlPath != "" {
			cfg.OPMLPath = config.ExpandPath(opmlPath)
		}

		store, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		opmlDoc, err = opml.Load(cfg.OPMLPath)
		if err != nil {
			return fmt.Errorf("failed to load OPML: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			if err := store.Close(); err != nil {
				return fmt.Errorf("failed to close database: %w", err)
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file path (default: ~/.local/share/rss-reader/rss-reader.db)")
	rootCmd.PersistentFlags().StringVar(&opmlPath, "opml", "", "OPML file path (default: ~/.local/share/rss-reader/subscriptions.opml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func saveOPML() error {
	if opmlDoc == nil {
		return fmt.Errorf("OPML document not initialized")
	}
	if err := opmlDoc.WriteFile(cfg.OPMLPath); err != nil {
		return fmt.Errorf("failed to write OPML file: %w", err)
	}
	return nil
}
