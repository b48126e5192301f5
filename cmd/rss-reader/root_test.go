// ABOUTME: Tests for root command helpers and shared state
// ABOUTME: Verifies OPML saving and sync target resolution

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tripp1592/rss-reader/internal/models"
	"github.com/tripp1592/rss-reader/internal/opml"
	"github.com/tripp1592/rss-reader/internal/storage"
)

func TestSaveOPML(t *testing.T) {
	tmpOPMLPath := filepath.Join(t.TempDir(), "test.opml")

	// Setup global variables
	oldCfg := cfg
	oldOpmlDoc := opmlDoc
	defer func() {
		cfg = oldCfg
		opmlDoc = oldOpmlDoc
	}()

	cfg.OPMLPath = tmpOPMLPath
	opmlDoc = opml.NewDocument("test")

	if err := saveOPML(); err != nil {
		t.Fatalf("saveOPML: %v", err)
	}

	if _, err := os.Stat(tmpOPMLPath); err != nil {
		t.Errorf("expected OPML file to exist: %v", err)
	}
}

func TestSaveOPML_NilDoc(t *testing.T) {
	oldOpmlDoc := opmlDoc
	defer func() {
		opmlDoc = oldOpmlDoc
	}()

	opmlDoc = nil

	if err := saveOPML(); err == nil {
		t.Error("expected error when opmlDoc is nil")
	}
}

func TestResolveSyncTargets(t *testing.T) {
	s, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	oldStore := store
	defer func() { store = oldStore }()
	store = s

	feedA := models.NewFeed("https://a.example.com/feed.xml")
	feedB := models.NewFeed("https://b.example.com/feed.xml")
	for _, f := range []*models.Feed{feedA, feedB} {
		if err := s.CreateFeed(f); err != nil {
			t.Fatalf("CreateFeed: %v", err)
		}
	}

	t.Run("no refs lists all feeds", func(t *testing.T) {
		feeds, err := resolveSyncTargets(nil)
		if err != nil {
			t.Fatalf("resolveSyncTargets: %v", err)
		}
		if len(feeds) != 2 {
			t.Errorf("expected 2 feeds, got %d", len(feeds))
		}
	})

	t.Run("dedupes refs to the same feed", func(t *testing.T) {
		feeds, err := resolveSyncTargets([]string{feedA.URL, feedA.ID})
		if err != nil {
			t.Fatalf("resolveSyncTargets: %v", err)
		}
		if len(feeds) != 1 {
			t.Errorf("expected 1 feed after dedupe, got %d", len(feeds))
		}
		if feeds[0].ID != feedA.ID {
			t.Errorf("expected feed %s, got %s", feedA.ID, feeds[0].ID)
		}
	})

	t.Run("unknown ref fails", func(t *testing.T) {
		if _, err := resolveSyncTargets([]string{"https://missing.example.com/feed.xml"}); err == nil {
			t.Error("expected error for unknown feed")
		}
	})
}
