// ABOUTME: Tests for configuration loading, env overrides, and clamps
// ABOUTME: Each test isolates XDG and RSS_READER_* environment state

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tripp1592/rss-reader/internal/sync"
)

func TestLoadDefaults(t *testing.T) {
	_, dataDir := isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DBPath != filepath.Join(dataDir, "rss-reader", "rss-reader.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.OPMLPath != filepath.Join(dataDir, "rss-reader", "subscriptions.opml") {
		t.Errorf("OPMLPath = %q", cfg.OPMLPath)
	}
	if cfg.Concurrency != sync.DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, sync.DefaultConcurrency)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.UserAgent != "" {
		t.Errorf("UserAgent = %q, want empty (fetch default applies)", cfg.UserAgent)
	}
}

func TestLoadFromFile(t *testing.T) {
	configDir, _ := isolateEnv(t)
	writeConfig(t, configDir, `
db_path = "/tmp/custom/feeds.db"
opml_path = "/tmp/custom/subs.opml"
concurrency = 4
timeout_seconds = 60
max_retries = 5
user_agent = "custom-agent/2.0"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DBPath != "/tmp/custom/feeds.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.OPMLPath != "/tmp/custom/subs.opml" {
		t.Errorf("OPMLPath = %q", cfg.OPMLPath)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("HTTPTimeout = %v, want 60s", cfg.HTTPTimeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.UserAgent != "custom-agent/2.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configDir, _ := isolateEnv(t)
	writeConfig(t, configDir, `
concurrency = 4
bogus_knob = true
`)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject unknown keys")
	}
	if !strings.Contains(err.Error(), "unknown key") || !strings.Contains(err.Error(), "bogus_knob") {
		t.Errorf("error should name the unknown key: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero concurrency", "concurrency = 0"},
		{"zero timeout", "timeout_seconds = 0"},
		{"negative retries", "max_retries = -1"},
		{"empty db path", `db_path = "  "`},
		{"empty opml path", `opml_path = ""`},
		{"blank user agent", `user_agent = " "`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configDir, _ := isolateEnv(t)
			writeConfig(t, configDir, tc.body)
			if _, err := Load(); err == nil {
				t.Errorf("Load() should reject %q", tc.body)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	configDir, _ := isolateEnv(t)
	writeConfig(t, configDir, "concurrency = 4")

	t.Setenv("RSS_READER_CONCURRENCY", "2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want env override 2", cfg.Concurrency)
	}

	// Unparsable env values are ignored, not fatal.
	t.Setenv("RSS_READER_CONCURRENCY", "abc")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want file value 4", cfg.Concurrency)
	}
}

func TestClampUpperBounds(t *testing.T) {
	isolateEnv(t)
	t.Setenv("RSS_READER_CONCURRENCY", "99")
	t.Setenv("RSS_READER_TIMEOUT_SECONDS", "99999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Concurrency != sync.MaxConcurrency {
		t.Errorf("Concurrency = %d, want clamp to %d", cfg.Concurrency, sync.MaxConcurrency)
	}
	if cfg.HTTPTimeout != 5*time.Minute {
		t.Errorf("HTTPTimeout = %v, want clamp to 5m", cfg.HTTPTimeout)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/feeds/my.db", filepath.Join(home, "feeds", "my.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
	}
	for _, tc := range cases {
		if got := ExpandPath(tc.in); got != tc.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpandPathAppliedToFileValues(t *testing.T) {
	configDir, _ := isolateEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, configDir, `db_path = "~/feeds/my.db"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DBPath != filepath.Join(home, "feeds", "my.db") {
		t.Errorf("DBPath = %q, want expansion under %q", cfg.DBPath, home)
	}
}

func TestOpenStorage(t *testing.T) {
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	store, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDisplayDefaults(t *testing.T) {
	if DefaultListLimit <= 0 {
		t.Error("DefaultListLimit should be positive")
	}
	if DisplayIDLength <= 0 {
		t.Error("DisplayIDLength should be positive")
	}
}

// helpers

func isolateEnv(t *testing.T) (configDir, dataDir string) {
	t.Helper()
	configDir = t.TempDir()
	dataDir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("XDG_DATA_HOME", dataDir)
	for _, key := range []string{
		"RSS_READER_DB_PATH", "RSS_READER_OPML_PATH", "RSS_READER_CONCURRENCY",
		"RSS_READER_TIMEOUT_SECONDS", "RSS_READER_MAX_RETRIES", "RSS_READER_USER_AGENT",
	} {
		t.Setenv(key, "")
	}
	return configDir, dataDir
}

func writeConfig(t *testing.T, configDir, body string) {
	t.Helper()
	dir := filepath.Join(configDir, "rss-reader")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}
