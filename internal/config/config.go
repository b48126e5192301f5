// ABOUTME: TOML configuration with XDG lookup, env overrides, and validation clamps
// ABOUTME: Provides the storage factory so every command opens the store the same way

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tripp1592/rss-reader/internal/opml"
	"github.com/tripp1592/rss-reader/internal/storage"
	"github.com/tripp1592/rss-reader/internal/sync"
)

const (
	configFolderName = "rss-reader"
	configFileName   = "config.toml"

	defaultTimeout    = 30 * time.Second
	minTimeout        = 1 * time.Second
	maxTimeout        = 5 * time.Minute
	defaultMaxRetries = 2
)

// Config is the resolved runtime configuration: built-in defaults,
// then the config file, then RSS_READER_* environment overrides, in
// that order.
type Config struct {
	DBPath      string
	OPMLPath    string
	Concurrency int
	HTTPTimeout time.Duration
	MaxRetries  int
	UserAgent   string
}

// Load resolves the configuration. A missing config file is fine; a
// present but invalid one is an error.
func Load() (Config, error) {
	dbPath, err := storage.GetDefaultDBPath()
	if err != nil {
		return Config{}, err
	}
	opmlPath, err := opml.GetDefaultPath()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      dbPath,
		OPMLPath:    opmlPath,
		Concurrency: sync.DefaultConcurrency,
		HTTPTimeout: defaultTimeout,
		MaxRetries:  defaultMaxRetries,
	}

	path, found, err := findConfigPath()
	if err != nil {
		return Config{}, err
	}
	if found {
		fileCfg, err := loadFileConfig(path)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fileCfg)
	}

	applyEnvOverrides(&cfg)
	cfg.clamp()
	return cfg, nil
}

// OpenStorage opens the feed store at the configured path.
func (c *Config) OpenStorage() (storage.Store, error) {
	return storage.NewSQLiteStore(c.DBPath)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

type fileConfig struct {
	DBPath         *string `toml:"db_path"`
	OPMLPath       *string `toml:"opml_path"`
	Concurrency    *int    `toml:"concurrency"`
	TimeoutSeconds *int    `toml:"timeout_seconds"`
	MaxRetries     *int    `toml:"max_retries"`
	UserAgent      *string `toml:"user_agent"`
}

func findConfigPath() (string, bool, error) {
	candidates := make([]string, 0, 2)
	if xdgConfigHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdgConfigHome != "" {
		candidates = append(candidates, filepath.Join(xdgConfigHome, configFolderName, configFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", configFolderName, configFileName))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory; expected a file", candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("invalid config file %q: unknown key(s): %s", path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(path, cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func validateFileConfig(path string, cfg fileConfig) error {
	if cfg.DBPath != nil && strings.TrimSpace(*cfg.DBPath) == "" {
		return fmt.Errorf("invalid config file %q: db_path must be non-empty when provided", path)
	}
	if cfg.OPMLPath != nil && strings.TrimSpace(*cfg.OPMLPath) == "" {
		return fmt.Errorf("invalid config file %q: opml_path must be non-empty when provided", path)
	}
	if cfg.Concurrency != nil && *cfg.Concurrency < 1 {
		return fmt.Errorf("invalid config file %q: concurrency must be >= 1", path)
	}
	if cfg.TimeoutSeconds != nil && *cfg.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid config file %q: timeout_seconds must be >= 1", path)
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		return fmt.Errorf("invalid config file %q: max_retries must be >= 0", path)
	}
	if cfg.UserAgent != nil && strings.TrimSpace(*cfg.UserAgent) == "" {
		return fmt.Errorf("invalid config file %q: user_agent must be non-empty when provided", path)
	}
	return nil
}

func applyFileConfig(cfg *Config, fileCfg fileConfig) {
	if fileCfg.DBPath != nil {
		cfg.DBPath = ExpandPath(*fileCfg.DBPath)
	}
	if fileCfg.OPMLPath != nil {
		cfg.OPMLPath = ExpandPath(*fileCfg.OPMLPath)
	}
	if fileCfg.Concurrency != nil {
		cfg.Concurrency = *fileCfg.Concurrency
	}
	if fileCfg.TimeoutSeconds != nil {
		cfg.HTTPTimeout = time.Duration(*fileCfg.TimeoutSeconds) * time.Second
	}
	if fileCfg.MaxRetries != nil {
		cfg.MaxRetries = *fileCfg.MaxRetries
	}
	if fileCfg.UserAgent != nil {
		cfg.UserAgent = *fileCfg.UserAgent
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("RSS_READER_DB_PATH"); ok && v != "" {
		cfg.DBPath = ExpandPath(v)
	}
	if v, ok := os.LookupEnv("RSS_READER_OPML_PATH"); ok && v != "" {
		cfg.OPMLPath = ExpandPath(v)
	}
	if v, ok := os.LookupEnv("RSS_READER_CONCURRENCY"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.Concurrency = n
		}
	}
	if v, ok := os.LookupEnv("RSS_READER_TIMEOUT_SECONDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("RSS_READER_MAX_RETRIES"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v, ok := os.LookupEnv("RSS_READER_USER_AGENT"); ok && v != "" {
		cfg.UserAgent = v
	}
}

// clamp bounds values to what the engine and fetcher accept.
func (c *Config) clamp() {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.Concurrency > sync.MaxConcurrency {
		c.Concurrency = sync.MaxConcurrency
	}
	if c.HTTPTimeout < minTimeout {
		c.HTTPTimeout = minTimeout
	}
	if c.HTTPTimeout > maxTimeout {
		c.HTTPTimeout = maxTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
}
