// Package config loads user preferences from ~/.watchdeck/config.toml.
// A missing file yields defaults; a malformed one surfaces the parse
// error while still handing back defaults so the app stays usable.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the TOML config file under the watchdeck directory.
const FileName = "config.toml"

// Config is the user-facing configuration.
type Config struct {
	// DefaultTool is the pre-selected agent when spawning sessions.
	// Valid values: "claude", "gemini", "opencode", "codex", "shell".
	DefaultTool string `toml:"default_tool"`

	// Theme sets the color scheme: "dark" (default), "light", or "system".
	Theme string `toml:"theme"`

	// PollIntervalSeconds is how often the reconciliation pass runs.
	PollIntervalSeconds int `toml:"poll_interval_seconds"`

	// CaptureLines is the pane history depth inspected per poll.
	CaptureLines int `toml:"capture_lines"`

	// PruneMaxAgeDays is how long finished sessions linger before prune
	// removes them.
	PruneMaxAgeDays int `toml:"prune_max_age_days"`

	// Terminal overrides the terminal emulator used for teleport.
	// The WATCHDECK_TERMINAL environment variable wins over this.
	Terminal string `toml:"terminal"`

	// TmuxSocket selects a non-default tmux socket (tmux -L).
	TmuxSocket string `toml:"tmux_socket"`

	// Logging configures the debug log.
	Logging LoggingSettings `toml:"logging"`
}

// LoggingSettings configures the rotating debug log.
type LoggingSettings struct {
	// Level: "debug", "info", "warn", "error". Default "info".
	Level string `toml:"level"`

	// MaxSizeMB per log file before rotation.
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups of rotated files to keep.
	MaxBackups int `toml:"max_backups"`
}

var defaultConfig = Config{
	DefaultTool:         "claude",
	Theme:               "dark",
	PollIntervalSeconds: 5,
	CaptureLines:        30,
	PruneMaxAgeDays:     7,
	Logging: LoggingSettings{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
	},
}

var (
	cache   *Config
	cacheMu sync.RWMutex
)

// Path returns the config file location under the given data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Load reads the config file at path. After the first call the parsed
// config is cached.
func Load(path string) (*Config, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache != nil {
		return cache, nil
	}

	cfg, err := parse(path)
	cache = cfg
	return cfg, err
}

// Reload discards the cache and loads fresh values.
func Reload(path string) (*Config, error) {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return Load(path)
}

func parse(path string) (*Config, error) {
	cfg := defaultConfig

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		defaults := defaultConfig
		return &defaults, fmt.Errorf("%s parse error: %w", FileName, err)
	}
	applyFloors(&cfg)
	return &cfg, nil
}

// applyFloors clamps nonsensical values back to defaults so a bad edit
// cannot stall the poller or disable pruning entirely.
func applyFloors(cfg *Config) {
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = defaultConfig.PollIntervalSeconds
	}
	if cfg.CaptureLines <= 0 {
		cfg.CaptureLines = defaultConfig.CaptureLines
	}
	if cfg.PruneMaxAgeDays <= 0 {
		cfg.PruneMaxAgeDays = defaultConfig.PruneMaxAgeDays
	}
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// PruneMaxAge returns the prune window as a duration.
func (c *Config) PruneMaxAge() time.Duration {
	return time.Duration(c.PruneMaxAgeDays) * 24 * time.Hour
}

// Save writes the config atomically: temp file, then rename.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# watchdeck configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}

	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return nil
}
