// ABOUTME: Lift configuration management with environment overrides.
// ABOUTME: Handles data location, identity, logging, analytics, rest timer and sync settings.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/analytics"
	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/harperreed/lift/internal/sync"
	"github.com/harperreed/lift/internal/timer"
)

// Environment variables that override the file.
const (
	EnvDataDir    = "LIFT_DATA_DIR"
	EnvUserID     = "LIFT_USER_ID"
	EnvLogLevel   = "LIFT_LOG_LEVEL"
	EnvSyncServer = "LIFT_SYNC_SERVER"
	EnvSyncToken  = "LIFT_SYNC_TOKEN"
)

// Config stores lift tool configuration.
type Config struct {
	// DataDir is the root directory for data storage; lift.db lives here.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/lift.
	DataDir string `json:"data_dir,omitempty"`

	// UserID is the signed-in owner. Empty means the guest owner.
	UserID string `json:"user_id,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	LogFile  string `json:"log_file,omitempty"`

	// AnalyticsWindowDays bounds muscle frequency; zero uses 30 days.
	AnalyticsWindowDays int `json:"analytics_window_days,omitempty"`

	// RestTickMS is the rest timer check period; zero uses 100ms.
	RestTickMS int `json:"rest_tick_ms,omitempty"`

	Sync sync.Config `json:"sync"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// DBPath returns the SQLite database path inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "lift.db")
}

// CurrentUser returns the configured owner and true, or the guest owner and false.
func (c *Config) CurrentUser() (string, bool) {
	if c.UserID == "" {
		return models.GuestUserID, false
	}
	return c.UserID, true
}

// AnalyticsWindow returns the frequency window for reports.
func (c *Config) AnalyticsWindow() time.Duration {
	if c.AnalyticsWindowDays <= 0 {
		return analytics.DefaultWindow
	}
	return time.Duration(c.AnalyticsWindowDays) * 24 * time.Hour
}

// RestTick returns the rest timer check period.
func (c *Config) RestTick() time.Duration {
	if c.RestTickMS <= 0 {
		return timer.DefaultInterval
	}
	return time.Duration(c.RestTickMS) * time.Millisecond
}

// LogParams translates the logging settings; a relative log file lands in the data dir.
func (c *Config) LogParams(quiet bool) logging.Params {
	file := ExpandPath(c.LogFile)
	if file != "" && !filepath.IsAbs(file) {
		file = filepath.Join(c.GetDataDir(), file)
	}
	return logging.Params{Level: c.LogLevel, File: file, Quiet: quiet}
}

// Validate rejects negative durations and an unusable sync block.
func (c *Config) Validate() error {
	if c.AnalyticsWindowDays < 0 {
		return fmt.Errorf("analytics_window_days must not be negative, got %d", c.AnalyticsWindowDays)
	}
	if c.RestTickMS < 0 {
		return fmt.Errorf("rest_tick_ms must not be negative, got %d", c.RestTickMS)
	}
	if err := c.Sync.Validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// ApplyEnv overlays LIFT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		c.UserID = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvSyncServer); v != "" {
		c.Sync.Server = v
	}
	if v := os.Getenv(EnvSyncToken); v != "" {
		c.Sync.Token = v
	}
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

// OpenStore opens the SQLite store at path, or at DBPath when path is empty.
func (c *Config) OpenStore(path string) (*storage.DB, error) {
	if path == "" {
		path = c.DBPath()
	}
	return storage.Open(ExpandPath(path))
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "lift", "config.json")
}

// Load reads config from disk, applies environment overrides and validates.
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(GetConfigPath())
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", GetConfigPath(), err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
