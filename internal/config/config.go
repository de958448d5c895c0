// Package config defines the aads configuration and its loader.
//
// Settings come from, lowest precedence first: built-in defaults, an
// optional YAML file, the legacy SUPABASE_URL/SUPABASE_KEY/AUTO_SYNC
// variables, and AADS_* environment variables. Command-line flags are
// applied on top by the CLI.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/aads/internal/remote"
)

// Config contains process configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// RemoteDriver selects the remote store: supabase, postgres or memory.
	// Empty disables cloud sync.
	RemoteDriver string `koanf:"remote_driver"`

	// RemoteURL and RemoteKey address a Supabase project.
	RemoteURL string `koanf:"remote_url"`
	RemoteKey string `koanf:"remote_key"`

	// RemoteDSN is the PostgreSQL connection string for the postgres driver.
	RemoteDSN string `koanf:"remote_dsn"`

	RemoteTimeout time.Duration `koanf:"remote_timeout"`

	// AutoSync pushes after every mutating command.
	AutoSync bool `koanf:"auto_sync"`

	// PushAttempts is how many times a failed push is run in total.
	PushAttempts int `koanf:"push_attempts"`

	// MetricsFile, when set, receives sync metrics in the Prometheus text
	// format after each command.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		DBPath:        "aads_series.db",
		LogLevel:      "info",
		RemoteTimeout: remote.DefaultTimeout,
		PushAttempts:  1,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	if c.RemoteDriver != "" && !slices.Contains(remote.Drivers, c.RemoteDriver) {
		return fmt.Errorf("%w: remote_driver %q must be one of %v", ErrInvalidConfig, c.RemoteDriver, remote.Drivers)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("%w: remote_timeout must be positive", ErrInvalidConfig)
	}
	if c.PushAttempts < 1 {
		return fmt.Errorf("%w: push_attempts must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// SlogLevel returns the configured log level. Invalid levels fall back to
// info; Validate reports them.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Remote returns the remote store settings.
func (c *Config) Remote() remote.Config {
	return remote.Config{
		Driver:  c.RemoteDriver,
		URL:     c.RemoteURL,
		Key:     c.RemoteKey,
		DSN:     c.RemoteDSN,
		Timeout: c.RemoteTimeout,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// inferDriver picks a driver when none is configured but credentials are:
// a URL and key mean Supabase, a DSN means PostgreSQL.
func (c *Config) inferDriver() {
	if c.RemoteDriver != "" {
		return
	}
	switch {
	case c.RemoteURL != "" && c.RemoteKey != "":
		c.RemoteDriver = remote.DriverSupabase
	case c.RemoteDSN != "":
		c.RemoteDriver = remote.DriverPostgres
	}
}
