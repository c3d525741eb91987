// Package config assembles the runtime settings from defaults, an optional
// config file and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Config holds runtime settings for questkeeper.
//
// Units: every duration is a time.Duration. In config files they are
// written as "22h", "1s" and so on.
type Config struct {
	DatabasePath        string
	CooldownDuration    time.Duration
	TickInterval        time.Duration
	UrgentThreshold     time.Duration
	NotificationTimeout time.Duration
	DefaultXPMax        int
	LogLevel            string
	LogFormat           string
	MetricsFile         string
	HistoryFile         string
	Vault               bool
}

var ErrInvalidConfig = errors.New("invalid config")

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "tracker.db"
	c.CooldownDuration = 22 * time.Hour
	c.TickInterval = time.Second
	c.UrgentThreshold = time.Hour
	c.NotificationTimeout = 6 * time.Second
	c.DefaultXPMax = 5000
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.MetricsFile = ""
	c.HistoryFile = ".questkeeper_history"
	c.Vault = false
}

func (c *Config) Validate() error {
	switch {
	case c.CooldownDuration <= 0:
		return fmt.Errorf("%w: cooldown must be positive", ErrInvalidConfig)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	case c.UrgentThreshold < 0:
		return fmt.Errorf("%w: urgent threshold must not be negative", ErrInvalidConfig)
	case c.NotificationTimeout <= 0:
		return fmt.Errorf("%w: notification timeout must be positive", ErrInvalidConfig)
	case c.DefaultXPMax < 1:
		return fmt.Errorf("%w: default xp max must be at least 1", ErrInvalidConfig)
	case c.DatabasePath == "":
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log format must be text or json", ErrInvalidConfig)
	}
	return nil
}

// Load applies defaults, then the file named by the config flag, then the
// flags the user actually set. fs must have been prepared with
// RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
