package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/questkeeper/internal/timex"
)

// FileConfig is a DTO used exclusively for config file decoding. Pointer
// fields distinguish "absent" from a zero value so a partial file only
// overrides what it names. Durations use timex.Duration, so they may be
// written as strings like "22h".
type FileConfig struct {
	DatabasePath        *string         `json:"database_path" toml:"database_path" yaml:"database_path"`
	CooldownDuration    *timex.Duration `json:"cooldown" toml:"cooldown" yaml:"cooldown"`
	TickInterval        *timex.Duration `json:"tick_interval" toml:"tick_interval" yaml:"tick_interval"`
	UrgentThreshold     *timex.Duration `json:"urgent_threshold" toml:"urgent_threshold" yaml:"urgent_threshold"`
	NotificationTimeout *timex.Duration `json:"notification_timeout" toml:"notification_timeout" yaml:"notification_timeout"`
	DefaultXPMax        *int            `json:"default_xp_max" toml:"default_xp_max" yaml:"default_xp_max"`
	LogLevel            *string         `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFormat           *string         `json:"log_format" toml:"log_format" yaml:"log_format"`
	MetricsFile         *string         `json:"metrics_file" toml:"metrics_file" yaml:"metrics_file"`
	HistoryFile         *string         `json:"history_file" toml:"history_file" yaml:"history_file"`
	Vault               *bool           `json:"vault" toml:"vault" yaml:"vault"`
}

// parseFile overlays cfg with the values from path. The decoder is picked
// by extension: .json, .toml, .yaml or .yml.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("%w: unsupported config file extension %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.CooldownDuration != nil {
		cfg.CooldownDuration = fc.CooldownDuration.Duration
	}
	if fc.TickInterval != nil {
		cfg.TickInterval = fc.TickInterval.Duration
	}
	if fc.UrgentThreshold != nil {
		cfg.UrgentThreshold = fc.UrgentThreshold.Duration
	}
	if fc.NotificationTimeout != nil {
		cfg.NotificationTimeout = fc.NotificationTimeout.Duration
	}
	if fc.DefaultXPMax != nil {
		cfg.DefaultXPMax = *fc.DefaultXPMax
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.MetricsFile != nil {
		cfg.MetricsFile = *fc.MetricsFile
	}
	if fc.HistoryFile != nil {
		cfg.HistoryFile = *fc.HistoryFile
	}
	if fc.Vault != nil {
		cfg.Vault = *fc.Vault
	}
}
