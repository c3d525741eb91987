package config

import (
	"github.com/spf13/pflag"
)

const (
	flagConfig        = "config"
	flagDatabase      = "db"
	flagCooldown      = "cooldown"
	flagTick          = "tick"
	flagUrgent        = "urgent"
	flagNotifyTimeout = "notify-timeout"
	flagXPMax         = "xp-max-default"
	flagLogLevel      = "log-level"
	flagLogFormat     = "log-format"
	flagMetricsFile   = "metrics-file"
	flagHistoryFile   = "history-file"
	flagVault         = "vault"
)

// RegisterFlags declares the config flags on fs. Defaults shown in help
// come from LoadDefaults.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "config file (.json, .toml, .yaml)")
	fs.String(flagDatabase, d.DatabasePath, "path to the SQLite database")
	fs.Duration(flagCooldown, d.CooldownDuration, "cooldown after a daily quest is done")
	fs.Duration(flagTick, d.TickInterval, "countdown refresh interval")
	fs.Duration(flagUrgent, d.UrgentThreshold, "remaining time under which a countdown is urgent")
	fs.Duration(flagNotifyTimeout, d.NotificationTimeout, "how long a ready alert stays active")
	fs.Int(flagXPMax, d.DefaultXPMax, "xp max given to new accounts")
	fs.String(flagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(flagLogFormat, d.LogFormat, "log format (text, json)")
	fs.String(flagMetricsFile, d.MetricsFile, "write Prometheus metrics to this textfile")
	fs.String(flagHistoryFile, d.HistoryFile, "REPL history file")
	fs.Bool(flagVault, d.Vault, "encrypt stored data with a passphrase")
}

// applyFlags copies only the flags that were set on the command line, so a
// flag default never overrides a value from the config file.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	set := func(name string, fn func() error) {
		if err != nil || !fs.Changed(name) {
			return
		}
		err = fn()
	}

	set(flagDatabase, func() (e error) { cfg.DatabasePath, e = fs.GetString(flagDatabase); return })
	set(flagCooldown, func() (e error) { cfg.CooldownDuration, e = fs.GetDuration(flagCooldown); return })
	set(flagTick, func() (e error) { cfg.TickInterval, e = fs.GetDuration(flagTick); return })
	set(flagUrgent, func() (e error) { cfg.UrgentThreshold, e = fs.GetDuration(flagUrgent); return })
	set(flagNotifyTimeout, func() (e error) { cfg.NotificationTimeout, e = fs.GetDuration(flagNotifyTimeout); return })
	set(flagXPMax, func() (e error) { cfg.DefaultXPMax, e = fs.GetInt(flagXPMax); return })
	set(flagLogLevel, func() (e error) { cfg.LogLevel, e = fs.GetString(flagLogLevel); return })
	set(flagLogFormat, func() (e error) { cfg.LogFormat, e = fs.GetString(flagLogFormat); return })
	set(flagMetricsFile, func() (e error) { cfg.MetricsFile, e = fs.GetString(flagMetricsFile); return })
	set(flagHistoryFile, func() (e error) { cfg.HistoryFile, e = fs.GetString(flagHistoryFile); return })
	set(flagVault, func() (e error) { cfg.Vault, e = fs.GetBool(flagVault); return })

	return err
}
