package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	want := Config{
		DatabasePath:        "tracker.db",
		CooldownDuration:    22 * time.Hour,
		TickInterval:        time.Second,
		UrgentThreshold:     time.Hour,
		NotificationTimeout: 6 * time.Second,
		DefaultXPMax:        5000,
		LogLevel:            "warn",
		LogFormat:           "text",
		HistoryFile:         ".questkeeper_history",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NoFileNoFlags(t *testing.T) {
	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, defaults(), *cfg)
}

func TestLoad_JSONFile(t *testing.T) {
	p := writeFile(t, "cfg.json", `{"database_path":"data/x.db","cooldown":"20h","tick_interval":500000000,"vault":true}`)

	cfg, err := Load(newFlagSet(t, "-c", p))
	require.NoError(t, err)

	want := defaults()
	want.DatabasePath = "data/x.db"
	want.CooldownDuration = 20 * time.Hour
	want.TickInterval = 500 * time.Millisecond
	want.Vault = true
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	p := writeFile(t, "cfg.toml", `
database_path = "t.db"
urgent_threshold = "30m"
default_xp_max = 8000
log_format = "json"
`)

	cfg, err := Load(newFlagSet(t, "--config", p))
	require.NoError(t, err)
	assert.Equal(t, "t.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Minute, cfg.UrgentThreshold)
	assert.Equal(t, 8000, cfg.DefaultXPMax)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 22*time.Hour, cfg.CooldownDuration)
}

func TestLoad_YAMLFile(t *testing.T) {
	p := writeFile(t, "cfg.yaml", `
notification_timeout: 10s
metrics_file: /tmp/q.prom
history_file: ""
`)

	cfg, err := Load(newFlagSet(t, "-c", p))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.NotificationTimeout)
	assert.Equal(t, "/tmp/q.prom", cfg.MetricsFile)
	assert.Equal(t, "", cfg.HistoryFile)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	p := writeFile(t, "cfg.json", `{"database_path":"file.db","log_level":"info"}`)

	cfg, err := Load(newFlagSet(t, "-c", p, "--db", "flag.db", "--cooldown", "1h", "--vault"))
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.DatabasePath)
	assert.Equal(t, time.Hour, cfg.CooldownDuration)
	assert.True(t, cfg.Vault)
	assert.Equal(t, "info", cfg.LogLevel, "unset flag must not override file value")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		args []string
	}{
		{name: "missing file", args: []string{"-c", "/does/not/exist.json"}},
		{name: "bad json", file: "x.json", body: "{"},
		{name: "bad duration", file: "x.json", body: `{"cooldown":"soon"}`},
		{name: "unknown extension", file: "x.ini", body: "a=b"},
		{name: "zero tick", args: []string{"--tick", "0s"}},
		{name: "zero xp max", args: []string{"--xp-max-default", "0"}},
		{name: "bad format", args: []string{"--log-format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.file != "" {
				args = append(args, "-c", writeFile(t, tt.file, tt.body))
			}
			_, err := Load(newFlagSet(t, args...))
			require.Error(t, err)
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	c := defaults()
	require.NoError(t, c.Validate())

	c.CooldownDuration = 0
	require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
}
