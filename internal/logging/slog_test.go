package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(&buf, "debug", "text"), &buf
}

func TestSlogLogger_EveryLevelWrites(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "tick", "remaining", "21:59:59")
	log.Info(ctx, "cooldown expired", "id", "a1")
	log.Warn(ctx, "metrics export failed", "path", "q.prom")
	log.Error(ctx, "failed to persist expiry", "id", "a2")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "level=DEBUG")
	assert.Contains(t, lines[0], "remaining=21:59:59")
	assert.Contains(t, lines[1], "level=INFO")
	assert.Contains(t, lines[1], `msg="cooldown expired"`)
	assert.Contains(t, lines[2], "level=WARN")
	assert.Contains(t, lines[2], "path=q.prom")
	assert.Contains(t, lines[3], "level=ERROR")
	assert.Contains(t, lines[3], "id=a2")
}

func TestSlogLogger_WithAddsModule(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("module", "scheduler").Info(context.Background(), "countdown started", "id", "a1")

	out := buf.String()
	assert.Contains(t, out, "module=scheduler")
	assert.Contains(t, out, "id=a1")
}

func TestNew_LevelFiltersAndJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNop_Discards(t *testing.T) {
	log := Nop()
	ctx := context.Background()
	assert.NotPanics(t, func() {
		log.Debug(ctx, "x")
		log.Info(ctx, "x")
		log.With("module", "store").Error(ctx, "x")
	})
}
