package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in, slog.LevelInfo))
		})
	}
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "DEBUG")
	t.Setenv(EnvFormat, "JSON")

	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	log.Debug("hidden")
	log.Info("shown", slog.String("component", "test"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestNewTestLoggerLevel(t *testing.T) {
	t.Setenv("TEST_DEBUG", "")

	t.Setenv(EnvTestLevel, "")
	log := NewTestLogger()
	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, log.Enabled(context.Background(), slog.LevelWarn))

	t.Setenv(EnvTestLevel, "error")
	assert.False(t, NewTestLogger().Enabled(context.Background(), slog.LevelWarn))

	t.Setenv("TEST_DEBUG", "1")
	assert.True(t, NewTestLogger().Enabled(context.Background(), slog.LevelDebug))
}
