package logger

import (
	"log/slog"
	"os"
)

// EnvTestLevel sets the level of NewTestLogger.
const EnvTestLevel = "AUDIOVIS_TEST_LOG_LEVEL"

// NewTestLogger returns a text logger on stdout for tests. It logs WARN and
// above unless AUDIOVIS_TEST_LOG_LEVEL names another level. TEST_DEBUG is
// still honoured as a shorthand for DEBUG.
func NewTestLogger() *slog.Logger {
	level := ParseLevel(os.Getenv(EnvTestLevel), slog.LevelWarn)
	if os.Getenv("TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return NewLogger(Config{Level: level, Output: os.Stdout})
}
