// Package logger configures zerolog for lockstep commands.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls logger behavior.
type Config struct {
	Verbose   bool   // pretty console output
	Level     string // debug|info|warn|error
	Component string // e.g. "functions", "worker", "wizard"
	Out       io.Writer
	TimeFunc  func() time.Time // injected for deterministic tests
}

// Setup configures the global zerolog logger and returns a logger whose
// every line carries "component".
func Setup(cfg Config) zerolog.Logger {
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	if cfg.TimeFunc == nil {
		cfg.TimeFunc = time.Now
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFunc = cfg.TimeFunc
	zerolog.DurationFieldUnit = time.Millisecond

	w := cfg.Out
	if cfg.Verbose {
		w = zerolog.ConsoleWriter{Out: cfg.Out, TimeFormat: time.Kitchen}
	}

	base := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().
		Timestamp().
		Str("component", cfg.Component).
		Logger()
	log.Logger = base
	return base
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// OpenFile opens path for appending, creating parent directories. The
// terminal UI logs here since it owns stdout.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
