// Package logging provides structured logging for devicehub using zerolog.
//
// Output is human-readable on a terminal and JSON otherwise (or always with
// LOG_FORMAT=json). The level comes from DEVICEHUB_LOG_LEVEL.
//
//	log := logging.FromContext(ctx)
//	log.Info().Uint("company_id", 7).Str("source", "Kandji").Msg("fetched devices")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = newDefault()

func newDefault() zerolog.Logger {
	var w io.Writer = os.Stderr
	if isTerminal() && os.Getenv("LOG_FORMAT") != "json" {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := Level()
	zerolog.SetGlobalLevel(level)
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Init rebuilds the process-wide logger from the environment. Commands call
// it after loading .env files.
func Init() {
	SetDefault(newDefault())
}

// New creates a JSON logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.GlobalLevel()).With().Timestamp().Logger()
}

// Level parses DEVICEHUB_LOG_LEVEL, defaulting to info.
func Level() zerolog.Level {
	raw := strings.TrimSpace(os.Getenv("DEVICEHUB_LOG_LEVEL"))
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	return Level() <= zerolog.DebugLevel
}

func isTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
