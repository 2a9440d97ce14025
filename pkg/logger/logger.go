package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	Level      zerolog.Level
	TimeFormat string
	Output     io.Writer
	Pretty     bool
}

// New builds the process logger. With Pretty set the output goes through
// the console writer, otherwise it stays JSON.
func New(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = &Config{
			Level:      zerolog.InfoLevel,
			TimeFormat: time.RFC3339,
			Output:     os.Stdout,
		}
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	out := cfg.Output
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(out).
		Level(cfg.Level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Setup installs the logger as the global zerolog logger used by the
// middleware stack.
func Setup(cfg *Config) zerolog.Logger {
	l := New(cfg)
	log.Logger = l
	return l
}
