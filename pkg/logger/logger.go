package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// init installs a quiet default logger so packages can log before Init runs
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	log = zerolog.New(os.Stderr).
		With().
		Timestamp().
		Logger().
		Level(zerolog.WarnLevel)
}

// Options controls where and how verbosely the logger writes
type Options struct {
	Timezone    string
	Environment string
	Level       string
	Output      io.Writer
	// Console switches to human readable output (used by the CLI)
	Console bool
}

// Init configures the logger with timezone, level and writer settings
func Init(opts Options) {
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil || opts.Timezone == "" {
		loc = time.UTC
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Console && opts.Environment != "prod" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	log = zerolog.New(out).
		With().
		Timestamp().
		Logger().
		Level(level)
	zerolog.DefaultContextLogger = &log
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(loc)
	}

	log.Debug().
		Str("timezone", loc.String()).
		Str("environment", opts.Environment).
		Str("level", level.String()).
		Msg("Logger configured")
}

// Debug returns a debug level log event
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info returns an info level log event
func Info() *zerolog.Event {
	return log.Info()
}

// Warn returns a warning level log event
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error returns an error level log event
func Error() *zerolog.Event {
	return log.Error()
}

// ScopedLogger is a logger that stamps every event with a scope field
type ScopedLogger struct {
	logger zerolog.Logger
	scope  string
}

// WithScope creates a scoped logger from the current package logger
func WithScope(scope string) *ScopedLogger {
	return &ScopedLogger{
		logger: log.With().Str("scope", scope).Logger(),
		scope:  scope,
	}
}

// Debug returns a debug level log event with scope
func (s *ScopedLogger) Debug() *zerolog.Event {
	return s.logger.Debug()
}

// Info returns an info level log event with scope
func (s *ScopedLogger) Info() *zerolog.Event {
	return s.logger.Info()
}

// Warn returns a warning level log event with scope
func (s *ScopedLogger) Warn() *zerolog.Event {
	return s.logger.Warn()
}

// Error returns an error level log event with scope
func (s *ScopedLogger) Error() *zerolog.Event {
	return s.logger.Error()
}

// Scope returns the scope name
func (s *ScopedLogger) Scope() string {
	return s.scope
}
