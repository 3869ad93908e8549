package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/tea"
)

// LogLevel represents the severity level for logging messages.
type LogLevel string

const (
	// LogLevelDebug is used for detailed information.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is used for general information messages.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is used for warning conditions.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is used for error conditions.
	LogLevelError LogLevel = "error"
)

// ParseLogLevel maps a case-insensitive name to a LogLevel. Unknown names
// map to LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch level := LogLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case LogLevelDebug, LogLevelWarn, LogLevelError:
		return level
	default:
		return LogLevelInfo
	}
}

// Slog returns the slog level for l.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerConfig holds configuration for the logger middleware.
type LoggerConfig[M any] struct {
	// Args are additional arguments to include in all log messages.
	Args []any

	// Level is the level of the per-message record. Defaults to debug.
	Level LogLevel

	// Message is the record message. Defaults to "message dispatched".
	Message string

	// Kind names messages. Defaults to TypeKind.
	Kind KindFunc[M]
}

func (c *LoggerConfig[M]) parse() {
	if c.Level == "" {
		c.Level = LogLevelDebug
	}
	c.Level = ParseLogLevel(string(c.Level))
	if c.Message == "" {
		c.Message = "message dispatched"
	}
	c.Kind = kindOrType(c.Kind)
}

// Logger logs every message that passes through it, with its kind and the
// time spent in the rest of the chain (handler included).
//
// Place it first to time the whole chain:
//
//	tea.WithMiddleware(middleware.Logger[Env, State, Msg](logger, middleware.LoggerConfig[Msg]{}))
func Logger[E, S, M any](logger *slog.Logger, cfg LoggerConfig[M]) tea.Middleware[E, S, M] {
	cfg.parse()
	if logger == nil {
		logger = slog.Default()
	}
	level := cfg.Level.Slog()

	return func(_ E, _ func() S, next tea.Dispatch[M]) tea.Dispatch[M] {
		var seq int64
		return func(msg M) {
			seq++
			start := time.Now()
			next(msg)

			if !logger.Enabled(context.Background(), level) {
				return
			}
			args := make([]any, 0, len(cfg.Args)+6)
			args = append(args, cfg.Args...)
			args = append(args,
				"kind", cfg.Kind(msg),
				"seq", seq,
				"duration", time.Since(start),
			)
			logger.Log(context.Background(), level, cfg.Message, args...)
		}
	}
}
