// Package logger provides the printf-style structured logger used across the service.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	logger *zerolog.Logger
	ctx    context.Context
}

// Options configures the logger setup.
type Options struct {
	Level   string    // debug, info, warn, error
	Console bool      // pretty print for dev (LOG_FORMAT=console)
	Output  io.Writer // defaults to stdout
}

func New(level string) *Logger {
	return NewWithOptions(Options{Level: level})
}

func NewWithOptions(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).
		Level(parseLevel(opts.Level)).
		Hook(CorrelationHook{}).
		With().
		Timestamp().
		CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 2).
		Logger()

	return &Logger{logger: &zl, ctx: context.Background()}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	zl := zerolog.Nop()
	return &Logger{logger: &zl, ctx: context.Background()}
}

// Ctx returns a logger whose records carry the correlation id found in ctx.
func (l *Logger) Ctx(ctx context.Context) *Logger {
	return &Logger{logger: l.logger, ctx: ctx}
}

func (l *Logger) Debug(message interface{}, args ...interface{}) {
	l.msg(zerolog.DebugLevel, message, args...)
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.log(l.logger.Info(), message, args...)
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(l.logger.Warn(), message, args...)
}

func (l *Logger) Error(message interface{}, args ...interface{}) {
	l.msg(zerolog.ErrorLevel, message, args...)
}

func (l *Logger) Fatal(message interface{}, args ...interface{}) {
	l.msg(zerolog.FatalLevel, message, args...)
	os.Exit(1)
}

func (l *Logger) log(e *zerolog.Event, message string, args ...interface{}) {
	e = e.Ctx(l.ctx)
	if len(args) == 0 {
		e.Msg(message)
		return
	}
	e.Msgf(message, args...)
}

func (l *Logger) msg(level zerolog.Level, message interface{}, args ...interface{}) {
	e := l.logger.WithLevel(level)
	switch msg := message.(type) {
	case error:
		l.log(e, msg.Error(), args...)
	case string:
		l.log(e, msg, args...)
	default:
		l.log(e, fmt.Sprintf("%s message %v has unknown type %v", level, message, msg), args...)
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
