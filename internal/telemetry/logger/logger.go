// Package logger is the structured logger shared by the tlsrest binaries.
//
// All loggers created by New share one level, so a configuration reload
// can raise or lower verbosity for the whole process with SetLevel.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface handed to server components.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Accepted output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	ErrUnknownLevel  = errors.New("unknown log level")
	ErrUnknownFormat = errors.New("unknown log format")
)

// Config selects level, encoding and destination.
// Empty fields fall back to info, text and stderr.
type Config struct {
	Level     string
	Format    string
	Output    io.Writer
	AddSource bool
}

var level = new(slog.LevelVar)

type handle struct {
	sl  *slog.Logger
	ctx context.Context
}

// New builds a logger from cfg and applies cfg.Level process wide.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		h = slog.NewTextHandler(out, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}

	level.Set(lvl)
	return &handle{sl: slog.New(h), ctx: context.Background()}, nil
}

// ParseLevel maps debug, info, warn (or warning) and error to a slog
// level. The empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// SetLevel changes the level of every logger built by New.
func SetLevel(s string) error {
	lvl, err := ParseLevel(s)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// CurrentLevel reports the shared level in the spelling ParseLevel takes.
func CurrentLevel() string {
	return strings.ToLower(level.Level().String())
}

func (h *handle) Debug(msg string, args ...any) { h.sl.DebugContext(h.ctx, msg, args...) }
func (h *handle) Info(msg string, args ...any)  { h.sl.InfoContext(h.ctx, msg, args...) }
func (h *handle) Warn(msg string, args ...any)  { h.sl.WarnContext(h.ctx, msg, args...) }
func (h *handle) Error(msg string, args ...any) { h.sl.ErrorContext(h.ctx, msg, args...) }

func (h *handle) With(args ...any) Logger {
	return &handle{sl: h.sl.With(args...), ctx: h.ctx}
}

func (h *handle) WithContext(ctx context.Context) Logger {
	return &handle{sl: h.sl, ctx: ctx}
}

// Slog unwraps l for packages that accept a *slog.Logger. Foreign
// implementations get slog.Default().
func Slog(l Logger) *slog.Logger {
	if h, ok := l.(*handle); ok {
		return h.sl
	}
	return slog.Default()
}

var std atomic.Pointer[handle]

func init() {
	l, _ := New(Config{})
	std.Store(l.(*handle))
}

// SetDefault replaces the package logger and slog's default with l.
func SetDefault(l Logger) {
	h, ok := l.(*handle)
	if !ok {
		return
	}
	std.Store(h)
	slog.SetDefault(h.sl)
}

// Default returns the package logger.
func Default() Logger { return std.Load() }
