// Package logging provides the process-wide structured logger and context
// helpers.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/m-mizutani/clog"
)

type ctxKey struct{}

var defaultLogger = slog.New(clog.New(
	clog.WithWriter(os.Stderr),
	clog.WithLevel(slog.LevelWarn),
))

// Default returns the current process logger.
func Default() *slog.Logger { return defaultLogger }

// Configure replaces the process logger with one at the given level.
func Configure(level slog.Level) *slog.Logger {
	defaultLogger = slog.New(clog.New(
		clog.WithWriter(os.Stderr),
		clog.WithLevel(level),
		clog.WithColor(true),
	))
	return defaultLogger
}

// With returns a context carrying the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the logger carried by ctx, or the process logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}
