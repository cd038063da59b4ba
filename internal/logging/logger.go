// Package logging defines the structured-logging interface used across the
// client. The only implementation wraps log/slog; output can go to stderr or
// to a size-rotated file.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "sync pass finished", "pushed", n, "failed", failed)
type Logger interface {
	// Debug logs diagnostic detail (request URLs, per-record decisions).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a recoverable condition, e.g. a remote call that was absorbed
	// into the unsynced state.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure that was surfaced to the caller.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
