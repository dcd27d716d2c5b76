// Package logger wraps log/slog with the handful of helpers the server and
// its background workers use.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with additional helpers.
type Logger struct {
	*slog.Logger
}

// New builds a logger writing to stdout.  The dev environment gets the text
// handler, everything else JSON.
func New(env, level string) *Logger {
	return NewWithWriter(os.Stdout, env, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, env, level string) *Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	var handler slog.Handler
	if strings.EqualFold(env, "dev") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything.  Tests use it.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel converts a LOG_LEVEL string to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithUserID adds the user id to every record.
func (l *Logger) WithUserID(userID uint64) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Uint64("user_id", userID))}
}

// WithError adds err to every record.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// LogBookingCreated records a confirmed booking.
func (l *Logger) LogBookingCreated(ctx context.Context, ticketID string, userID uint64, seats []int) {
	l.Logger.InfoContext(ctx, "booking created",
		slog.String("ticket_id", ticketID),
		slog.Uint64("user_id", userID),
		slog.Any("seats", seats),
	)
}

// LogBookingCancelled records released seats.
func (l *Logger) LogBookingCancelled(ctx context.Context, userID uint64, seats []int) {
	l.Logger.InfoContext(ctx, "booking cancelled",
		slog.Uint64("user_id", userID),
		slog.Any("seats", seats),
	)
}

// LogAuthFailure records a rejected login or token.
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx, "authentication failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}
