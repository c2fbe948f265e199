package notify

import (
	"context"
	"log/slog"
	"time"
)

// Level classifies an account event for downstream sinks.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// AccountEvent captures the canonical data we emit for account lifecycle
// notifications: the user-facing message plus enough context for ops
// sinks to aggregate on.
type AccountEvent struct {
	Level      Level
	Message    string
	Kind       string // login, register, logout, profile_update, demo_fallback
	Email      string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming account events.
// Senders treat delivery as fire-and-forget; errors are logged, never
// surfaced to the user.
type Sink interface {
	SendAccountEvent(ctx context.Context, event AccountEvent) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, event AccountEvent) error

// SendAccountEvent implements the Sink interface.
func (f SinkFunc) SendAccountEvent(ctx context.Context, event AccountEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// LogSink writes account events to a structured logger. It is the default
// sink for the CLI, standing in for the storefront's toast channel.
func LogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(ctx context.Context, event AccountEvent) error {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		if event.Level == LevelError {
			l.ErrorContext(ctx, event.Message, "kind", event.Kind, "email", event.Email)
			return nil
		}
		l.InfoContext(ctx, event.Message, "kind", event.Kind, "email", event.Email)
		return nil
	})
}

// Multi fans an event out to several sinks, returning the first error
// after attempting all of them.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, event AccountEvent) error {
		var firstErr error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.SendAccountEvent(ctx, event); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}
