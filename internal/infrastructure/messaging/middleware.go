package messaging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/jobquest/jobquest/internal/domain/shared"
)

// Middleware decorates an event handler.
type Middleware func(shared.EventHandler) shared.EventHandler

// Chain applies middlewares to handler. The first one listed sees the
// event first.
func Chain(handler shared.EventHandler, middlewares ...Middleware) shared.EventHandler {
	for _, mw := range slices.Backward(middlewares) {
		handler = mw(handler)
	}
	return handler
}

// RecoveryMiddleware converts a handler panic into an ErrHandlerPanic error
// and logs the stack.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				logger.Error("handler panic recovered", "event_type", event.EventType(), "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs failures at error level and successes at debug.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			attrs := []any{"event_type", event.EventType(), "profile_id", event.AggregateID(), "duration", time.Since(start)}
			if err != nil {
				logger.Error("handler failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("handler completed", attrs...)
			}
			return err
		}
	}
}

// FilterMiddleware drops events whose type is not listed.
func FilterMiddleware(types ...shared.EventType) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			if !slices.Contains(types, event.EventType()) {
				return nil
			}
			return next(event)
		}
	}
}
