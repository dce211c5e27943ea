package client

import (
	"context"
	"time"

	"github.com/satishbabariya/posdata/internal/debug"
	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/telemetry"
)

// QueryEvent represents a query execution event
type QueryEvent = executor.QueryEvent

// Middleware is a function that intercepts queries
type Middleware = executor.Middleware

// LoggingMiddleware logs every statement at debug level. Argument values are
// not logged, only their number.
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		debug.Debug("executing statement", "op", event.Operation, "sql", event.Query, "params", len(event.Args))
		err := next()
		if err != nil {
			debug.Debug("statement failed", "op", event.Operation, "error", err, "duration", event.Duration)
		} else {
			debug.Debug("statement completed", "op", event.Operation, "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware creates a middleware that measures query execution time
func TimingMiddleware(onTiming func(event *QueryEvent)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event)
		}
		return err
	}
}

// TelemetryMiddleware records every statement in c.
func TelemetryMiddleware(c *telemetry.Collector) Middleware {
	return TimingMiddleware(func(event *QueryEvent) {
		c.Record(event.Operation, event.Duration, event.Error)
	})
}

// ErrorMiddleware creates a middleware that handles errors
func ErrorMiddleware(onError func(query string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Query, err)
		}
		return err
	}
}

// SlowQueryMiddleware warns about statements slower than threshold.
func SlowQueryMiddleware(threshold time.Duration) Middleware {
	return TimingMiddleware(func(event *QueryEvent) {
		if event.Duration >= threshold {
			debug.Warn("slow statement", "op", event.Operation, "sql", event.Query, "duration", event.Duration)
		}
	})
}
