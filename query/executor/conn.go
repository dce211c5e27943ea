// Package executor runs statements built by sqlgen against database/sql and
// exposes their rows as lazy, single-pass results.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/satishbabariya/posdata/query/dialect"
	"github.com/satishbabariya/posdata/query/fields"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

// DBTX is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QueryEvent describes one statement execution as seen by middleware.
type QueryEvent struct {
	Operation string
	Query     string
	Args      []any
	Duration  time.Duration
	Error     error
	Start     time.Time
	End       time.Time
}

// Middleware intercepts statement execution. It must call next exactly once
// and return its error, possibly annotated.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Option configures a Conn.
type Option func(*Conn)

// WithTimeout bounds every call made through the Conn. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Conn) { c.timeout = d }
}

// WithMiddleware appends middleware to the chain.
func WithMiddleware(m ...Middleware) Option {
	return func(c *Conn) { c.middlewares = append(c.middlewares, m...) }
}

// Conn executes statements on a database handle for one dialect. A Conn
// bound to a transaction must not be used by two goroutines at once.
type Conn struct {
	db          DBTX
	fields      *fields.Collection
	timeout     time.Duration
	middlewares []Middleware
	lastResult  sql.Result
}

// NewConn creates a Conn executing on db and translating through c.
func NewConn(db DBTX, c *fields.Collection, opts ...Option) *Conn {
	conn := &Conn{db: db, fields: c}
	for _, opt := range opts {
		opt(conn)
	}
	return conn
}

// Dialect returns the backend of the connection.
func (c *Conn) Dialect() dialect.Dialect { return c.fields.Dialect() }

// Fields returns the translation collection bound to the backend.
func (c *Conn) Fields() *fields.Collection { return c.fields }

// ExecuteNonQuery runs stmt and returns the number of affected rows.
func (c *Conn) ExecuteNonQuery(ctx context.Context, stmt *sqlgen.Statement) (int64, error) {
	var affected int64
	err := c.run(ctx, "exec", stmt, func(ctx context.Context) error {
		res, err := c.db.ExecContext(ctx, stmt.SQL(), stmt.Args()...)
		if err != nil {
			return err
		}
		c.lastResult = res
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// ExecuteScalar runs stmt and converts the first column of the first row to
// T. No row yields sql.ErrNoRows.
func ExecuteScalar[T any](ctx context.Context, c *Conn, stmt *sqlgen.Statement) (T, error) {
	var out T
	err := c.run(ctx, "scalar", stmt, func(ctx context.Context) error {
		var raw any
		if err := c.db.QueryRowContext(ctx, stmt.SQL(), stmt.Args()...).Scan(&raw); err != nil {
			return err
		}
		v, err := convert[T](raw)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// ExecuteReader runs stmt and returns an open cursor. The caller owns the
// cursor and must close it; closing also releases the query timeout.
func (c *Conn) ExecuteReader(ctx context.Context, stmt *sqlgen.Statement) (*Cursor, error) {
	var cursor *Cursor
	err := c.run(ctx, "query", stmt, func(context.Context) error {
		// The timeout has to outlive this call, so it is applied here
		// rather than by run.
		qctx, cancel := c.withTimeout(ctx)
		rows, err := c.db.QueryContext(qctx, stmt.SQL(), stmt.Args()...)
		if err != nil {
			cancel()
			return err
		}
		cursor = &Cursor{Rows: rows, cancel: cancel}
		return nil
	})
	return cursor, err
}

// LastInsertedIdentity returns the identity generated by the last INSERT on
// this connection. Dialects with an identity query read it from the session,
// so the INSERT and this call must share a transaction.
func (c *Conn) LastInsertedIdentity(ctx context.Context) (int64, error) {
	if q := c.Dialect().IdentityQuery(); q != "" {
		stmt := sqlgen.NewStatement(c.Dialect()).Write(q)
		return ExecuteScalar[int64](ctx, c, stmt)
	}
	if c.lastResult == nil {
		return 0, fmt.Errorf("no insert executed on this connection")
	}
	return c.lastResult.LastInsertId()
}

// run applies the timeout and the middleware chain around exec.
func (c *Conn) run(ctx context.Context, op string, stmt *sqlgen.Statement, exec func(context.Context) error) error {
	call := func() error {
		if op == "query" {
			return exec(ctx)
		}
		ctx, cancel := c.withTimeout(ctx)
		defer cancel()
		return exec(ctx)
	}
	if len(c.middlewares) == 0 {
		return call()
	}

	event := &QueryEvent{
		Operation: op,
		Query:     stmt.SQL(),
		Args:      stmt.Args(),
		Start:     time.Now(),
	}

	var next func() error
	index := 0
	next = func() error {
		if index >= len(c.middlewares) {
			err := call()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}
		m := c.middlewares[index]
		index++
		return m(ctx, event, next)
	}
	return next()
}

func (c *Conn) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Cursor is an open result set. Close is idempotent.
type Cursor struct {
	*sql.Rows
	cancel context.CancelFunc
}

// Close closes the rows and releases the query context.
func (c *Cursor) Close() error {
	err := c.Rows.Close()
	c.cancel()
	return err
}

// convert turns a driver value into T. Drivers return text as []byte, which
// cast does not understand.
func convert[T any](raw any) (T, error) {
	var zero T
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case int64:
		v, err = cast.ToInt64E(raw)
	case int:
		v, err = cast.ToIntE(raw)
	case float64:
		v, err = cast.ToFloat64E(raw)
	case bool:
		v, err = cast.ToBoolE(raw)
	case string:
		v, err = cast.ToStringE(raw)
	case time.Time:
		v, err = cast.ToTimeE(raw)
	default:
		return zero, fmt.Errorf("cannot convert %T to %T", raw, zero)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
