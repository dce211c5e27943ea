// Package client opens the database for a provider and hands out
// connections and transaction scopes.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/go-sql-driver/mysql"     // MySQL driver
	_ "github.com/lib/pq"                // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"      // SQLite driver

	"github.com/satishbabariya/posdata/query/dialect"
	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/fields"
)

// Option configures a Client.
type Option func(*Client)

// WithQueryTimeout bounds each statement. Zero means no bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxOpenConns limits the pool size.
func WithMaxOpenConns(n int) Option {
	return func(c *Client) { c.maxOpenConns = n }
}

// WithMiddleware installs query middleware.
func WithMiddleware(m ...Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, m...) }
}

// Client is the database client for one provider.
type Client struct {
	db           *sql.DB
	dialect      dialect.Dialect
	fields       *fields.Collection
	timeout      time.Duration
	maxOpenConns int
	middlewares  []Middleware
}

// Open opens a client for provider using dsn and translating through reg.
func Open(provider, dsn string, reg *fields.Registry, opts ...Option) (*Client, error) {
	d, err := dialect.For(provider)
	if err != nil {
		return nil, err
	}
	if d.Name() == "mysql" {
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name(), err)
	}
	return FromDB(db, d, reg, opts...), nil
}

// FromDB wraps an existing handle.
func FromDB(db *sql.DB, d dialect.Dialect, reg *fields.Registry, opts ...Option) *Client {
	c := &Client{
		db:      db,
		dialect: d,
		fields:  reg.Collection(d),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxOpenConns > 0 {
		db.SetMaxOpenConns(c.maxOpenConns)
	}
	return c
}

// Connect verifies the database is reachable.
func (c *Client) Connect(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the backend of the client.
func (c *Client) Dialect() dialect.Dialect { return c.dialect }

// Fields returns the translation collection bound to the backend.
func (c *Client) Fields() *fields.Collection { return c.fields }

// Use adds a middleware to the chain. Call it before issuing statements.
func (c *Client) Use(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

// Conn returns a connection for ctx: the transaction of the scope ctx
// carries, or the pool when there is none.
func (c *Client) Conn(ctx context.Context) *executor.Conn {
	return c.ConnWith(ctx, c.fields)
}

// ConnWith is like Conn but translates through fc, which must be bound to
// the client's dialect.
func (c *Client) ConnWith(ctx context.Context, fc *fields.Collection) *executor.Conn {
	var db executor.DBTX = c.db
	if u := unitFrom(ctx); u != nil && u.live() {
		db = u.tx
	}
	return executor.NewConn(db, fc,
		executor.WithTimeout(c.timeout),
		executor.WithMiddleware(c.middlewares...),
	)
}

// mysqlDSN makes UPDATE report matched rather than changed rows, so an
// update that rewrites identical values still counts as one affected row,
// and decodes DATETIME columns into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
