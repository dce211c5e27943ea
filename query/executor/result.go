package executor

import (
	"context"
	"errors"
	"iter"

	"github.com/satishbabariya/posdata/query/sqlgen"
)

// ErrResultConsumed is yielded when a Result is iterated a second time.
var ErrResultConsumed = errors.New("result already consumed")

// Projector turns the current row into a T.
type Projector[T any] func(*Row) (T, error)

// Result is a lazy, forward-only sequence of records. Creating a Result runs
// nothing; the query executes when iteration starts and the cursor is closed
// when iteration ends, however it ends. A Result can be iterated once.
//
// On single-connection pools (SQLite tests) finish or break the iteration
// before issuing the next statement, or it will wait for the connection.
type Result[T any] struct {
	conn     *Conn
	stmt     *sqlgen.Statement
	count    *sqlgen.Statement
	cols     sqlgen.SelectColumnInfos
	project  Projector[T]
	consumed bool
	buffered []T
	hasBuf   bool
}

// NewResult creates a Result that will run stmt on conn and project each row.
func NewResult[T any](conn *Conn, stmt *sqlgen.Statement, cols sqlgen.SelectColumnInfos, project Projector[T]) *Result[T] {
	return &Result[T]{conn: conn, stmt: stmt, cols: cols, project: project}
}

// WithCount attaches a COUNT statement so Count does not have to read the
// rows.
func (r *Result[T]) WithCount(stmt *sqlgen.Statement) *Result[T] {
	r.count = stmt
	return r
}

// Statement returns the SELECT the result runs.
func (r *Result[T]) Statement() *sqlgen.Statement { return r.stmt }

// Columns describes the projection of the result.
func (r *Result[T]) Columns() sqlgen.SelectColumnInfos { return r.cols }

// All returns the single-pass iterator over the records. Iterating after the
// result was consumed yields ErrResultConsumed once.
func (r *Result[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if r.consumed {
			yield(zero, ErrResultConsumed)
			return
		}
		r.consumed = true

		if r.hasBuf {
			buf := r.buffered
			r.buffered, r.hasBuf = nil, false
			for _, v := range buf {
				if !yield(v, nil) {
					return
				}
			}
			return
		}

		cursor, err := r.conn.ExecuteReader(ctx, r.stmt)
		if err != nil {
			yield(zero, err)
			return
		}
		defer cursor.Close()

		row, err := newRow(r.conn.Fields(), r.cols, cursor)
		if err != nil {
			yield(zero, err)
			return
		}
		for cursor.Next() {
			if err := row.scan(); err != nil {
				yield(zero, err)
				return
			}
			v, err := r.project(row)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// Collect reads every record into a slice.
func (r *Result[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for v, err := range r.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Count returns the number of records. With a COUNT statement attached it
// runs that statement. Without one it materializes every row and keeps them
// for the one iteration still allowed, so do not call it on huge results.
func (r *Result[T]) Count(ctx context.Context) (int64, error) {
	if r.count != nil {
		return ExecuteScalar[int64](ctx, r.conn, r.count)
	}
	if r.hasBuf {
		return int64(len(r.buffered)), nil
	}
	if r.consumed {
		return 0, ErrResultConsumed
	}
	rows, err := r.Collect(ctx)
	if err != nil {
		return 0, err
	}
	r.consumed = false
	r.buffered, r.hasBuf = rows, true
	return int64(len(rows)), nil
}
