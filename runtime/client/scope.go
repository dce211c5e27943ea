package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/satishbabariya/posdata/internal/debug"
)

var (
	// ErrScopeAborted is returned by the outermost Complete when a nested
	// scope was closed without completing.
	ErrScopeAborted = errors.New("transaction scope aborted by a nested scope")
	// ErrScopeOpen is returned by the outermost Complete while nested scopes
	// are still open.
	ErrScopeOpen = errors.New("transaction scope completed with nested scopes still open")
	// ErrScopeFinished is returned by Complete on a scope that already
	// completed or rolled back.
	ErrScopeFinished = errors.New("transaction scope already finished")
)

// State is the lifecycle state of a Scope.
type State int

const (
	Created State = iota
	Active
	Completed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Active:
		return "active"
	case Completed:
		return "completed"
	case RolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type unitKey struct{}

// unit is one physical transaction shared by a stack of scopes.
type unit struct {
	tx *sql.Tx

	mu     sync.Mutex
	refs   int
	doomed bool
	done   bool
}

func unitFrom(ctx context.Context) *unit {
	u, _ := ctx.Value(unitKey{}).(*unit)
	return u
}

func (u *unit) live() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return !u.done
}

// Scope is one level of a transaction. The outermost scope owns the
// physical transaction; nested scopes join it. Every scope must be closed,
// typically with defer, and completed on success:
//
//	ctx, scope, err := c.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//	...
//	return scope.Complete()
//
// If any scope is closed without Complete the whole transaction rolls back.
type Scope struct {
	unit  *unit
	outer bool
	state State
}

// Begin opens a scope. When ctx already carries a live scope the new one
// joins its transaction; otherwise a transaction is started. Pass the
// returned context to every operation that belongs to the scope.
func (c *Client) Begin(ctx context.Context) (context.Context, *Scope, error) {
	if u := unitFrom(ctx); u != nil {
		u.mu.Lock()
		if !u.done {
			u.refs++
			u.mu.Unlock()
			return ctx, &Scope{unit: u, state: Active}, nil
		}
		u.mu.Unlock()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	u := &unit{tx: tx, refs: 1}
	debug.Debug("transaction started", "provider", c.dialect.Name())
	return context.WithValue(ctx, unitKey{}, u), &Scope{unit: u, outer: true, state: Active}, nil
}

// State returns the state of this scope.
func (s *Scope) State() State { return s.state }

// Nested reports whether the scope joined an outer one.
func (s *Scope) Nested() bool { return !s.outer }

// Complete marks the scope successful. On the outermost scope it commits,
// unless a nested scope aborted or is still open, in which case it rolls
// back and returns ErrScopeAborted or ErrScopeOpen. A nested scope whose
// transaction already ended returns ErrScopeFinished.
func (s *Scope) Complete() error {
	if s.state != Active {
		return ErrScopeFinished
	}
	u := s.unit
	u.mu.Lock()
	defer u.mu.Unlock()

	if !s.outer {
		if u.done {
			s.state = RolledBack
			return ErrScopeFinished
		}
		u.refs--
		s.state = Completed
		return nil
	}

	var cause error
	switch {
	case u.doomed:
		cause = ErrScopeAborted
	case u.refs > 1:
		cause = ErrScopeOpen
	}
	u.refs = 0
	u.done = true

	if cause != nil {
		s.state = RolledBack
		if err := u.tx.Rollback(); err != nil {
			return fmt.Errorf("%w (rollback error: %v)", cause, err)
		}
		debug.Debug("transaction rolled back", "reason", cause)
		return cause
	}

	if err := u.tx.Commit(); err != nil {
		s.state = RolledBack
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.state = Completed
	debug.Debug("transaction committed")
	return nil
}

// Close ends the scope. A scope closed without Complete rolls back the
// transaction: immediately when outermost, at the outermost Complete when
// nested. Close is idempotent and returns nil after Complete.
func (s *Scope) Close() error {
	if s.state != Active {
		return nil
	}
	u := s.unit
	u.mu.Lock()
	defer u.mu.Unlock()

	s.state = RolledBack
	if !s.outer {
		if u.done {
			return nil
		}
		u.refs--
		u.doomed = true
		return nil
	}

	u.refs = 0
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	debug.Debug("transaction rolled back", "reason", "scope closed without completing")
	return nil
}

// InScope runs fn inside a scope and completes it when fn succeeds. A
// panic in fn rolls the scope back and is re-raised.
func (c *Client) InScope(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, scope, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()

	if err := fn(ctx); err != nil {
		return err
	}
	return scope.Complete()
}
