// Package dialect describes the capabilities of each supported SQL backend.
//
// Everything that differs between backends (placeholder syntax, identifier
// quoting, string concatenation, LIKE escaping, LIMIT vs TOP, parameter
// limits, identity retrieval and DDL column types) lives behind the Dialect
// interface, so adding a backend means implementing one small type.
package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by For when no dialect matches a provider name.
var ErrUnsupported = errors.New("unsupported provider")

// Kind is the abstract storage type of a column.
type Kind int

const (
	KindInt64 Kind = iota
	KindText
	KindFloat64
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindText:
		return "text"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Dialect is the backend capability descriptor consulted by the statement builders.
type Dialect interface {
	// Name returns the canonical provider name ("postgres", "mysql", "sqlite", "sqlserver").
	Name() string

	// DriverName returns the database/sql driver name registered for this backend.
	DriverName() string

	// Placeholder returns the bind marker for the parameter at the given
	// 1-based position carrying the given name.
	Placeholder(position int, name string) string

	// Arg wraps a bound value the way the driver expects it.
	Arg(name string, value any) any

	// Quote quotes an identifier.
	Quote(identifier string) string

	// Concat joins SQL expressions with the backend's concatenation operator.
	Concat(parts ...string) string

	// LikeContains turns free text into a LIKE pattern matching it as a
	// substring, with the backend's wildcards escaped.
	LikeContains(text string) string

	// Like renders "<expr> LIKE <placeholder>" with the escape clause that
	// matches LikeContains.
	Like(expr, placeholder string) string

	// Limit restricts a SELECT statement to n rows.
	Limit(selectSQL string, n int) string

	// MaxParams is the number of bind parameters a single statement may carry.
	MaxParams() int

	// IdentityQuery returns the statement that reads the last generated
	// identity on the current connection, or "" when the driver reports it
	// through sql.Result.LastInsertId.
	IdentityQuery() string

	// ColumnType returns the DDL type for a column of the given kind.
	ColumnType(kind Kind, identity bool) string
}

// likeEscape is the LIKE escape character. A backslash would need doubling
// inside MySQL string literals, so a neutral character is used everywhere.
const likeEscape = "!"

// likeContains escapes the standard wildcards plus any backend-specific
// metacharacters and wraps the text in %.
func likeContains(text string, meta ...string) string {
	pairs := []string{likeEscape, likeEscape + likeEscape, "%", likeEscape + "%", "_", likeEscape + "_"}
	for _, m := range meta {
		pairs = append(pairs, m, likeEscape+m)
	}
	return "%" + strings.NewReplacer(pairs...).Replace(text) + "%"
}

func likeClause(expr, placeholder string) string {
	return fmt.Sprintf("%s LIKE %s ESCAPE '%s'", expr, placeholder, likeEscape)
}

// For returns the dialect for a provider name.
func For(provider string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "postgresql", "postgres":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "sqlserver", "mssql":
		return SQLServer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, provider)
	}
}

// Names lists the canonical provider names.
func Names() []string {
	return []string{"postgres", "mysql", "sqlite", "sqlserver"}
}

func appendLimit(selectSQL string, n int) string {
	if n <= 0 {
		return selectSQL
	}
	return fmt.Sprintf("%s LIMIT %d", selectSQL, n)
}
