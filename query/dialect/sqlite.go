package dialect

import (
	"database/sql"
	"strings"
)

// SQLite is the SQLite dialect (mattn/go-sqlite3). Parameters are named.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite3" }

func (SQLite) Placeholder(_ int, name string) string { return "@" + name }

func (SQLite) Arg(name string, value any) any { return sql.Named(name, value) }

func (SQLite) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (SQLite) Concat(parts ...string) string { return strings.Join(parts, " || ") }

func (SQLite) LikeContains(text string) string      { return likeContains(text) }
func (SQLite) Like(expr, placeholder string) string { return likeClause(expr, placeholder) }

func (SQLite) Limit(selectSQL string, n int) string { return appendLimit(selectSQL, n) }

// SQLITE_MAX_VARIABLE_NUMBER defaults to 999 on builds older than 3.32.
func (SQLite) MaxParams() int { return 999 }

func (SQLite) IdentityQuery() string { return "" }

func (SQLite) ColumnType(kind Kind, identity bool) string {
	switch kind {
	case KindInt64:
		if identity {
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		}
		return "INTEGER"
	case KindFloat64:
		return "REAL"
	case KindBool:
		return "BOOLEAN"
	case KindTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}
