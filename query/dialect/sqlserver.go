package dialect

import (
	"database/sql"
	"fmt"
	"strings"
)

// SQLServer is the Microsoft SQL Server dialect (denisenkom/go-mssqldb).
type SQLServer struct{}

func (SQLServer) Name() string       { return "sqlserver" }
func (SQLServer) DriverName() string { return "sqlserver" }

func (SQLServer) Placeholder(_ int, name string) string { return "@" + name }

func (SQLServer) Arg(name string, value any) any { return sql.Named(name, value) }

func (SQLServer) Quote(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

func (SQLServer) Concat(parts ...string) string { return strings.Join(parts, " + ") }

// LikeContains also escapes "[", which opens a character class in T-SQL patterns.
func (SQLServer) LikeContains(text string) string      { return likeContains(text, "[") }
func (SQLServer) Like(expr, placeholder string) string { return likeClause(expr, placeholder) }

// Limit uses TOP; SQL Server has no LIMIT clause.
func (SQLServer) Limit(selectSQL string, n int) string {
	if n <= 0 {
		return selectSQL
	}
	if rest, ok := strings.CutPrefix(selectSQL, "SELECT DISTINCT "); ok {
		return fmt.Sprintf("SELECT DISTINCT TOP %d %s", n, rest)
	}
	if rest, ok := strings.CutPrefix(selectSQL, "SELECT "); ok {
		return fmt.Sprintf("SELECT TOP %d %s", n, rest)
	}
	return selectSQL
}

// The protocol limit is 2100 including the ones the driver adds itself.
func (SQLServer) MaxParams() int { return 2098 }

// SCOPE_IDENTITY() would be NULL here because the insert ran in another batch.
func (SQLServer) IdentityQuery() string { return "SELECT CAST(@@IDENTITY AS BIGINT)" }

func (SQLServer) ColumnType(kind Kind, identity bool) string {
	switch kind {
	case KindInt64:
		if identity {
			return "BIGINT IDENTITY(1,1)"
		}
		return "BIGINT"
	case KindFloat64:
		return "FLOAT"
	case KindBool:
		return "BIT"
	case KindTime:
		return "DATETIME2"
	default:
		return "NVARCHAR(255)"
	}
}
