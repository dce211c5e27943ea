package dialect

import (
	"fmt"
	"strings"
)

// Postgres is the PostgreSQL dialect (lib/pq). Parameters are positional.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "postgres" }

func (Postgres) Placeholder(position int, _ string) string {
	return fmt.Sprintf("$%d", position)
}

func (Postgres) Arg(_ string, value any) any { return value }

func (Postgres) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (Postgres) Concat(parts ...string) string { return strings.Join(parts, " || ") }

func (Postgres) LikeContains(text string) string { return likeContains(text) }

// Like uses ILIKE so substring search is case-insensitive as on the other backends.
func (Postgres) Like(expr, placeholder string) string {
	return fmt.Sprintf("%s ILIKE %s ESCAPE '%s'", expr, placeholder, likeEscape)
}

func (Postgres) Limit(selectSQL string, n int) string { return appendLimit(selectSQL, n) }

func (Postgres) MaxParams() int { return 65535 }

// lastval() is session scoped, so it must run on the connection of the insert.
func (Postgres) IdentityQuery() string { return "SELECT lastval()" }

func (Postgres) ColumnType(kind Kind, identity bool) string {
	switch kind {
	case KindInt64:
		if identity {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case KindFloat64:
		return "DOUBLE PRECISION"
	case KindBool:
		return "BOOLEAN"
	case KindTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
