package dialect

import (
	"fmt"
	"strings"
)

// MySQL is the MySQL/MariaDB dialect (go-sql-driver/mysql).
type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Placeholder(int, string) string { return "?" }

func (MySQL) Arg(_ string, value any) any { return value }

func (MySQL) Quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (MySQL) Concat(parts ...string) string {
	return fmt.Sprintf("CONCAT(%s)", strings.Join(parts, ", "))
}

func (MySQL) LikeContains(text string) string      { return likeContains(text) }
func (MySQL) Like(expr, placeholder string) string { return likeClause(expr, placeholder) }

func (MySQL) Limit(selectSQL string, n int) string { return appendLimit(selectSQL, n) }

func (MySQL) MaxParams() int { return 65535 }

func (MySQL) IdentityQuery() string { return "" }

func (MySQL) ColumnType(kind Kind, identity bool) string {
	switch kind {
	case KindInt64:
		if identity {
			return "BIGINT AUTO_INCREMENT"
		}
		return "BIGINT"
	case KindFloat64:
		return "DOUBLE"
	case KindBool:
		return "TINYINT(1)"
	case KindTime:
		return "DATETIME(6)"
	default:
		// TEXT cannot carry a UNIQUE index without a prefix length.
		return "VARCHAR(255)"
	}
}
