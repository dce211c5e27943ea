package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/satishbabariya/posdata/query/dialect"
	"github.com/satishbabariya/posdata/query/fields"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

// Tables lists the physical tables of c in registration order.
func Tables(c *fields.Collection) []string {
	var tables []string
	seen := make(map[string]bool)
	for _, f := range c.Fields() {
		m := c.MustResolve(f)
		if !seen[m.Table] {
			seen[m.Table] = true
			tables = append(tables, m.Table)
		}
	}
	return tables
}

// CreateTables renders one idempotent CREATE TABLE per table of c. Column
// order follows field registration order.
func CreateTables(c *fields.Collection) ([]*sqlgen.Statement, error) {
	d := c.Dialect()
	columns := make(map[string][]string)
	for _, f := range c.Fields() {
		m, err := c.Resolve(f)
		if err != nil {
			return nil, err
		}
		columns[m.Table] = append(columns[m.Table], columnDef(d, m))
	}

	var out []*sqlgen.Statement
	for _, table := range Tables(c) {
		stmt := sqlgen.NewStatement(d)
		stmt.Write(createTable(d, table, columns[table]))
		out = append(out, stmt)
	}
	return out, nil
}

func columnDef(d dialect.Dialect, m fields.Mapping) string {
	def := d.Quote(m.Column) + " " + d.ColumnType(m.Kind, m.Identity)
	switch {
	case m.Identity:
		if !strings.Contains(def, "PRIMARY KEY") {
			def += " PRIMARY KEY"
		}
		return def
	case !m.Nullable:
		def += " NOT NULL"
	}
	if m.Unique {
		def += " UNIQUE"
	}
	return def
}

// createTable wraps the definition so it is a no-op when the table exists.
// SQL Server has no IF NOT EXISTS for tables.
func createTable(d dialect.Dialect, table string, columns []string) string {
	body := d.Quote(table) + " (" + strings.Join(columns, ", ") + ")"
	if d.Name() == "sqlserver" {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s", strings.ReplaceAll(table, "'", "''"), body)
	}
	return "CREATE TABLE IF NOT EXISTS " + body
}

// Checksum fingerprints the DDL of a schema version.
func Checksum(statements []*sqlgen.Statement) string {
	h := sha256.New()
	for _, s := range statements {
		h.Write([]byte(s.SQL()))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
