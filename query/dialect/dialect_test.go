package dialect

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"postgresql", "postgres"},
		{"Postgres", "postgres"},
		{"mysql", "mysql"},
		{"sqlite3", "sqlite"},
		{" sqlite ", "sqlite"},
		{"mssql", "sqlserver"},
		{"sqlserver", "sqlserver"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			d, err := For(tt.provider)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := For("oracle")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$3", Postgres{}.Placeholder(3, "Name"))
	assert.Equal(t, "?", MySQL{}.Placeholder(3, "Name"))
	assert.Equal(t, "@Name", SQLite{}.Placeholder(3, "Name"))
	assert.Equal(t, "@Name", SQLServer{}.Placeholder(3, "Name"))

	assert.Equal(t, sql.Named("Name", 1), SQLServer{}.Arg("Name", 1))
	assert.Equal(t, 1, Postgres{}.Arg("Name", 1))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a""b"`, Postgres{}.Quote(`a"b`))
	assert.Equal(t, "`a``b`", MySQL{}.Quote("a`b"))
	assert.Equal(t, "[a]]b]", SQLServer{}.Quote("a]b"))
}

func TestLimit(t *testing.T) {
	assert.Equal(t, "SELECT x FROM t LIMIT 4", SQLite{}.Limit("SELECT x FROM t", 4))
	assert.Equal(t, "SELECT x FROM t", MySQL{}.Limit("SELECT x FROM t", 0))
	assert.Equal(t, "SELECT TOP 4 x FROM t", SQLServer{}.Limit("SELECT x FROM t", 4))
	assert.Equal(t, "SELECT DISTINCT TOP 4 x FROM t", SQLServer{}.Limit("SELECT DISTINCT x FROM t", 4))
}

func TestLike(t *testing.T) {
	assert.Equal(t, "%a!%b!_c!!%", MySQL{}.LikeContains("a%b_c!"))
	assert.Equal(t, "x LIKE ? ESCAPE '!'", MySQL{}.Like("x", "?"))
	assert.Equal(t, "x ILIKE $1 ESCAPE '!'", Postgres{}.Like("x", "$1"))
	assert.Equal(t, "%[!]%", SQLite{}.LikeContains("[!]"))
	assert.Equal(t, "%![!!]%", SQLServer{}.LikeContains("[!]"))
}

func TestColumnType(t *testing.T) {
	assert.Equal(t, "BIGSERIAL", Postgres{}.ColumnType(KindInt64, true))
	assert.Equal(t, "INTEGER PRIMARY KEY AUTOINCREMENT", SQLite{}.ColumnType(KindInt64, true))
	assert.Equal(t, "BIGINT IDENTITY(1,1)", SQLServer{}.ColumnType(KindInt64, true))
	assert.Equal(t, "NVARCHAR(255)", SQLServer{}.ColumnType(KindText, false))
	assert.Equal(t, "text", KindText.String())
}
