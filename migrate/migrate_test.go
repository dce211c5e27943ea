package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/posdata/query/dialect"
	"github.com/satishbabariya/posdata/query/fields"
	"github.com/satishbabariya/posdata/runtime/client"
)

func testRegistry() *fields.Registry {
	return fields.NewRegistry().
		Register(fields.Mapping{Field: "BoxId", Table: "boxes", Column: "ID", Kind: dialect.KindInt64, Identity: true}).
		Register(fields.Mapping{Field: "BoxLabel", Table: "boxes", Column: "Label", Kind: dialect.KindText, Unique: true}).
		Register(fields.Mapping{Field: "BoxNote", Table: "boxes", Column: "Note", Kind: dialect.KindText, Nullable: true}).
		Register(fields.Mapping{Field: "LidId", Table: "lids", Column: "ID", Kind: dialect.KindInt64, Identity: true}).
		Register(fields.Mapping{Field: "LidAt", Table: "lids", Column: "At", Kind: dialect.KindTime})
}

func TestCreateTables(t *testing.T) {
	tests := []struct {
		d    dialect.Dialect
		want []string
	}{
		{dialect.SQLite{}, []string{
			`CREATE TABLE IF NOT EXISTS "boxes" ("ID" INTEGER PRIMARY KEY AUTOINCREMENT, "Label" TEXT NOT NULL UNIQUE, "Note" TEXT)`,
			`CREATE TABLE IF NOT EXISTS "lids" ("ID" INTEGER PRIMARY KEY AUTOINCREMENT, "At" DATETIME NOT NULL)`,
		}},
		{dialect.Postgres{}, []string{
			`CREATE TABLE IF NOT EXISTS "boxes" ("ID" BIGSERIAL PRIMARY KEY, "Label" TEXT NOT NULL UNIQUE, "Note" TEXT)`,
			`CREATE TABLE IF NOT EXISTS "lids" ("ID" BIGSERIAL PRIMARY KEY, "At" TIMESTAMP NOT NULL)`,
		}},
		{dialect.SQLServer{}, []string{
			`IF OBJECT_ID(N'boxes', N'U') IS NULL CREATE TABLE [boxes] ([ID] BIGINT IDENTITY(1,1) PRIMARY KEY, [Label] NVARCHAR(255) NOT NULL UNIQUE, [Note] NVARCHAR(255))`,
			`IF OBJECT_ID(N'lids', N'U') IS NULL CREATE TABLE [lids] ([ID] BIGINT IDENTITY(1,1) PRIMARY KEY, [At] DATETIME2 NOT NULL)`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			stmts, err := CreateTables(testRegistry().Collection(tt.d))
			require.NoError(t, err)
			require.Len(t, stmts, len(tt.want))
			for i, stmt := range stmts {
				assert.Equal(t, tt.want[i], stmt.SQL())
			}
		})
	}
}

func openClient(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"), testRegistry(), client.WithMaxOpenConns(1))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestApply(t *testing.T) {
	c := openClient(t)
	ctx := context.Background()

	m, err := New(c, testRegistry(), "1.2.0")
	require.NoError(t, err)

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.Current)
	assert.True(t, st.Pending())
	assert.Equal(t, []string{"boxes", "lids"}, st.Tables)

	st, err = m.Apply(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.Current)
	assert.Equal(t, "1.2.0", st.Current.Original())
	assert.False(t, st.Pending())
	require.Len(t, st.Applied, 1)
	assert.NotEmpty(t, st.Applied[0].Checksum)

	_, err = c.DB().Exec(`INSERT INTO "boxes" ("Label") VALUES ('a')`)
	require.NoError(t, err)

	// Re-applying the same version changes nothing.
	st, err = m.Apply(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Applied, 1)

	upgrade, err := New(c, testRegistry(), "1.10.0")
	require.NoError(t, err)
	st, err = upgrade.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.10.0", st.Current.Original())
	assert.Len(t, st.Applied, 2)

	var n int
	require.NoError(t, c.DB().QueryRow(`SELECT COUNT(*) FROM "boxes"`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestApplyRefusesNewerSchema(t *testing.T) {
	c := openClient(t)
	ctx := context.Background()

	newer, err := New(c, testRegistry(), "2.0.0")
	require.NoError(t, err)
	_, err = newer.Apply(ctx)
	require.NoError(t, err)

	older, err := New(c, testRegistry(), "1.9.3")
	require.NoError(t, err)
	_, err = older.Apply(ctx)
	require.ErrorIs(t, err, ErrNewerSchema)
}

func TestNewRejectsBadVersion(t *testing.T) {
	_, err := New(openClient(t), testRegistry(), "not-a-version")
	require.Error(t, err)
}
