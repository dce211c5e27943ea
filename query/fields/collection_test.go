package fields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/posdata/query/dialect"
)

const (
	testID      Field = "TestId"
	testName    Field = "TestName"
	testStamp   Field = "TestStamp"
	otherName   Field = "OtherName"
	missingFlag Field = "Missing"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(Mapping{Field: testID, Table: "things", Column: "ID", Kind: dialect.KindInt64, Identity: true})
	r.Register(Mapping{Field: testName, Table: "things", Column: "Name", Kind: dialect.KindText})
	r.Register(Mapping{Field: testStamp, Table: "things", Column: "Timestamp", Kind: dialect.KindTime})
	r.Register(Mapping{Field: otherName, Table: "others", Column: "Name", Alias: "OtherLabel"})
	r.Override("sqlserver", testStamp, "StampTime")
	return r
}

func TestResolve(t *testing.T) {
	c := testRegistry().Collection(dialect.Postgres{})

	m, err := c.Resolve(testName)
	require.NoError(t, err)
	assert.Equal(t, "things", m.Table)
	assert.Equal(t, "Name", m.Column)
	assert.Equal(t, "TestName", m.Alias)
	assert.Equal(t, "TestName", m.Parameter)
}

func TestResolveUnresolved(t *testing.T) {
	c := testRegistry().Collection(dialect.SQLite{})

	_, err := c.Resolve(missingFlag)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedField))

	var ufe *UnresolvedFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, missingFlag, ufe.Field)
	assert.Equal(t, "sqlite", ufe.Dialect)
	assert.Contains(t, err.Error(), `"Missing"`)

	assert.Panics(t, func() { c.MustResolve(missingFlag) })
}

func TestBackendOverride(t *testing.T) {
	r := testRegistry()

	pg, err := r.Collection(dialect.Postgres{}).Resolve(testStamp)
	require.NoError(t, err)
	assert.Equal(t, "Timestamp", pg.Column)

	ms, err := r.Collection(dialect.SQLServer{}).Resolve(testStamp)
	require.NoError(t, err)
	assert.Equal(t, "StampTime", ms.Column)

	col, err := r.Collection(dialect.SQLServer{}).Column(testStamp)
	require.NoError(t, err)
	assert.Equal(t, "[StampTime]", col)
}

func TestResolveByColumn(t *testing.T) {
	c := testRegistry().Collection(dialect.MySQL{})

	tests := []struct {
		raw   string
		want  Field
		found bool
	}{
		{raw: "ID", want: testID, found: true},
		{raw: "id", want: testID, found: true},
		{raw: "`Name`", want: testName, found: true},
		{raw: "others.Name", want: otherName, found: true},
		{raw: `"others"."Name"`, want: otherName, found: true},
		{raw: "[things].[Timestamp]", want: testStamp, found: true},
		{raw: "Nope", found: false},
		{raw: "others.ID", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m, ok := c.ResolveByColumn(tt.raw)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, m.Field)
			}
		})
	}
}

func TestProjectionPreservesOrder(t *testing.T) {
	c := testRegistry().Collection(dialect.Postgres{})

	got, err := c.Projection(testName, testID, otherName)
	require.NoError(t, err)
	assert.Equal(t, `"Name" AS "TestName", "ID" AS "TestId", "Name" AS "OtherLabel"`, got)

	_, err = c.Projection(testName, missingFlag)
	assert.ErrorIs(t, err, ErrUnresolvedField)
}

func TestParameterName(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{d: dialect.Postgres{}, want: "$1"},
		{d: dialect.MySQL{}, want: "?"},
		{d: dialect.SQLite{}, want: "@TestName"},
		{d: dialect.SQLServer{}, want: "@TestName"},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			got, err := r.Collection(tt.d).ParameterName(testName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	r := testRegistry()
	assert.Panics(t, func() {
		r.Register(Mapping{Field: testID, Table: "x", Column: "y"})
	})
	assert.Panics(t, func() {
		r.Override("postgres", missingFlag, "z")
	})
}

func TestCollectionIsSnapshot(t *testing.T) {
	r := testRegistry()
	c := r.Collection(dialect.SQLite{})
	r.Register(Mapping{Field: missingFlag, Table: "things", Column: "Flag"})

	_, err := c.Resolve(missingFlag)
	assert.ErrorIs(t, err, ErrUnresolvedField)
	assert.Len(t, r.Fields(), 5)
	assert.Len(t, c.Fields(), 4)
}
