package executor

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/satishbabariya/posdata/query/fields"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

// Row gives typed access to the current row of a cursor by logical field.
// Field positions are resolved once per result, not per row.
type Row struct {
	fields    *fields.Collection
	cols      sqlgen.SelectColumnInfos
	positions map[fields.Field]int
	values    []any
	scan      func() error
}

func newRow(c *fields.Collection, cols sqlgen.SelectColumnInfos, rows *Cursor) (*Row, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if cols == nil {
		for _, name := range names {
			cols = append(cols, sqlgen.SelectColumnInfo{ColumnName: name, Alias: name})
		}
	}
	if len(cols) != len(names) {
		return nil, fmt.Errorf("result has %d columns, projection describes %d", len(names), len(cols))
	}

	r := &Row{
		fields:    c,
		cols:      cols,
		positions: make(map[fields.Field]int),
		values:    make([]any, len(names)),
	}
	ptrs := make([]any, len(names))
	for i := range r.values {
		ptrs[i] = &r.values[i]
	}
	r.scan = func() error { return rows.Scan(ptrs...) }
	return r, nil
}

// Has reports whether the projection carries f.
func (r *Row) Has(f fields.Field) bool {
	_, ok := r.position(f)
	return ok
}

// Value returns the raw driver value of f. Text arrives as string.
func (r *Row) Value(f fields.Field) (any, error) {
	i, ok := r.position(f)
	if !ok {
		return nil, fmt.Errorf("field %s is not part of this projection", f)
	}
	v := r.values[i]
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

// Int64 returns f as an int64. NULL reads as 0.
func (r *Row) Int64(f fields.Field) (int64, error) {
	v, err := r.Value(f)
	if err != nil {
		return 0, err
	}
	return cast.ToInt64E(v)
}

// String returns f as a string. NULL reads as "".
func (r *Row) String(f fields.Field) (string, error) {
	v, err := r.Value(f)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(v)
}

// Float64 returns f as a float64. NULL reads as 0.
func (r *Row) Float64(f fields.Field) (float64, error) {
	v, err := r.Value(f)
	if err != nil {
		return 0, err
	}
	return cast.ToFloat64E(v)
}

// Bool returns f as a bool. NULL reads as false.
func (r *Row) Bool(f fields.Field) (bool, error) {
	v, err := r.Value(f)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(v)
}

// Time returns f as a time.Time. NULL reads as the zero time.
func (r *Row) Time(f fields.Field) (time.Time, error) {
	v, err := r.Value(f)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	return cast.ToTimeE(v)
}

// NullString returns f as a sql.NullString.
func (r *Row) NullString(f fields.Field) (sql.NullString, error) {
	v, err := r.Value(f)
	if err != nil || v == nil {
		return sql.NullString{}, err
	}
	s, err := cast.ToStringE(v)
	return sql.NullString{String: s, Valid: err == nil}, err
}

func (r *Row) position(f fields.Field) (int, bool) {
	if i, ok := r.positions[f]; ok {
		return i, i >= 0
	}
	i, ok := r.cols.ByField(r.fields, f)
	if !ok {
		i = -1
	}
	r.positions[f] = i
	return i, ok
}
