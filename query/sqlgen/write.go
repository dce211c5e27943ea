package sqlgen

import (
	"fmt"

	"github.com/satishbabariya/posdata/query/fields"
)

// Insert renders INSERT INTO from the staged values of h. It returns a nil
// statement when nothing remains after the exclusions; callers treat that
// as a no-op.
func Insert(h *Helper, exclude ...fields.Field) (*Statement, error) {
	if h.Len() == 0 {
		return nil, nil
	}
	d := h.Fields().Dialect()
	stmt := NewStatement(d)
	body, err := h.ColumnsAndValues(stmt, exclude...)
	if err != nil || body == "" {
		return nil, err
	}
	table, err := h.Table(exclude...)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	return prepend(stmt, "INSERT INTO "+d.Quote(table)+" "+body), nil
}

// Update renders UPDATE ... SET from the staged values of h, restricted by
// where. A nil statement means there is nothing to set.
func Update(h *Helper, where *WhereClause, exclude ...fields.Field) (*Statement, error) {
	if where.IsEmpty() {
		return nil, fmt.Errorf("update: refusing to update without a WHERE clause")
	}
	if h.Len() == 0 {
		return nil, nil
	}
	d := h.Fields().Dialect()
	stmt := NewStatement(d)
	set, err := h.SetClause(stmt, exclude...)
	if err != nil || set == "" {
		return nil, err
	}
	table, err := h.Table(exclude...)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	stmt = prepend(stmt, "UPDATE "+d.Quote(table)+" SET "+set)
	if err := writeWhere(stmt, h.Fields(), where); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Delete renders DELETE FROM the table of f restricted by where.
func Delete(c *fields.Collection, f fields.Field, where *WhereClause) (*Statement, error) {
	if where.IsEmpty() {
		return nil, fmt.Errorf("delete: refusing to delete without a WHERE clause")
	}
	table, err := c.Table(f)
	if err != nil {
		return nil, err
	}
	stmt := NewStatement(c.Dialect())
	stmt.Write("DELETE FROM ", table)
	if err := writeWhere(stmt, c, where); err != nil {
		return nil, err
	}
	return stmt, nil
}

// DeleteIn renders one DELETE ... WHERE f IN (...) per batch of ids, keeping
// every statement under the dialect's parameter limit. No ids, no statements.
func DeleteIn[T any](c *fields.Collection, f fields.Field, ids []T) ([]*Statement, error) {
	var out []*Statement
	for _, batch := range Batches(ids, c.Dialect().MaxParams()) {
		stmt, err := Delete(c, f, Where(In(f, batch)))
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

// Batches splits items into consecutive chunks of at most size elements.
func Batches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// prepend returns a statement whose text is head followed by whatever was
// already written to stmt, keeping its bound parameters.
func prepend(stmt *Statement, head string) *Statement {
	out := NewStatement(stmt.dialect)
	out.params, out.names = stmt.params, stmt.names
	out.Write(head, stmt.SQL())
	return out
}

// Shift renders UPDATE ... SET f = f + delta restricted by where, for
// renumbering ordered columns in place.
func Shift(c *fields.Collection, f fields.Field, delta int64, where *WhereClause) (*Statement, error) {
	if where.IsEmpty() {
		return nil, fmt.Errorf("shift: refusing to update without a WHERE clause")
	}
	m, err := c.Resolve(f)
	if err != nil {
		return nil, err
	}
	d := c.Dialect()
	col := d.Quote(m.Column)
	stmt := NewStatement(d)
	stmt.Write("UPDATE ", d.Quote(m.Table), " SET ", col, " = ", col, " + ", stmt.Bind(m.Parameter+"Delta", delta))
	if err := writeWhere(stmt, c, where); err != nil {
		return nil, err
	}
	return stmt, nil
}
