package sqlgen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/satishbabariya/posdata/query/fields"
)

// FieldSource is implemented by entities that can be written. FieldValues
// returns every persisted field with its current value, in a stable order.
type FieldSource interface {
	FieldValues() []fields.Value
}

// Helper stages (field, value) pairs for one INSERT or UPDATE and renders the
// column/value lists and SET clause from them. A Helper is used for a single
// write and then discarded.
type Helper struct {
	fields *fields.Collection
	staged []fields.Value
	index  map[fields.Field]int
}

// NewHelper creates a helper translating through c.
func NewHelper(c *fields.Collection) *Helper {
	return &Helper{
		fields: c,
		index:  make(map[fields.Field]int),
	}
}

// Fields returns the collection the helper translates through.
func (h *Helper) Fields() *fields.Collection { return h.fields }

// AddObject stages every field value of src.
func (h *Helper) AddObject(src FieldSource) *Helper {
	for _, v := range src.FieldValues() {
		h.AddValue(v.Field, v.Value)
	}
	return h
}

// AddValue stages a single value. Staging a field again replaces its value
// but keeps its original position.
func (h *Helper) AddValue(f fields.Field, value any) *Helper {
	if i, ok := h.index[f]; ok {
		h.staged[i].Value = value
		return h
	}
	h.index[f] = len(h.staged)
	h.staged = append(h.staged, fields.Value{Field: f, Value: value})
	return h
}

// ObjectValue returns the staged value of f.
func (h *Helper) ObjectValue(f fields.Field) (any, bool) {
	i, ok := h.index[f]
	if !ok {
		return nil, false
	}
	return h.staged[i].Value, true
}

// SetObjectValue replaces the staged value of f, staging it if needed.
func (h *Helper) SetObjectValue(f fields.Field, value any) {
	h.AddValue(f, value)
}

// Len returns the number of staged fields.
func (h *Helper) Len() int { return len(h.staged) }

// Params returns the parameters ColumnsAndValues or SetClause would bind for
// the same exclusions, in the same order.
func (h *Helper) Params(exclude ...fields.Field) ([]DbParam, error) {
	var out []DbParam
	err := h.each(exclude, func(m fields.Mapping, v any) {
		out = append(out, DbParam{Name: m.Parameter, Value: v})
	})
	return out, err
}

// Table returns the table shared by every staged field.
func (h *Helper) Table(exclude ...fields.Field) (string, error) {
	var tables []string
	err := h.each(exclude, func(m fields.Mapping, _ any) {
		if !slices.Contains(tables, m.Table) {
			tables = append(tables, m.Table)
		}
	})
	if err != nil {
		return "", err
	}
	switch len(tables) {
	case 0:
		return "", fmt.Errorf("no fields staged")
	case 1:
		return tables[0], nil
	default:
		return "", fmt.Errorf("staged fields span tables %s", strings.Join(tables, ", "))
	}
}

// ColumnsAndValues renders `(c1, c2) VALUES (p1, p2)` and binds the values
// into stmt. It returns "" and binds nothing when no field remains after the
// exclusions.
func (h *Helper) ColumnsAndValues(stmt *Statement, exclude ...fields.Field) (string, error) {
	var cols, placeholders []string
	d := h.fields.Dialect()
	err := h.each(exclude, func(m fields.Mapping, v any) {
		cols = append(cols, d.Quote(m.Column))
		placeholders = append(placeholders, stmt.Bind(m.Parameter, v))
	})
	if err != nil || len(cols) == 0 {
		return "", err
	}
	return "(" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")", nil
}

// SetClause renders `c1 = p1, c2 = p2` and binds the values into stmt. It
// returns "" and binds nothing when no field remains after the exclusions.
func (h *Helper) SetClause(stmt *Statement, exclude ...fields.Field) (string, error) {
	var sets []string
	d := h.fields.Dialect()
	err := h.each(exclude, func(m fields.Mapping, v any) {
		sets = append(sets, d.Quote(m.Column)+" = "+stmt.Bind(m.Parameter, v))
	})
	if err != nil || len(sets) == 0 {
		return "", err
	}
	return strings.Join(sets, ", "), nil
}

// each resolves every staged field not in exclude, in staging order. All
// fields are resolved before fn is called so a failure binds nothing.
func (h *Helper) each(exclude []fields.Field, fn func(m fields.Mapping, v any)) error {
	mappings := make([]fields.Mapping, 0, len(h.staged))
	values := make([]any, 0, len(h.staged))
	for _, sv := range h.staged {
		if slices.Contains(exclude, sv.Field) {
			continue
		}
		m, err := h.fields.Resolve(sv.Field)
		if err != nil {
			return err
		}
		mappings = append(mappings, m)
		values = append(values, sv.Value)
	}
	for i, m := range mappings {
		fn(m, values[i])
	}
	return nil
}
