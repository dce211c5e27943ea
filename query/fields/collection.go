package fields

import (
	"strings"

	"github.com/satishbabariya/posdata/query/dialect"
)

// Collection translates fields to columns and back for one dialect.
// All methods are deterministic and side-effect free.
type Collection struct {
	dialect  dialect.Dialect
	order    []Field
	byField  map[Field]Mapping
	byColumn map[string][]Field
}

// Dialect returns the backend this collection is bound to.
func (c *Collection) Dialect() dialect.Dialect { return c.dialect }

// Fields returns every field in registration order.
func (c *Collection) Fields() []Field {
	out := make([]Field, len(c.order))
	copy(out, c.order)
	return out
}

// Resolve returns the mapping of f.
func (c *Collection) Resolve(f Field) (Mapping, error) {
	m, ok := c.byField[f]
	if !ok {
		return Mapping{}, &UnresolvedFieldError{Field: f, Dialect: c.dialect.Name()}
	}
	return m, nil
}

// MustResolve is like Resolve but panics on an unresolved field.
func (c *Collection) MustResolve(f Field) Mapping {
	m, err := c.Resolve(f)
	if err != nil {
		panic(err)
	}
	return m
}

// ResolveByColumn finds the mapping of a raw column name. It accepts bare,
// table-qualified and quoted names and compares case-insensitively. When the
// name is unqualified and several tables share it, the first registered wins.
func (c *Collection) ResolveByColumn(raw string) (Mapping, bool) {
	table, column := splitColumn(raw)
	candidates := c.byColumn[strings.ToLower(column)]
	for _, f := range candidates {
		m := c.byField[f]
		if table == "" || strings.EqualFold(m.Table, table) {
			return m, true
		}
	}
	return Mapping{}, false
}

// Column returns the quoted column name of f.
func (c *Collection) Column(f Field) (string, error) {
	m, err := c.Resolve(f)
	if err != nil {
		return "", err
	}
	return c.dialect.Quote(m.Column), nil
}

// Table returns the quoted table name of f.
func (c *Collection) Table(f Field) (string, error) {
	m, err := c.Resolve(f)
	if err != nil {
		return "", err
	}
	return c.dialect.Quote(m.Table), nil
}

// Alias returns the projection alias of f.
func (c *Collection) Alias(f Field) (string, error) {
	m, err := c.Resolve(f)
	if err != nil {
		return "", err
	}
	return m.Alias, nil
}

// ParameterName returns the parameter name of f as the dialect writes it,
// e.g. "@PriceRuleName" on SQL Server. Positional dialects return their
// generic marker for the first position.
func (c *Collection) ParameterName(f Field) (string, error) {
	m, err := c.Resolve(f)
	if err != nil {
		return "", err
	}
	return c.dialect.Placeholder(1, m.Parameter), nil
}

// Projection renders `"column" AS "alias"` fragments for fs, comma joined,
// in the given order.
func (c *Collection) Projection(fs ...Field) (string, error) {
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		m, err := c.Resolve(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, c.dialect.Quote(m.Column)+" AS "+c.dialect.Quote(m.Alias))
	}
	return strings.Join(parts, ", "), nil
}

func (c *Collection) indexColumn(m Mapping) {
	key := strings.ToLower(m.Column)
	c.byColumn[key] = append(c.byColumn[key], m.Field)
}

// splitColumn strips quoting and splits an optional table qualifier.
func splitColumn(raw string) (table, column string) {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, "."); i >= 0 {
		table, column = unquote(raw[:i]), unquote(raw[i+1:])
		return table, column
	}
	return "", unquote(raw)
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"',
			s[0] == '`' && s[len(s)-1] == '`',
			s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return s
}
