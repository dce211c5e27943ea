package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/posdata/query/fields"
)

// OrderBy represents an ORDER BY term.
type OrderBy struct {
	Field fields.Field
	Desc  bool
}

// Select builds a single-table SELECT over logical fields.
type Select struct {
	c       *fields.Collection
	fields  []fields.Field
	where   *WhereClause
	orderBy []OrderBy
	limit   int
	reorder []OrderBy
}

// NewSelect starts a SELECT projecting fs, in that order. The table is the
// one the first field maps to.
func NewSelect(c *fields.Collection, fs ...fields.Field) *Select {
	return &Select{c: c, fields: fs}
}

// Fields appends fs to the projection.
func (s *Select) Fields(fs ...fields.Field) *Select {
	s.fields = append(s.fields, fs...)
	return s
}

// Where sets the WHERE clause.
func (s *Select) Where(w *WhereClause) *Select {
	s.where = w
	return s
}

// OrderBy appends an ORDER BY term.
func (s *Select) OrderBy(f fields.Field, desc bool) *Select {
	s.orderBy = append(s.orderBy, OrderBy{Field: f, Desc: desc})
	return s
}

// Limit keeps at most n rows; n <= 0 means no limit.
func (s *Select) Limit(n int) *Select {
	s.limit = n
	return s
}

// Reorder sorts the limited rows again in an outer query, e.g. to take the
// newest n rows and return them oldest first.
func (s *Select) Reorder(f fields.Field, desc bool) *Select {
	s.reorder = append(s.reorder, OrderBy{Field: f, Desc: desc})
	return s
}

// Build renders the statement and describes its projection.
func (s *Select) Build() (*Statement, SelectColumnInfos, error) {
	if len(s.fields) == 0 {
		return nil, nil, fmt.Errorf("select: no fields")
	}
	d := s.c.Dialect()

	table := ""
	infos := make(SelectColumnInfos, 0, len(s.fields))
	for _, f := range s.fields {
		m, err := s.c.Resolve(f)
		if err != nil {
			return nil, nil, err
		}
		if table == "" {
			table = m.Table
		} else if m.Table != table {
			return nil, nil, fmt.Errorf("select: field %s belongs to %s, not %s", f, m.Table, table)
		}
		infos = append(infos, SelectColumnInfo{
			ColumnName:  m.Table + "." + m.Column,
			SourceField: f,
			Alias:       m.Alias,
		})
	}

	projection, err := s.c.Projection(s.fields...)
	if err != nil {
		return nil, nil, err
	}

	stmt := NewStatement(d)
	stmt.Write("SELECT ", projection, " FROM ", d.Quote(table))
	if err := writeWhere(stmt, s.c, s.where); err != nil {
		return nil, nil, err
	}
	// A derived table without a row limit may not be ordered on SQL Server,
	// and the outer ordering wins anyway.
	if s.limit > 0 || len(s.reorder) == 0 {
		if err := s.writeOrder(stmt, s.orderBy, false); err != nil {
			return nil, nil, err
		}
	}

	if s.limit > 0 {
		limited := NewStatement(d)
		limited.params, limited.names = stmt.params, stmt.names
		limited.Write(d.Limit(stmt.SQL(), s.limit))
		stmt = limited
	}

	if len(s.reorder) > 0 {
		outer := NewStatement(d)
		outer.params, outer.names = stmt.params, stmt.names
		outer.Write("SELECT * FROM (", stmt.SQL(), ") ", d.Quote("t"))
		if err := s.writeOrder(outer, s.reorder, true); err != nil {
			return nil, nil, err
		}
		stmt = outer
	}

	return stmt, infos, nil
}

// BuildCount renders SELECT COUNT(*) over the same table and WHERE clause,
// ignoring ordering and limits.
func (s *Select) BuildCount() (*Statement, error) {
	if len(s.fields) == 0 {
		return nil, fmt.Errorf("select: no fields")
	}
	table, err := s.c.Table(s.fields[0])
	if err != nil {
		return nil, err
	}
	stmt := NewStatement(s.c.Dialect())
	stmt.Write("SELECT COUNT(*) FROM ", table)
	if err := writeWhere(stmt, s.c, s.where); err != nil {
		return nil, err
	}
	return stmt, nil
}

// writeOrder appends ORDER BY; the outer query of Reorder only sees aliases.
func (s *Select) writeOrder(stmt *Statement, terms []OrderBy, byAlias bool) error {
	if len(terms) == 0 {
		return nil
	}
	d := s.c.Dialect()
	parts := make([]string, len(terms))
	for i, ob := range terms {
		m, err := s.c.Resolve(ob.Field)
		if err != nil {
			return err
		}
		name := m.Column
		if byAlias {
			name = m.Alias
		}
		direction := "ASC"
		if ob.Desc {
			direction = "DESC"
		}
		parts[i] = d.Quote(name) + " " + direction
	}
	stmt.Write(" ORDER BY ", strings.Join(parts, ", "))
	return nil
}
