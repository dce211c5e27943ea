// Package sqlgen builds SQL statements from logical fields.
//
// Only identifiers that come from the field registry are interpolated into
// statement text. Every value is bound through Statement.Bind, which appends
// a DbParam and returns the dialect's placeholder for it, so the text and the
// parameter list are produced by the same call in the same order.
package sqlgen

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/satishbabariya/posdata/query/dialect"
)

// DbParam is a named bind value.
type DbParam struct {
	Name  string
	Value any
}

// Statement is SQL text plus its ordered parameter list.
type Statement struct {
	dialect dialect.Dialect
	sb      strings.Builder
	params  []DbParam
	names   map[string]int
}

// NewStatement starts an empty statement for d.
func NewStatement(d dialect.Dialect) *Statement {
	return &Statement{
		dialect: d,
		names:   make(map[string]int),
	}
}

// Dialect returns the dialect the statement is written for.
func (s *Statement) Dialect() dialect.Dialect { return s.dialect }

// Write appends raw SQL text.
func (s *Statement) Write(parts ...string) *Statement {
	for _, p := range parts {
		s.sb.WriteString(p)
	}
	return s
}

// Writef appends formatted SQL text. Never format values into it; use Bind.
func (s *Statement) Writef(format string, args ...any) *Statement {
	fmt.Fprintf(&s.sb, format, args...)
	return s
}

// Bind appends a parameter and returns its placeholder. A name already used
// in this statement gets the first free numeric suffix. Times are bound in
// UTC so every backend compares and orders instants, not local wall clocks.
func (s *Statement) Bind(name string, value any) string {
	name = sanitizeParamName(name)
	if _, ok := s.names[name]; ok {
		base := name
		for n := s.names[base] + 1; ; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
			if _, taken := s.names[name]; !taken {
				s.names[base] = n
				break
			}
		}
	}
	s.names[name] = 1
	s.params = append(s.params, DbParam{Name: name, Value: normalize(value)})
	return s.dialect.Placeholder(len(s.params), name)
}

func normalize(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC()
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC()
	}
	return value
}

// SQL returns the statement text.
func (s *Statement) SQL() string { return s.sb.String() }

// String implements fmt.Stringer.
func (s *Statement) String() string { return s.SQL() }

// Params returns the bound parameters in placeholder order.
func (s *Statement) Params() []DbParam {
	out := make([]DbParam, len(s.params))
	copy(out, s.params)
	return out
}

// Args returns the driver arguments in placeholder order.
func (s *Statement) Args() []any {
	args := make([]any, len(s.params))
	for i, p := range s.params {
		args[i] = s.dialect.Arg(p.Name, p.Value)
	}
	return args
}

// Empty reports whether no text has been written.
func (s *Statement) Empty() bool { return s.sb.Len() == 0 }

// sanitizeParamName keeps parameter names valid identifiers for every driver.
func sanitizeParamName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_', unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('p')
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "p"
	}
	return b.String()
}
