package sqlgen

import "github.com/satishbabariya/posdata/query/fields"

// Comparison operators understood by buildCondition.
const (
	OpEq        = "="
	OpNeq       = "!="
	OpGt        = ">"
	OpGte       = ">="
	OpLt        = "<"
	OpLte       = "<="
	OpIn        = "IN"
	OpNotIn     = "NOT IN"
	OpContains  = "CONTAINS"
	OpMatches   = "MATCHES"
	OpIsNull    = "IS NULL"
	OpIsNotNull = "IS NOT NULL"
)

// WhereClause represents a WHERE condition (can be nested)
type WhereClause struct {
	Conditions []Condition
	Groups     []*WhereClause // Nested WHERE clauses for AND/OR/NOT
	Operator   string         // "AND" or "OR"
	IsNot      bool           // true for NOT conditions
}

// Condition is a single comparison of a logical field against a value.
type Condition struct {
	Field    fields.Field
	Operator string
	Value    any
	// Also lists further text fields concatenated with Field by OpMatches.
	Also []fields.Field
}

// Where creates an AND clause over conds.
func Where(conds ...Condition) *WhereClause {
	return &WhereClause{Conditions: conds, Operator: "AND"}
}

// AnyOf creates an OR clause over conds.
func AnyOf(conds ...Condition) *WhereClause {
	return &WhereClause{Conditions: conds, Operator: "OR"}
}

// And adds conditions to the clause.
func (w *WhereClause) And(conds ...Condition) *WhereClause {
	w.Conditions = append(w.Conditions, conds...)
	return w
}

// AddGroup adds a nested WHERE clause
func (w *WhereClause) AddGroup(group *WhereClause) *WhereClause {
	w.Groups = append(w.Groups, group)
	return w
}

// Not negates the clause.
func (w *WhereClause) Not() *WhereClause {
	w.IsNot = !w.IsNot
	return w
}

// IsEmpty returns true if the WHERE clause is empty
func (w *WhereClause) IsEmpty() bool {
	return w == nil || (len(w.Conditions) == 0 && len(w.Groups) == 0)
}

func Eq(f fields.Field, v any) Condition  { return Condition{Field: f, Operator: OpEq, Value: v} }
func Neq(f fields.Field, v any) Condition { return Condition{Field: f, Operator: OpNeq, Value: v} }
func Gt(f fields.Field, v any) Condition  { return Condition{Field: f, Operator: OpGt, Value: v} }
func Gte(f fields.Field, v any) Condition { return Condition{Field: f, Operator: OpGte, Value: v} }
func Lt(f fields.Field, v any) Condition  { return Condition{Field: f, Operator: OpLt, Value: v} }
func Lte(f fields.Field, v any) Condition { return Condition{Field: f, Operator: OpLte, Value: v} }

// In matches any of values. An empty list matches nothing.
func In[T any](f fields.Field, values []T) Condition {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Condition{Field: f, Operator: OpIn, Value: vs}
}

// Contains matches a text column containing text as a substring; LIKE
// wildcards in text are matched literally.
func Contains(f fields.Field, text string) Condition {
	return Condition{Field: f, Operator: OpContains, Value: text}
}

// Matches is Contains over the concatenation of several text fields
// separated by a space, e.g. a receipt number and its item name.
func Matches(text string, f fields.Field, more ...fields.Field) Condition {
	return Condition{Field: f, Operator: OpMatches, Value: text, Also: more}
}

func IsNull(f fields.Field) Condition    { return Condition{Field: f, Operator: OpIsNull} }
func IsNotNull(f fields.Field) Condition { return Condition{Field: f, Operator: OpIsNotNull} }
