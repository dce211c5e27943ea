// Package fields maps logical domain fields to physical tables and columns.
//
// A Registry holds one Mapping per logical Field plus optional per-backend
// overrides. A Collection is the registry bound to one dialect; it is what
// statement builders consult to translate fields to columns and back.
package fields

import (
	"errors"
	"fmt"

	"github.com/satishbabariya/posdata/query/dialect"
)

// ErrUnresolvedField is matched by every UnresolvedFieldError.
var ErrUnresolvedField = errors.New("unresolved field")

// Field is a backend-independent identifier of a domain attribute.
type Field string

func (f Field) String() string { return string(f) }

// Value is a staged (field, value) pair.
type Value struct {
	Field Field
	Value any
}

// V builds a Value.
func V(f Field, v any) Value { return Value{Field: f, Value: v} }

// Mapping is the physical representation of a Field on one backend.
type Mapping struct {
	Field     Field
	Table     string
	Column    string
	Alias     string
	Parameter string
	Kind      dialect.Kind
	// Identity marks a generated primary key column.
	Identity bool
	// Unique marks a column carrying a unique constraint.
	Unique bool
	// Nullable marks a column that may hold NULL.
	Nullable bool
}

// UnresolvedFieldError reports a field with no mapping. It is a programming
// error: the registry is static and every field used by a query must be in it.
type UnresolvedFieldError struct {
	Field   Field
	Dialect string
}

func (e *UnresolvedFieldError) Error() string {
	return fmt.Sprintf("%s: no mapping for field %q on %s", ErrUnresolvedField, e.Field, e.Dialect)
}

func (e *UnresolvedFieldError) Is(target error) bool {
	return target == ErrUnresolvedField
}
