package fields

import (
	"fmt"
	"sync"

	"github.com/satishbabariya/posdata/query/dialect"
)

type override struct {
	table  string
	column string
}

// Registry holds the logical-to-physical mappings of every known field.
// Register fields at init time; after that a Registry is read-only and safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	order     []Field
	base      map[Field]Mapping
	overrides map[string]map[Field]override
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		base:      make(map[Field]Mapping),
		overrides: make(map[string]map[Field]override),
	}
}

// Register adds a mapping. Alias defaults to the field name and Parameter to
// the alias. Registering a field twice panics.
func (r *Registry) Register(m Mapping) *Registry {
	if m.Field == "" || m.Table == "" || m.Column == "" {
		panic(fmt.Sprintf("fields: incomplete mapping %+v", m))
	}
	if m.Alias == "" {
		m.Alias = string(m.Field)
	}
	if m.Parameter == "" {
		m.Parameter = m.Alias
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.base[m.Field]; ok {
		panic(fmt.Sprintf("fields: field %q registered twice", m.Field))
	}
	r.base[m.Field] = m
	r.order = append(r.order, m.Field)
	return r
}

// Override sets the column name of a field on one backend.
func (r *Registry) Override(dialectName string, f Field, column string) *Registry {
	r.setOverride(dialectName, f, func(o *override) { o.column = column })
	return r
}

// OverrideTable sets the table name of a field on one backend.
func (r *Registry) OverrideTable(dialectName string, f Field, table string) *Registry {
	r.setOverride(dialectName, f, func(o *override) { o.table = table })
	return r
}

func (r *Registry) setOverride(dialectName string, f Field, set func(*override)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.base[f]; !ok {
		panic(fmt.Sprintf("fields: override for unregistered field %q", f))
	}
	byField, ok := r.overrides[dialectName]
	if !ok {
		byField = make(map[Field]override)
		r.overrides[dialectName] = byField
	}
	o := byField[f]
	set(&o)
	byField[f] = o
}

// Fields returns every registered field in registration order.
func (r *Registry) Fields() []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Field, len(r.order))
	copy(out, r.order)
	return out
}

// Collection binds the registry to a dialect. The collection is a snapshot:
// later registrations are not visible through it.
func (r *Registry) Collection(d dialect.Dialect) *Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Collection{
		dialect:  d,
		order:    make([]Field, len(r.order)),
		byField:  make(map[Field]Mapping, len(r.base)),
		byColumn: make(map[string][]Field),
	}
	copy(c.order, r.order)

	overrides := r.overrides[d.Name()]
	for _, f := range r.order {
		m := r.base[f]
		if o, ok := overrides[f]; ok {
			if o.table != "" {
				m.Table = o.table
			}
			if o.column != "" {
				m.Column = o.column
			}
		}
		c.byField[f] = m
		c.indexColumn(m)
	}
	return c
}
