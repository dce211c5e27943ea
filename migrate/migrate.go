// Package migrate creates the tables described by a field registry and
// records which schema version a database carries.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/satishbabariya/posdata/internal/debug"
	"github.com/satishbabariya/posdata/query/fields"
	"github.com/satishbabariya/posdata/runtime/client"
)

// ErrNewerSchema is returned when the database was created by a newer
// release than the one applying the schema.
var ErrNewerSchema = errors.New("database schema is newer than this release")

// Status describes the schema state of a database.
type Status struct {
	Target  *version.Version
	Current *version.Version // nil when no version was recorded
	Applied []Record
	Tables  []string
}

// Pending reports whether Apply would change the database.
func (s *Status) Pending() bool {
	return s.Current == nil || s.Current.LessThan(s.Target)
}

// Migrator applies the tables of a registry.
type Migrator struct {
	client  *client.Client
	reg     *fields.Registry
	target  *version.Version
	history *fields.Collection
}

// New creates a migrator bringing the database to schemaVersion.
func New(c *client.Client, reg *fields.Registry, schemaVersion string) (*Migrator, error) {
	target, err := version.NewVersion(schemaVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version %q: %w", schemaVersion, err)
	}
	return &Migrator{
		client:  c,
		reg:     reg,
		target:  target,
		history: historyFields.Collection(c.Dialect()),
	}, nil
}

// Apply creates the history table and, unless the recorded version is
// already the target, every table of the registry; then records the target
// version. A database at a newer version is left untouched.
func (m *Migrator) Apply(ctx context.Context) (*Status, error) {
	start := time.Now()
	statements, err := CreateTables(m.reg.Collection(m.client.Dialect()))
	if err != nil {
		return nil, err
	}

	err = m.client.InScope(ctx, func(ctx context.Context) error {
		if err := m.ensureHistory(ctx); err != nil {
			return err
		}
		current, _, err := m.current(ctx)
		if err != nil {
			return err
		}
		if current != nil {
			if current.GreaterThan(m.target) {
				return fmt.Errorf("%w: database %s, release %s", ErrNewerSchema, current, m.target)
			}
			if current.Equal(m.target) {
				return nil
			}
		}

		conn := m.client.Conn(ctx)
		for _, stmt := range statements {
			if _, err := conn.ExecuteNonQuery(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
		return m.record(ctx, Record{
			Version:       m.target.Original(),
			AppliedAt:     time.Now().UTC().Truncate(time.Second),
			Checksum:      Checksum(statements),
			ExecutionTime: time.Since(start).Milliseconds(),
		})
	})
	if err != nil {
		return nil, err
	}
	debug.Info("schema applied", "provider", m.client.Dialect().Name(), "version", m.target.Original())
	return m.Status(ctx)
}

// Status reports the recorded and target versions. It creates the empty
// history table if needed but no entity tables. A database without history
// reports no current version.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	st := &Status{Target: m.target, Tables: Tables(m.reg.Collection(m.client.Dialect()))}
	if err := m.ensureHistory(ctx); err != nil {
		return nil, err
	}
	current, records, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	st.Current = current
	st.Applied = records
	return st, nil
}

// current returns the highest recorded version. Versions are compared
// semantically, so "1.10.0" is newer than "1.9.0".
func (m *Migrator) current(ctx context.Context) (*version.Version, []Record, error) {
	records, err := m.records(ctx)
	if err != nil {
		return nil, nil, err
	}
	var current *version.Version
	for _, r := range records {
		v, err := version.NewVersion(r.Version)
		if err != nil {
			return nil, nil, fmt.Errorf("recorded schema version %q: %w", r.Version, err)
		}
		if current == nil || v.GreaterThan(current) {
			current = v
		}
	}
	return current, records, nil
}
