// Package provider exposes create, read, update and delete operations for
// the back-office entities: price rules, the internal log, measurement
// units and receipts.
//
// Reads return lazy results that run when iterated. Writes run inside a
// transaction scope; pass a context from client.Begin to group several
// writes into one all-or-nothing unit.
package provider

import (
	"context"
	"fmt"
	"slices"

	"github.com/satishbabariya/posdata/internal/debug"
	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/fields"
	"github.com/satishbabariya/posdata/query/sqlgen"
	"github.com/satishbabariya/posdata/runtime/client"
)

// Provider performs entity operations through a client opened with
// Registry().
type Provider struct {
	client     *client.Client
	maxResults int
}

// Option configures a Provider.
type Option func(*Provider)

// WithMaxResults caps reads that do not ask for a limit. Zero means no cap.
func WithMaxResults(n int) Option {
	return func(p *Provider) { p.maxResults = n }
}

// New creates a provider on c.
func New(c *client.Client, opts ...Option) *Provider {
	p := &Provider{client: c}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the client the provider runs on.
func (p *Provider) Client() *client.Client { return p.client }

// limit picks the effective row limit of a read.
func (p *Provider) limit(n int) int {
	if n > 0 {
		return n
	}
	return p.maxResults
}

// record is a persisted entity.
type record interface {
	sqlgen.FieldSource
	Identity() int64
	SetIdentity(id int64)
}

// entity describes how a record type is stored.
type entity[T record] struct {
	name    string
	id      fields.Field
	unique  []fields.Field // logical identity besides the id; empty when none
	columns []fields.Field
	project executor.Projector[T]
}

var (
	priceRules = entity[*PriceRule]{
		name:    "pricerule",
		id:      PriceRuleID,
		unique:  []fields.Field{PriceRuleName},
		columns: []fields.Field{PriceRuleID, PriceRuleName, PriceRuleFormula, PriceRuleEnabled, PriceRulePriority},
		project: projectPriceRule,
	}
	logEntries = entity[*LogEntry]{
		name:    "logentry",
		id:      LogEntryID,
		columns: []fields.Field{LogEntryID, LogEntryMessage, LogEntryTimestamp},
		project: projectLogEntry,
	}
	measUnits = entity[*MeasurementUnit]{
		name:    "measunit",
		id:      MeasUnitID,
		unique:  []fields.Field{MeasUnitName},
		columns: []fields.Field{MeasUnitID, MeasUnitName},
		project: projectMeasurementUnit,
	}
	receipts = entity[*Receipt]{
		name:    "receipt",
		id:      ReceiptID,
		unique:  []fields.Field{ReceiptNumber, ItemName},
		columns: []fields.Field{ReceiptID, ReceiptNumber, ReceiptDate, ItemName, ItemQuantity, ItemMeasUnit, ReceiptTotal},
		project: projectReceipt,
	}
)

// query builds a lazy read over the entity's columns.
func query[T record](ctx context.Context, p *Provider, e entity[T], build func(*sqlgen.Select)) (*executor.Result[T], error) {
	conn := p.client.Conn(ctx)
	sel := sqlgen.NewSelect(conn.Fields(), e.columns...)
	build(sel)
	stmt, cols, err := sel.Build()
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", e.name, err)
	}
	return executor.NewResult(conn, stmt, cols, e.project), nil
}

// count returns the number of rows of the entity matching where.
func count[T record](ctx context.Context, conn *executor.Conn, e entity[T], where *sqlgen.WhereClause) (int64, error) {
	stmt, err := sqlgen.NewSelect(conn.Fields(), e.id).Where(where).BuildCount()
	if err != nil {
		return 0, err
	}
	return executor.ExecuteScalar[int64](ctx, conn, stmt)
}

// uniqueWhere matches rows sharing the logical identity of rec.
func uniqueWhere[T record](e entity[T], rec T) *sqlgen.WhereClause {
	where := sqlgen.Where()
	for _, v := range rec.FieldValues() {
		if slices.Contains(e.unique, v.Field) {
			where.And(sqlgen.Eq(v.Field, v.Value))
		}
	}
	return where
}

// addOrUpdate inserts rec when its identity is zero and updates it
// otherwise, deciding by counting existing rows inside one scope:
//
//   - insert: any row with the same logical identity is a conflict;
//   - update: no row with the id is a conflict (it was deleted meanwhile),
//     more than one is an integrity violation, and the update must affect
//     exactly one row. Renaming onto another row's identity is a conflict.
//
// A generated identity is written back into rec.
func addOrUpdate[T record](ctx context.Context, p *Provider, e entity[T], rec T) error {
	return p.client.InScope(ctx, func(ctx context.Context) error {
		conn := p.client.Conn(ctx)
		h := sqlgen.NewHelper(conn.Fields()).AddObject(rec)

		if rec.Identity() == 0 {
			return insert(ctx, conn, e, rec, h)
		}

		id := rec.Identity()
		n, err := count(ctx, conn, e, sqlgen.Where(sqlgen.Eq(e.id, id)))
		if err != nil {
			return fmt.Errorf("%s update: %w", e.name, err)
		}
		switch {
		case n == 0:
			return opError(e.name, "update", KindConflict, "row %d no longer exists", id)
		case n > 1:
			return opError(e.name, "update", KindIntegrity, "%d rows share id %d", n, id)
		}

		if len(e.unique) > 0 {
			dup, err := count(ctx, conn, e, uniqueWhere(e, rec).And(sqlgen.Neq(e.id, id)))
			if err != nil {
				return fmt.Errorf("%s update: %w", e.name, err)
			}
			if dup > 0 {
				return opError(e.name, "update", KindConflict, "another row already has the same %v", e.unique)
			}
		}

		stmt, err := sqlgen.Update(h, sqlgen.Where(sqlgen.Eq(e.id, id)), e.id)
		if err != nil {
			return fmt.Errorf("%s update: %w", e.name, err)
		}
		if stmt == nil {
			return nil
		}
		affected, err := conn.ExecuteNonQuery(ctx, stmt)
		if err != nil {
			return fmt.Errorf("%s update: %w", e.name, err)
		}
		if affected != 1 {
			return opError(e.name, "update", KindOperationFailed, "expected 1 affected row, got %d", affected)
		}
		debug.Debug("entity updated", "entity", e.name, "id", id)
		return nil
	})
}

func insert[T record](ctx context.Context, conn *executor.Conn, e entity[T], rec T, h *sqlgen.Helper) error {
	if len(e.unique) > 0 {
		n, err := count(ctx, conn, e, uniqueWhere(e, rec))
		if err != nil {
			return fmt.Errorf("%s insert: %w", e.name, err)
		}
		switch {
		case n == 1:
			return opError(e.name, "insert", KindConflict, "a row with the same %v already exists", e.unique)
		case n > 1:
			return opError(e.name, "insert", KindIntegrity, "%d rows share the same %v", n, e.unique)
		}
	}

	stmt, err := sqlgen.Insert(h, e.id)
	if err != nil {
		return fmt.Errorf("%s insert: %w", e.name, err)
	}
	if stmt == nil {
		return nil
	}
	affected, err := conn.ExecuteNonQuery(ctx, stmt)
	if err != nil {
		return fmt.Errorf("%s insert: %w", e.name, err)
	}
	if affected != 1 {
		return opError(e.name, "insert", KindOperationFailed, "expected 1 affected row, got %d", affected)
	}
	id, err := conn.LastInsertedIdentity(ctx)
	if err != nil {
		return fmt.Errorf("%s insert: %w", e.name, err)
	}
	h.SetObjectValue(e.id, id)
	rec.SetIdentity(id)
	debug.Debug("entity inserted", "entity", e.name, "id", id)
	return nil
}

// deleteByID deletes exactly one row inside the caller's scope.
func deleteByID[T record](ctx context.Context, conn *executor.Conn, e entity[T], id int64) error {
	stmt, err := sqlgen.Delete(conn.Fields(), e.id, sqlgen.Where(sqlgen.Eq(e.id, id)))
	if err != nil {
		return fmt.Errorf("%s delete: %w", e.name, err)
	}
	affected, err := conn.ExecuteNonQuery(ctx, stmt)
	if err != nil {
		return fmt.Errorf("%s delete: %w", e.name, err)
	}
	switch {
	case affected == 0:
		return opError(e.name, "delete", KindConflict, "row %d no longer exists", id)
	case affected > 1:
		return opError(e.name, "delete", KindIntegrity, "%d rows share id %d", affected, id)
	}
	debug.Debug("entity deleted", "entity", e.name, "id", id)
	return nil
}

// deleteIDs deletes every row of ids in parameter-limited batches within
// one scope. No ids means no database call at all.
func deleteIDs[T record](ctx context.Context, p *Provider, e entity[T], ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var total int64
	err := p.client.InScope(ctx, func(ctx context.Context) error {
		conn := p.client.Conn(ctx)
		stmts, err := sqlgen.DeleteIn(conn.Fields(), e.id, ids)
		if err != nil {
			return fmt.Errorf("%s delete: %w", e.name, err)
		}
		for _, stmt := range stmts {
			n, err := conn.ExecuteNonQuery(ctx, stmt)
			if err != nil {
				return fmt.Errorf("%s delete: %w", e.name, err)
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	debug.Debug("entities deleted", "entity", e.name, "count", total)
	return total, nil
}

// collectIDs drains a result into its identities.
func collectIDs[T record](ctx context.Context, res *executor.Result[T]) ([]int64, error) {
	var ids []int64
	for rec, err := range res.All(ctx) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, rec.Identity())
	}
	return ids, nil
}
