package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

// GetAllMeasurementUnits returns units whose name contains search, by name.
func (p *Provider) GetAllMeasurementUnits(ctx context.Context, search string, max int) (*executor.Result[*MeasurementUnit], error) {
	var where *sqlgen.WhereClause
	if search != "" {
		where = sqlgen.Where(sqlgen.Contains(MeasUnitName, search))
	}
	return query(ctx, p, measUnits, func(s *sqlgen.Select) {
		s.Where(where).OrderBy(MeasUnitName, false).Limit(p.limit(max))
	})
}

// AddUpdateMeasurementUnit inserts or updates unit. Renaming a unit also
// renames it on every receipt line that uses it.
func (p *Provider) AddUpdateMeasurementUnit(ctx context.Context, unit *MeasurementUnit) error {
	unit.Name = strings.TrimSpace(unit.Name)
	if unit.Name == "" {
		op := "insert"
		if unit.ID != 0 {
			op = "update"
		}
		return opError(measUnits.name, op, KindInvalid, "name is required")
	}
	if unit.ID == 0 {
		return addOrUpdate(ctx, p, measUnits, unit)
	}

	return p.client.InScope(ctx, func(ctx context.Context) error {
		conn := p.client.Conn(ctx)
		old, err := p.unitName(ctx, unit.ID, "update")
		if err != nil {
			return err
		}
		if err := addOrUpdate(ctx, p, measUnits, unit); err != nil {
			return err
		}
		if old == unit.Name {
			return nil
		}
		h := sqlgen.NewHelper(conn.Fields()).AddValue(ItemMeasUnit, unit.Name)
		stmt, err := sqlgen.Update(h, sqlgen.Where(sqlgen.Eq(ItemMeasUnit, old)))
		if err != nil {
			return err
		}
		if _, err := conn.ExecuteNonQuery(ctx, stmt); err != nil {
			return fmt.Errorf("%s rename: %w", receipts.name, err)
		}
		return nil
	})
}

// CanDeleteMeasurementUnit reports whether the unit exists and no receipt
// line uses it.
func (p *Provider) CanDeleteMeasurementUnit(ctx context.Context, id int64) (DeletePermission, error) {
	conn := p.client.Conn(ctx)
	return p.unitPermission(ctx, conn, id)
}

// DeleteMeasurementUnit deletes an unused unit.
func (p *Provider) DeleteMeasurementUnit(ctx context.Context, id int64) error {
	return p.client.InScope(ctx, func(ctx context.Context) error {
		conn := p.client.Conn(ctx)
		perm, err := p.unitPermission(ctx, conn, id)
		if err != nil {
			return err
		}
		switch perm {
		case DeleteNotFound:
			return opError(measUnits.name, "delete", KindConflict, "row %d no longer exists", id)
		case DeleteInUse:
			return opError(measUnits.name, "delete", KindInvalid, "unit %d is used by receipts", id)
		}
		return deleteByID(ctx, conn, measUnits, id)
	})
}

func (p *Provider) unitPermission(ctx context.Context, conn *executor.Conn, id int64) (DeletePermission, error) {
	name, err := p.unitName(ctx, id, "delete")
	if IsConflict(err) {
		return DeleteNotFound, nil
	}
	if err != nil {
		return DeleteNotFound, err
	}
	used, err := count(ctx, conn, receipts, sqlgen.Where(sqlgen.Eq(ItemMeasUnit, name)))
	if err != nil {
		return DeleteNotFound, err
	}
	if used > 0 {
		return DeleteInUse, nil
	}
	return DeleteAllowed, nil
}

func (p *Provider) unitName(ctx context.Context, id int64, op string) (string, error) {
	res, err := query(ctx, p, measUnits, func(s *sqlgen.Select) {
		s.Where(sqlgen.Where(sqlgen.Eq(MeasUnitID, id)))
	})
	if err != nil {
		return "", err
	}
	units, err := res.Collect(ctx)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", measUnits.name, op, err)
	}
	switch len(units) {
	case 0:
		return "", opError(measUnits.name, op, KindConflict, "row %d no longer exists", id)
	case 1:
		return units[0].Name, nil
	default:
		return "", opError(measUnits.name, op, KindIntegrity, "%d rows share id %d", len(units), id)
	}
}
