package migrate

import (
	"context"
	"time"

	"github.com/satishbabariya/posdata/query/dialect"
	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/fields"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

const (
	historyID        fields.Field = "SchemaHistoryId"
	historyVersion   fields.Field = "SchemaVersion"
	historyAppliedAt fields.Field = "SchemaAppliedAt"
	historyChecksum  fields.Field = "SchemaChecksum"
	historyExecTime  fields.Field = "SchemaExecutionTime"
)

// historyFields maps the schema history table. It lives in its own registry
// so applications never see it among their entities.
var historyFields = fields.NewRegistry().
	Register(fields.Mapping{Field: historyID, Table: "_posdata_schema", Column: "id", Kind: dialect.KindInt64, Identity: true}).
	Register(fields.Mapping{Field: historyVersion, Table: "_posdata_schema", Column: "version", Kind: dialect.KindText, Unique: true}).
	Register(fields.Mapping{Field: historyAppliedAt, Table: "_posdata_schema", Column: "applied_at", Kind: dialect.KindTime}).
	Register(fields.Mapping{Field: historyChecksum, Table: "_posdata_schema", Column: "checksum", Kind: dialect.KindText}).
	Register(fields.Mapping{Field: historyExecTime, Table: "_posdata_schema", Column: "execution_time", Kind: dialect.KindInt64})

// Record is one applied schema version.
type Record struct {
	ID            int64
	Version       string
	AppliedAt     time.Time
	Checksum      string
	ExecutionTime int64 // milliseconds
}

func (r Record) FieldValues() []fields.Value {
	return []fields.Value{
		fields.V(historyID, r.ID),
		fields.V(historyVersion, r.Version),
		fields.V(historyAppliedAt, r.AppliedAt),
		fields.V(historyChecksum, r.Checksum),
		fields.V(historyExecTime, r.ExecutionTime),
	}
}

func (m *Migrator) ensureHistory(ctx context.Context) error {
	statements, err := CreateTables(m.history)
	if err != nil {
		return err
	}
	conn := m.client.ConnWith(ctx, m.history)
	for _, stmt := range statements {
		if _, err := conn.ExecuteNonQuery(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) record(ctx context.Context, r Record) error {
	stmt, err := sqlgen.Insert(sqlgen.NewHelper(m.history).AddObject(r), historyID)
	if err != nil {
		return err
	}
	_, err = m.client.ConnWith(ctx, m.history).ExecuteNonQuery(ctx, stmt)
	return err
}

func (m *Migrator) records(ctx context.Context) ([]Record, error) {
	stmt, cols, err := sqlgen.NewSelect(m.history, historyID, historyVersion, historyAppliedAt, historyChecksum, historyExecTime).
		OrderBy(historyID, false).
		Build()
	if err != nil {
		return nil, err
	}
	res := executor.NewResult(m.client.ConnWith(ctx, m.history), stmt, cols, func(row *executor.Row) (Record, error) {
		var r Record
		var err error
		if r.ID, err = row.Int64(historyID); err != nil {
			return r, err
		}
		if r.Version, err = row.String(historyVersion); err != nil {
			return r, err
		}
		if r.AppliedAt, err = row.Time(historyAppliedAt); err != nil {
			return r, err
		}
		if r.Checksum, err = row.String(historyChecksum); err != nil {
			return r, err
		}
		r.ExecutionTime, err = row.Int64(historyExecTime)
		return r, err
	})
	return res.Collect(ctx)
}
