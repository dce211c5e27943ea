package provider

import (
	"context"
	"time"

	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

// GetAllInternalLogEntries returns the newest maxEntries entries whose
// message contains search, oldest first. An empty search matches all and
// maxEntries <= 0 falls back to the provider default.
func (p *Provider) GetAllInternalLogEntries(ctx context.Context, search string, maxEntries int) (*executor.Result[*LogEntry], error) {
	var where *sqlgen.WhereClause
	if search != "" {
		where = sqlgen.Where(sqlgen.Contains(LogEntryMessage, search))
	}
	limit := p.limit(maxEntries)

	res, err := query(ctx, p, logEntries, func(s *sqlgen.Select) {
		s.Where(where)
		if limit > 0 {
			s.OrderBy(LogEntryID, true).Limit(limit).Reorder(LogEntryID, false)
		} else {
			s.OrderBy(LogEntryID, false)
		}
	})
	if err != nil || limit > 0 {
		return res, err
	}
	countStmt, err := sqlgen.NewSelect(p.client.Fields(), LogEntryID).Where(where).BuildCount()
	if err != nil {
		return nil, err
	}
	return res.WithCount(countStmt), nil
}

// AddInternalLogEntry stores entry, stamping it with the current time when
// it has none.
func (p *Provider) AddInternalLogEntry(ctx context.Context, entry *LogEntry) error {
	op := "insert"
	if entry.ID != 0 {
		op = "update"
	}
	if entry.Message == "" {
		return opError(logEntries.name, op, KindInvalid, "message is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC().Truncate(time.Second)
	}
	return addOrUpdate(ctx, p, logEntries, entry)
}

// DeleteInternalLogEntries deletes the entries with the given ids.
func (p *Provider) DeleteInternalLogEntries(ctx context.Context, ids []int64) (int64, error) {
	return deleteIDs(ctx, p, logEntries, ids)
}

// ClearInternalLog deletes every entry older than before.
func (p *Provider) ClearInternalLog(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := p.client.InScope(ctx, func(ctx context.Context) error {
		conn := p.client.Conn(ctx)
		stmt, err := sqlgen.Delete(conn.Fields(), LogEntryID, sqlgen.Where(sqlgen.Lt(LogEntryTimestamp, before)))
		if err != nil {
			return err
		}
		n, err = conn.ExecuteNonQuery(ctx, stmt)
		return err
	})
	return n, err
}
