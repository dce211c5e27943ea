package sqlgen

import (
	"strings"

	"github.com/satishbabariya/posdata/query/fields"
)

// SelectColumnInfo describes one projected column of a SELECT.
type SelectColumnInfo struct {
	// ColumnName is the physical column, qualified with its table.
	ColumnName string
	// SourceField is the logical field the column carries; empty for
	// computed columns.
	SourceField fields.Field
	// Alias is the name the column has in the result set.
	Alias string
}

// SelectColumnInfos is the ordered projection of a SELECT. It is small, so
// lookups scan linearly.
type SelectColumnInfos []SelectColumnInfo

// ByColumn returns the first column whose physical name or alias equals raw
// (case-insensitive).
func (s SelectColumnInfos) ByColumn(raw string) (SelectColumnInfo, bool) {
	return s.Info(s.IndexOfColumn(raw))
}

// IndexOfColumn is like ByColumn but returns a position, or -1.
func (s SelectColumnInfos) IndexOfColumn(raw string) int {
	_, column := splitQualified(raw)
	for i, info := range s {
		if strings.EqualFold(info.Alias, raw) || strings.EqualFold(info.ColumnName, raw) {
			return i
		}
		if _, col := splitQualified(info.ColumnName); strings.EqualFold(col, column) {
			return i
		}
	}
	return -1
}

// ByField returns the position of the first column carrying f. An entry
// without a source field is matched by translating its column name.
func (s SelectColumnInfos) ByField(c *fields.Collection, f fields.Field) (int, bool) {
	for i, info := range s {
		if info.SourceField == f {
			return i, true
		}
		if info.SourceField != "" {
			continue
		}
		if m, ok := c.ResolveByColumn(info.ColumnName); ok && m.Field == f {
			return i, true
		}
	}
	return -1, false
}

// Info returns the entry at i.
func (s SelectColumnInfos) Info(i int) (SelectColumnInfo, bool) {
	if i < 0 || i >= len(s) {
		return SelectColumnInfo{}, false
	}
	return s[i], true
}

// Aliases returns the result-set names in projection order.
func (s SelectColumnInfos) Aliases() []string {
	out := make([]string, len(s))
	for i, info := range s {
		out[i] = info.Alias
	}
	return out
}

func splitQualified(name string) (table, column string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
