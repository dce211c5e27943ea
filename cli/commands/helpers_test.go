package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/posdata/provider"
	"github.com/satishbabariya/posdata/query/dialect"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "5,8", "13,"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 8, 13}, ids)

	_, err = parseIDs([]string{"4", "x"})
	assert.Error(t, err)
	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2026-04-01T08:30:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)))

	_, err = parseTime("2026-04-01")
	assert.NoError(t, err)

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "shop.db", sqlitePath("shop.db"))
	assert.Equal(t, "/var/pos/shop.db", sqlitePath("file:/var/pos/shop.db?_busy_timeout=5000"))
}

func TestWriteFieldTable(t *testing.T) {
	var doc strings.Builder
	require.NoError(t, writeFieldTable(&doc, provider.Registry().Collection(dialect.SQLServer{})))

	out := doc.String()
	assert.Contains(t, out, "## sqlserver")
	assert.Contains(t, out, "| LogEntryTimestamp | internallog | LogTime | LogEntryTimestamp | `@LogEntryTimestamp` |")
	assert.Contains(t, out, "| PriceRuleId | pricerules | ID |")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "entry", plural(1, "entry", "entries"))
	assert.Equal(t, "entries", plural(0, "entry", "entries"))
}
