package provider

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/posdata/migrate"
	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/runtime/client"
)

func openProvider(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	c, err := client.Open("sqlite", filepath.Join(t.TempDir(), "pos.db"), Registry(), client.WithMaxOpenConns(1))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	m, err := migrate.New(c, Registry(), "1.0.0")
	require.NoError(t, err)
	_, err = m.Apply(context.Background())
	require.NoError(t, err)
	return New(c, opts...)
}

// collect takes a read's return values and drains the result under t.
func collect[T any](res *executor.Result[T], err error) func(t *testing.T) []T {
	return func(t *testing.T) []T {
		t.Helper()
		require.NoError(t, err)
		items, err := res.Collect(context.Background())
		require.NoError(t, err)
		return items
	}
}

func seedRules(t *testing.T, p *Provider, names ...string) []*PriceRule {
	t.Helper()
	var rules []*PriceRule
	for _, name := range names {
		r := &PriceRule{Name: name, Formula: "x", Enabled: true}
		require.NoError(t, p.AddUpdatePriceRule(context.Background(), r))
		rules = append(rules, r)
	}
	return rules
}

func ruleOrder(t *testing.T, p *Provider) []string {
	t.Helper()
	rules := collect(p.GetAllPriceRules(context.Background()))(t)
	var names []string
	for i, r := range rules {
		require.Equal(t, int64(i+1), r.Priority, "rule %s", r.Name)
		names = append(names, r.Name)
	}
	return names
}

func TestPriceRuleRoundTrip(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	rule := &PriceRule{Name: "Members", Formula: "round(x * 0.95, 2)", Enabled: true}
	require.NoError(t, p.AddUpdatePriceRule(ctx, rule))
	assert.NotZero(t, rule.ID)
	assert.Equal(t, int64(1), rule.Priority)

	rules := collect(p.GetAllPriceRules(ctx))(t)
	require.Len(t, rules, 1)
	assert.Equal(t, rule, rules[0])
}

func TestSpringSaleInsertAndDelete(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()
	seedRules(t, p, "a", "b", "c", "d", "e")

	sale := &PriceRule{Name: "Spring Sale", Formula: "x*0.9", Enabled: true, Priority: 3}
	require.NoError(t, p.AddUpdatePriceRule(ctx, sale))
	assert.NotZero(t, sale.ID)
	assert.Equal(t, []string{"a", "b", "Spring Sale", "c", "d", "e"}, ruleOrder(t, p))

	res, err := p.GetAllPriceRules(ctx)
	require.NoError(t, err)
	n, err := res.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	require.NoError(t, p.DeletePriceRule(ctx, sale.ID))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ruleOrder(t, p))
}

func TestPriceRulePriorityMoves(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()
	rules := seedRules(t, p, "a", "b", "c", "d")

	a := rules[0]
	a.Priority = 3
	require.NoError(t, p.AddUpdatePriceRule(ctx, a))
	assert.Equal(t, []string{"b", "c", "a", "d"}, ruleOrder(t, p))

	d := rules[3]
	d.Priority = 1
	require.NoError(t, p.AddUpdatePriceRule(ctx, d))
	assert.Equal(t, []string{"d", "b", "c", "a"}, ruleOrder(t, p))

	b := rules[1]
	b.Priority = 99
	require.NoError(t, p.AddUpdatePriceRule(ctx, b))
	assert.Equal(t, []string{"d", "c", "a", "b"}, ruleOrder(t, p))
	assert.Equal(t, int64(4), b.Priority)

	extra := &PriceRule{Name: "z", Formula: "x", Priority: -2}
	require.NoError(t, p.AddUpdatePriceRule(ctx, extra))
	assert.Equal(t, int64(5), extra.Priority)
}

func TestPriceRuleValidation(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	err := p.AddUpdatePriceRule(ctx, &PriceRule{Formula: "x"})
	assert.ErrorIs(t, err, ErrInvalid)

	err = p.AddUpdatePriceRule(ctx, &PriceRule{Name: "broken", Formula: "x *"})
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Empty(t, ruleOrder(t, p))
}

func TestPriceRuleConflicts(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()
	rules := seedRules(t, p, "a", "b")

	err := p.AddUpdatePriceRule(ctx, &PriceRule{Name: "a", Formula: "x"})
	assert.True(t, IsConflict(err), "duplicate name: %v", err)

	renamed := *rules[1]
	renamed.Name = "a"
	err = p.AddUpdatePriceRule(ctx, &renamed)
	assert.True(t, IsConflict(err), "rename onto existing name: %v", err)

	require.NoError(t, p.DeletePriceRule(ctx, rules[0].ID))
	err = p.AddUpdatePriceRule(ctx, rules[0])
	assert.True(t, IsConflict(err), "update of deleted rule: %v", err)

	err = p.DeletePriceRule(ctx, rules[0].ID)
	assert.True(t, IsConflict(err), "second delete: %v", err)

	assert.Equal(t, []string{"b"}, ruleOrder(t, p))
}

func TestPriceRuleBrokenPrioritiesRollBack(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()
	seedRules(t, p, "a", "b")

	_, err := p.Client().DB().Exec(`INSERT INTO "pricerules" ("Name", "Formula", "Enabled", "Priority") VALUES ('rogue', 'x', 1, 9)`)
	require.NoError(t, err)

	err = p.AddUpdatePriceRule(ctx, &PriceRule{Name: "c", Formula: "x"})
	assert.True(t, IsIntegrity(err), "gap in priorities: %v", err)

	rules := collect(p.GetAllPriceRules(ctx))(t)
	require.Len(t, rules, 3)
	assert.Equal(t, "rogue", rules[2].Name)
}

func TestCanDeletePriceRule(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()
	rules := seedRules(t, p, "a")

	perm, err := p.CanDeletePriceRule(ctx, rules[0].ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteAllowed, perm)

	perm, err = p.CanDeletePriceRule(ctx, rules[0].ID+100)
	require.NoError(t, err)
	assert.Equal(t, DeleteNotFound, perm)
}

func TestApplyPriceRules(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	for _, r := range []*PriceRule{
		{Name: "discount", Formula: "x * 0.9", Enabled: true},
		{Name: "disabled", Formula: "x * 100"},
		{Name: "coupon", Formula: "max(x - 5, 0)", Enabled: true},
	} {
		require.NoError(t, p.AddUpdatePriceRule(ctx, r))
	}

	price, steps, err := p.ApplyPriceRules(ctx, 100)
	require.NoError(t, err)
	assert.InDelta(t, 85.0, price, 1e-9)
	require.Len(t, steps, 2)
	assert.Equal(t, "discount", steps[0].Rule.Name)
	assert.InDelta(t, 90.0, steps[0].After, 1e-9)
	assert.Equal(t, "coupon", steps[1].Rule.Name)
	assert.InDelta(t, 90.0, steps[1].Before, 1e-9)
}

func TestScopeRollsBackAcrossEntities(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	scopeCtx, scope, err := p.Client().Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, p.AddUpdatePriceRule(scopeCtx, &PriceRule{Name: "a", Formula: "x"}))
	require.NoError(t, p.AddInternalLogEntry(scopeCtx, &LogEntry{Message: "rule a added"}))
	require.NoError(t, scope.Close())

	assert.Empty(t, collect(p.GetAllPriceRules(ctx))(t))
	assert.Empty(t, collect(p.GetAllInternalLogEntries(ctx, "", 0))(t))
}

func TestScopeCommitsAcrossEntities(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	err := p.Client().InScope(ctx, func(ctx context.Context) error {
		if err := p.AddUpdatePriceRule(ctx, &PriceRule{Name: "a", Formula: "x"}); err != nil {
			return err
		}
		return p.AddInternalLogEntry(ctx, &LogEntry{Message: "rule a added"})
	})
	require.NoError(t, err)

	assert.Len(t, collect(p.GetAllPriceRules(ctx))(t), 1)
	assert.Len(t, collect(p.GetAllInternalLogEntries(ctx, "", 0))(t), 1)
}

func TestInternalLogSearch(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	for i := range 30 {
		msg := "sync ok"
		if i%2 == 0 {
			msg = "printer timeout"
		}
		require.NoError(t, p.AddInternalLogEntry(ctx, &LogEntry{Message: msg}))
	}

	entries := collect(p.GetAllInternalLogEntries(ctx, "timeout", 10))(t)
	require.Len(t, entries, 10)
	for i, e := range entries {
		assert.Contains(t, e.Message, "timeout")
		assert.False(t, e.Timestamp.IsZero())
		if i > 0 {
			assert.Greater(t, e.ID, entries[i-1].ID)
		}
	}
	// the newest ten of fifteen matches
	all := collect(p.GetAllInternalLogEntries(ctx, "timeout", 0))(t)
	require.Len(t, all, 15)
	for i, e := range entries {
		assert.Equal(t, all[i+5].ID, e.ID)
	}

	res, err := p.GetAllInternalLogEntries(ctx, "", 0)
	require.NoError(t, err)
	n, err := res.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30), n)
}

func TestInternalLogRoundTrip(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	entry := &LogEntry{Message: "drawer opened", Timestamp: stamp}
	require.NoError(t, p.AddInternalLogEntry(ctx, entry))

	entries := collect(p.GetAllInternalLogEntries(ctx, "drawer", 0))(t)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, entry.Message, entries[0].Message)
	assert.True(t, stamp.Equal(entries[0].Timestamp), "got %v", entries[0].Timestamp)

	err := p.AddInternalLogEntry(ctx, &LogEntry{})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestClearInternalLog(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := range 5 {
		require.NoError(t, p.AddInternalLogEntry(ctx, &LogEntry{
			Message:   "daily close",
			Timestamp: base.AddDate(0, 0, day),
		}))
	}

	n, err := p.ClearInternalLog(ctx, base.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Len(t, collect(p.GetAllInternalLogEntries(ctx, "", 0))(t), 2)
}

func TestDeleteWithoutIDsTouchesNothing(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	var events atomic.Int64
	p.Client().Use(func(ctx context.Context, e *client.QueryEvent, next func() error) error {
		events.Add(1)
		return next()
	})

	n, err := p.DeleteInternalLogEntries(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = p.DeleteReceiptsByID(ctx, []int64{})
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Zero(t, events.Load())
}

func TestDeleteInternalLogEntries(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	var ids []int64
	for range 4 {
		e := &LogEntry{Message: "x"}
		require.NoError(t, p.AddInternalLogEntry(ctx, e))
		ids = append(ids, e.ID)
	}

	n, err := p.DeleteInternalLogEntries(ctx, ids[:3])
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	left := collect(p.GetAllInternalLogEntries(ctx, "", 0))(t)
	require.Len(t, left, 1)
	assert.Equal(t, ids[3], left[0].ID)
}

func TestMeasurementUnitSearchEscapesWildcards(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	for _, name := range []string{"50%", "500", "5_0", "box"} {
		require.NoError(t, p.AddUpdateMeasurementUnit(ctx, &MeasurementUnit{Name: name}))
	}

	units := collect(p.GetAllMeasurementUnits(ctx, "0%", 0))(t)
	require.Len(t, units, 1)
	assert.Equal(t, "50%", units[0].Name)

	units = collect(p.GetAllMeasurementUnits(ctx, "_", 0))(t)
	require.Len(t, units, 1)
	assert.Equal(t, "5_0", units[0].Name)

	units = collect(p.GetAllMeasurementUnits(ctx, "", 2))(t)
	require.Len(t, units, 2)
	assert.Equal(t, "50%", units[0].Name)
	assert.Equal(t, "500", units[1].Name)
}

func TestMeasurementUnitInUse(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	kg := &MeasurementUnit{Name: "kg"}
	require.NoError(t, p.AddUpdateMeasurementUnit(ctx, kg))
	pcs := &MeasurementUnit{Name: "pcs"}
	require.NoError(t, p.AddUpdateMeasurementUnit(ctx, pcs))

	line := &Receipt{Number: "R-1", Date: time.Now().UTC(), ItemName: "apples", Quantity: 1.5, ItemMeasUnit: "kg", Total: 4.2}
	require.NoError(t, p.AddUpdateReceipt(ctx, line))

	perm, err := p.CanDeleteMeasurementUnit(ctx, kg.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteInUse, perm)
	assert.False(t, perm.Allowed())

	err = p.DeleteMeasurementUnit(ctx, kg.ID)
	assert.ErrorIs(t, err, ErrInvalid)

	perm, err = p.CanDeleteMeasurementUnit(ctx, pcs.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteAllowed, perm)
	require.NoError(t, p.DeleteMeasurementUnit(ctx, pcs.ID))

	perm, err = p.CanDeleteMeasurementUnit(ctx, pcs.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteNotFound, perm)
	assert.True(t, IsConflict(p.DeleteMeasurementUnit(ctx, pcs.ID)))
}

func TestMeasurementUnitRenameCascades(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	kg := &MeasurementUnit{Name: "kg"}
	require.NoError(t, p.AddUpdateMeasurementUnit(ctx, kg))
	require.NoError(t, p.AddUpdateMeasurementUnit(ctx, &MeasurementUnit{Name: "l"}))
	require.NoError(t, p.AddUpdateReceipt(ctx, &Receipt{Number: "R-1", ItemName: "flour", Quantity: 2, ItemMeasUnit: "kg"}))

	kg.Name = "l"
	assert.True(t, IsConflict(p.AddUpdateMeasurementUnit(ctx, kg)))

	kg.Name = "kilogram"
	require.NoError(t, p.AddUpdateMeasurementUnit(ctx, kg))

	lines := collect(p.GetAllReceipts(ctx, "flour", 0))(t)
	require.Len(t, lines, 1)
	assert.Equal(t, "kilogram", lines[0].ItemMeasUnit)
}

func TestReceipts(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	day := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	lines := []*Receipt{
		{Number: "R-100", Date: day, ItemName: "bread", Quantity: 1, ItemMeasUnit: "pcs", Total: 2.5},
		{Number: "R-100", Date: day, ItemName: "milk", Quantity: 2, ItemMeasUnit: "l", Total: 3},
		{Number: "R-101", Date: day.Add(time.Hour), ItemName: "bread", Quantity: 3, ItemMeasUnit: "pcs", Total: 7.5},
	}
	for _, l := range lines {
		require.NoError(t, p.AddUpdateReceipt(ctx, l))
	}

	err := p.AddUpdateReceipt(ctx, &Receipt{Number: "R-100", ItemName: "milk"})
	assert.True(t, IsConflict(err), "duplicate line: %v", err)
	assert.ErrorIs(t, p.AddUpdateReceipt(ctx, &Receipt{ItemName: "milk"}), ErrInvalid)

	got := collect(p.GetAllReceipts(ctx, "", 0))(t)
	require.Len(t, got, 3)
	assert.Equal(t, "R-101", got[0].Number)
	assert.True(t, day.Add(time.Hour).Equal(got[0].Date))

	// number and item name are searched together
	assert.Len(t, collect(p.GetAllReceipts(ctx, "R-100", 0))(t), 2)
	assert.Len(t, collect(p.GetAllReceipts(ctx, "bread", 0))(t), 2)

	res, err := p.GetAllReceipts(ctx, "bread", 0)
	require.NoError(t, err)
	n, err := p.DeleteReceipts(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left := collect(p.GetAllReceipts(ctx, "", 0))(t)
	require.Len(t, left, 1)
	assert.Equal(t, "milk", left[0].ItemName)

	require.NoError(t, p.DeleteReceipt(ctx, left[0].ID))
	assert.True(t, IsConflict(p.DeleteReceipt(ctx, left[0].ID)))
}

func TestMaxResults(t *testing.T) {
	p := openProvider(t, WithMaxResults(2))
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, p.AddInternalLogEntry(ctx, &LogEntry{Message: strings.Repeat("x", i+1)}))
	}
	entries := collect(p.GetAllInternalLogEntries(ctx, "", 0))(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "xxxxx", entries[1].Message)

	assert.Len(t, collect(p.GetAllInternalLogEntries(ctx, "", 4))(t), 4)
}

func TestTimesCompareAsInstantsAcrossZones(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()
	east := time.FixedZone("UTC+5", 5*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)

	// 10:00+05:00 is 05:00Z, before the cutoff despite the later wall clock.
	early := &LogEntry{Message: "early", Timestamp: time.Date(2026, 2, 1, 10, 0, 0, 0, east)}
	late := &LogEntry{Message: "late", Timestamp: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, p.AddInternalLogEntry(ctx, early))
	require.NoError(t, p.AddInternalLogEntry(ctx, late))

	n, err := p.ClearInternalLog(ctx, time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	left := collect(p.GetAllInternalLogEntries(ctx, "", 0))(t)
	require.Len(t, left, 1)
	assert.Equal(t, "late", left[0].Message)

	// 20:00-05:00 is 01:00Z on the next day.
	require.NoError(t, p.AddUpdateReceipt(ctx, &Receipt{Number: "A", ItemName: "tea", Date: time.Date(2026, 2, 1, 20, 0, 0, 0, west)}))
	require.NoError(t, p.AddUpdateReceipt(ctx, &Receipt{Number: "B", ItemName: "tea", Date: time.Date(2026, 2, 1, 23, 0, 0, 0, time.UTC)}))

	receipts := collect(p.GetAllReceipts(ctx, "", 0))(t)
	require.Len(t, receipts, 2)
	assert.Equal(t, "A", receipts[0].Number)
	assert.Equal(t, "B", receipts[1].Number)
	assert.True(t, time.Date(2026, 2, 2, 1, 0, 0, 0, time.UTC).Equal(receipts[0].Date), "got %v", receipts[0].Date)
}

func TestDuplicateIdentityIsIntegrityError(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	for range 2 {
		_, err := p.Client().DB().Exec(`INSERT INTO "receipts" ("Number", "Date", "ItemName", "Quantity", "ItemMeasUnit", "Total") VALUES ('R-1', '2026-01-01 00:00:00+00:00', 'x', 1, 'pcs', 1)`)
		require.NoError(t, err)
	}

	err := p.AddUpdateReceipt(ctx, &Receipt{Number: "R-1", ItemName: "x", Quantity: 1})
	assert.True(t, IsIntegrity(err), "got %v", err)
	assert.ErrorIs(t, err, ErrIntegrity)

	var n int64
	require.NoError(t, p.Client().DB().QueryRow(`SELECT COUNT(*) FROM "receipts"`).Scan(&n))
	assert.Equal(t, int64(2), n)
}

func TestWriteAffectingNoRowsFails(t *testing.T) {
	p := openProvider(t)
	ctx := context.Background()

	r := &Receipt{Number: "R-7", ItemName: "milk", Quantity: 1, ItemMeasUnit: "l", Total: 1.2}
	require.NoError(t, p.AddUpdateReceipt(ctx, r))

	db := p.Client().DB()
	_, err := db.Exec(`CREATE TRIGGER receipts_frozen BEFORE UPDATE ON "receipts" BEGIN SELECT RAISE(IGNORE); END`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TRIGGER internallog_frozen BEFORE INSERT ON "internallog" BEGIN SELECT RAISE(IGNORE); END`)
	require.NoError(t, err)

	r.Quantity = 3
	assert.ErrorIs(t, p.AddUpdateReceipt(ctx, r), ErrOperationFailed)
	got := collect(p.GetAllReceipts(ctx, "", 0))(t)
	require.Len(t, got, 1)
	assert.Equal(t, float64(1), got[0].Quantity)

	entry := &LogEntry{Message: "dropped"}
	assert.ErrorIs(t, p.AddInternalLogEntry(ctx, entry), ErrOperationFailed)
	assert.Zero(t, entry.ID)
	assert.Empty(t, collect(p.GetAllInternalLogEntries(ctx, "", 0))(t))
}
