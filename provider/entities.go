package provider

import (
	"time"

	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/fields"
)

// PriceRule adjusts prices with a formula. Enabled rules apply in ascending
// priority; priorities are always exactly 1..N.
type PriceRule struct {
	ID       int64
	Name     string
	Formula  string
	Enabled  bool
	Priority int64
}

func (r *PriceRule) FieldValues() []fields.Value {
	return []fields.Value{
		fields.V(PriceRuleID, r.ID),
		fields.V(PriceRuleName, r.Name),
		fields.V(PriceRuleFormula, r.Formula),
		fields.V(PriceRuleEnabled, r.Enabled),
		fields.V(PriceRulePriority, r.Priority),
	}
}

func (r *PriceRule) Identity() int64      { return r.ID }
func (r *PriceRule) SetIdentity(id int64) { r.ID = id }

// LogEntry is a line of the internal log.
type LogEntry struct {
	ID        int64
	Message   string
	Timestamp time.Time
}

func (e *LogEntry) FieldValues() []fields.Value {
	return []fields.Value{
		fields.V(LogEntryID, e.ID),
		fields.V(LogEntryMessage, e.Message),
		fields.V(LogEntryTimestamp, e.Timestamp),
	}
}

func (e *LogEntry) Identity() int64      { return e.ID }
func (e *LogEntry) SetIdentity(id int64) { e.ID = id }

// MeasurementUnit is a unit items are sold in, identified by its name.
type MeasurementUnit struct {
	ID   int64
	Name string
}

func (u *MeasurementUnit) FieldValues() []fields.Value {
	return []fields.Value{
		fields.V(MeasUnitID, u.ID),
		fields.V(MeasUnitName, u.Name),
	}
}

func (u *MeasurementUnit) Identity() int64      { return u.ID }
func (u *MeasurementUnit) SetIdentity(id int64) { u.ID = id }

// Receipt is one item line of a sales receipt. Lines of the same receipt
// share a number; a number and item name identify a line.
type Receipt struct {
	ID           int64
	Number       string
	Date         time.Time
	ItemName     string
	Quantity     float64
	ItemMeasUnit string
	Total        float64
}

func (r *Receipt) FieldValues() []fields.Value {
	return []fields.Value{
		fields.V(ReceiptID, r.ID),
		fields.V(ReceiptNumber, r.Number),
		fields.V(ReceiptDate, r.Date),
		fields.V(ItemName, r.ItemName),
		fields.V(ItemQuantity, r.Quantity),
		fields.V(ItemMeasUnit, r.ItemMeasUnit),
		fields.V(ReceiptTotal, r.Total),
	}
}

func (r *Receipt) Identity() int64      { return r.ID }
func (r *Receipt) SetIdentity(id int64) { r.ID = id }

// rowReader keeps the first conversion error so projectors read straight
// through.
type rowReader struct {
	row *executor.Row
	err error
}

func (r *rowReader) int64(f fields.Field) int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.row.Int64(f)
	r.err = err
	return v
}

func (r *rowReader) string(f fields.Field) string {
	if r.err != nil {
		return ""
	}
	v, err := r.row.String(f)
	r.err = err
	return v
}

func (r *rowReader) float64(f fields.Field) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.row.Float64(f)
	r.err = err
	return v
}

func (r *rowReader) bool(f fields.Field) bool {
	if r.err != nil {
		return false
	}
	v, err := r.row.Bool(f)
	r.err = err
	return v
}

func (r *rowReader) time(f fields.Field) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, err := r.row.Time(f)
	r.err = err
	return v
}

func projectPriceRule(row *executor.Row) (*PriceRule, error) {
	r := rowReader{row: row}
	rule := &PriceRule{
		ID:       r.int64(PriceRuleID),
		Name:     r.string(PriceRuleName),
		Formula:  r.string(PriceRuleFormula),
		Enabled:  r.bool(PriceRuleEnabled),
		Priority: r.int64(PriceRulePriority),
	}
	return rule, r.err
}

func projectLogEntry(row *executor.Row) (*LogEntry, error) {
	r := rowReader{row: row}
	entry := &LogEntry{
		ID:        r.int64(LogEntryID),
		Message:   r.string(LogEntryMessage),
		Timestamp: r.time(LogEntryTimestamp),
	}
	return entry, r.err
}

func projectMeasurementUnit(row *executor.Row) (*MeasurementUnit, error) {
	r := rowReader{row: row}
	unit := &MeasurementUnit{
		ID:   r.int64(MeasUnitID),
		Name: r.string(MeasUnitName),
	}
	return unit, r.err
}

func projectReceipt(row *executor.Row) (*Receipt, error) {
	r := rowReader{row: row}
	receipt := &Receipt{
		ID:           r.int64(ReceiptID),
		Number:       r.string(ReceiptNumber),
		Date:         r.time(ReceiptDate),
		ItemName:     r.string(ItemName),
		Quantity:     r.float64(ItemQuantity),
		ItemMeasUnit: r.string(ItemMeasUnit),
		Total:        r.float64(ReceiptTotal),
	}
	return receipt, r.err
}
