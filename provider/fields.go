package provider

import (
	"sync"

	"github.com/satishbabariya/posdata/query/dialect"
	"github.com/satishbabariya/posdata/query/fields"
)

// Logical fields of every entity.
const (
	PriceRuleID       fields.Field = "PriceRuleId"
	PriceRuleName     fields.Field = "PriceRuleName"
	PriceRuleFormula  fields.Field = "PriceRuleFormula"
	PriceRuleEnabled  fields.Field = "PriceRuleEnabled"
	PriceRulePriority fields.Field = "PriceRulePriority"

	LogEntryID        fields.Field = "LogEntryId"
	LogEntryMessage   fields.Field = "LogEntryMessage"
	LogEntryTimestamp fields.Field = "LogEntryTimestamp"

	MeasUnitID   fields.Field = "MeasUnitId"
	MeasUnitName fields.Field = "MeasUnitName"

	ReceiptID     fields.Field = "ReceiptId"
	ReceiptNumber fields.Field = "ReceiptNumber"
	ReceiptDate   fields.Field = "ReceiptDate"
	ItemName      fields.Field = "ItemName"
	ItemQuantity  fields.Field = "ItemQuantity"
	ItemMeasUnit  fields.Field = "ItemMeasUnit"
	ReceiptTotal  fields.Field = "ReceiptTotal"
)

// Registry returns the field registry of all entities. It is built once.
var Registry = sync.OnceValue(func() *fields.Registry {
	r := fields.NewRegistry()

	r.Register(fields.Mapping{Field: PriceRuleID, Table: "pricerules", Column: "ID", Kind: dialect.KindInt64, Identity: true})
	r.Register(fields.Mapping{Field: PriceRuleName, Table: "pricerules", Column: "Name", Kind: dialect.KindText, Unique: true})
	r.Register(fields.Mapping{Field: PriceRuleFormula, Table: "pricerules", Column: "Formula", Kind: dialect.KindText})
	r.Register(fields.Mapping{Field: PriceRuleEnabled, Table: "pricerules", Column: "Enabled", Kind: dialect.KindBool})
	r.Register(fields.Mapping{Field: PriceRulePriority, Table: "pricerules", Column: "Priority", Kind: dialect.KindInt64})

	r.Register(fields.Mapping{Field: LogEntryID, Table: "internallog", Column: "ID", Kind: dialect.KindInt64, Identity: true})
	r.Register(fields.Mapping{Field: LogEntryMessage, Table: "internallog", Column: "Message", Kind: dialect.KindText})
	r.Register(fields.Mapping{Field: LogEntryTimestamp, Table: "internallog", Column: "Timestamp", Kind: dialect.KindTime})
	// TIMESTAMP is a reserved rowversion type on SQL Server.
	r.Override("sqlserver", LogEntryTimestamp, "LogTime")

	r.Register(fields.Mapping{Field: MeasUnitID, Table: "measunits", Column: "ID", Kind: dialect.KindInt64, Identity: true})
	r.Register(fields.Mapping{Field: MeasUnitName, Table: "measunits", Column: "Name", Kind: dialect.KindText, Unique: true})

	r.Register(fields.Mapping{Field: ReceiptID, Table: "receipts", Column: "ID", Kind: dialect.KindInt64, Identity: true})
	r.Register(fields.Mapping{Field: ReceiptNumber, Table: "receipts", Column: "Number", Kind: dialect.KindText})
	r.Register(fields.Mapping{Field: ReceiptDate, Table: "receipts", Column: "Date", Kind: dialect.KindTime})
	r.Register(fields.Mapping{Field: ItemName, Table: "receipts", Column: "ItemName", Kind: dialect.KindText})
	r.Register(fields.Mapping{Field: ItemQuantity, Table: "receipts", Column: "Quantity", Kind: dialect.KindFloat64})
	r.Register(fields.Mapping{Field: ItemMeasUnit, Table: "receipts", Column: "ItemMeasUnit", Kind: dialect.KindText})
	r.Register(fields.Mapping{Field: ReceiptTotal, Table: "receipts", Column: "Total", Kind: dialect.KindFloat64})

	return r
})
