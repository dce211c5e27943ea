package provider

import (
	"context"
	"strings"

	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

// GetAllReceipts returns receipt lines whose number or item name contains
// search, newest receipt first.
func (p *Provider) GetAllReceipts(ctx context.Context, search string, max int) (*executor.Result[*Receipt], error) {
	var where *sqlgen.WhereClause
	if search != "" {
		where = sqlgen.Where(sqlgen.Matches(search, ReceiptNumber, ItemName))
	}
	limit := p.limit(max)
	res, err := query(ctx, p, receipts, func(s *sqlgen.Select) {
		s.Where(where).OrderBy(ReceiptDate, true).OrderBy(ReceiptID, false).Limit(limit)
	})
	if err != nil || limit > 0 {
		return res, err
	}
	countStmt, err := sqlgen.NewSelect(p.client.Fields(), ReceiptID).Where(where).BuildCount()
	if err != nil {
		return nil, err
	}
	return res.WithCount(countStmt), nil
}

// AddUpdateReceipt inserts or updates a receipt line.
func (p *Provider) AddUpdateReceipt(ctx context.Context, r *Receipt) error {
	op := "insert"
	if r.ID != 0 {
		op = "update"
	}
	r.Number = strings.TrimSpace(r.Number)
	switch {
	case r.Number == "":
		return opError(receipts.name, op, KindInvalid, "number is required")
	case r.ItemName == "":
		return opError(receipts.name, op, KindInvalid, "item name is required")
	case r.Quantity < 0:
		return opError(receipts.name, op, KindInvalid, "quantity %v is negative", r.Quantity)
	}
	return addOrUpdate(ctx, p, receipts, r)
}

// DeleteReceipt deletes one receipt line.
func (p *Provider) DeleteReceipt(ctx context.Context, id int64) error {
	return p.client.InScope(ctx, func(ctx context.Context) error {
		return deleteByID(ctx, p.client.Conn(ctx), receipts, id)
	})
}

// DeleteReceipts deletes every line yielded by res, typically the result of
// GetAllReceipts. The result is consumed.
func (p *Provider) DeleteReceipts(ctx context.Context, res *executor.Result[*Receipt]) (int64, error) {
	ids, err := collectIDs(ctx, res)
	if err != nil {
		return 0, err
	}
	return deleteIDs(ctx, p, receipts, ids)
}

// DeleteReceiptsByID deletes the lines with the given ids.
func (p *Provider) DeleteReceiptsByID(ctx context.Context, ids []int64) (int64, error) {
	return deleteIDs(ctx, p, receipts, ids)
}
