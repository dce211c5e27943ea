package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/satishbabariya/posdata/pricing/formula"
	"github.com/satishbabariya/posdata/query/executor"
	"github.com/satishbabariya/posdata/query/sqlgen"
)

// GetAllPriceRules returns every price rule in ascending priority.
func (p *Provider) GetAllPriceRules(ctx context.Context) (*executor.Result[*PriceRule], error) {
	res, err := query(ctx, p, priceRules, func(s *sqlgen.Select) {
		s.OrderBy(PriceRulePriority, false)
	})
	if err != nil {
		return nil, err
	}
	countStmt, err := sqlgen.NewSelect(p.client.Fields(), PriceRuleID).BuildCount()
	if err != nil {
		return nil, err
	}
	return res.WithCount(countStmt), nil
}

// AddUpdatePriceRule inserts or updates rule and keeps priorities 1..N.
//
// A new rule at priority p pushes the rules at p and below down by one; a
// priority outside 1..N+1 appends it. Moving a rule from a to b shifts the
// rules in between by one towards a; a priority outside 1..N moves it last.
func (p *Provider) AddUpdatePriceRule(ctx context.Context, rule *PriceRule) error {
	op := "insert"
	if rule.ID != 0 {
		op = "update"
	}
	if rule.Name == "" {
		return opError(priceRules.name, op, KindInvalid, "name is required")
	}
	if err := formula.Validate(rule.Formula); err != nil {
		return &OperationError{Entity: priceRules.name, Op: op, Kind: KindInvalid, Err: err}
	}

	return p.client.InScope(ctx, func(ctx context.Context) error {
		conn := p.client.Conn(ctx)
		n, err := count(ctx, conn, priceRules, nil)
		if err != nil {
			return fmt.Errorf("%s %s: %w", priceRules.name, op, err)
		}

		if rule.ID == 0 {
			if rule.Priority <= 0 || rule.Priority > n+1 {
				rule.Priority = n + 1
			}
			if err := shiftPriorities(ctx, conn, 1, sqlgen.Gte(PriceRulePriority, rule.Priority)); err != nil {
				return err
			}
		} else {
			current, err := p.priorityOf(ctx, conn, rule.ID, op)
			if err != nil {
				return err
			}
			if rule.Priority <= 0 || rule.Priority > n {
				rule.Priority = n
			}
			switch {
			case rule.Priority > current:
				err = shiftPriorities(ctx, conn, -1,
					sqlgen.Gt(PriceRulePriority, current), sqlgen.Lte(PriceRulePriority, rule.Priority))
			case rule.Priority < current:
				err = shiftPriorities(ctx, conn, 1,
					sqlgen.Gte(PriceRulePriority, rule.Priority), sqlgen.Lt(PriceRulePriority, current))
			}
			if err != nil {
				return err
			}
		}

		if err := addOrUpdate(ctx, p, priceRules, rule); err != nil {
			return err
		}
		return validatePriorities(ctx, conn, op)
	})
}

// DeletePriceRule deletes a rule and moves the rules below it up by one.
func (p *Provider) DeletePriceRule(ctx context.Context, id int64) error {
	return p.client.InScope(ctx, func(ctx context.Context) error {
		conn := p.client.Conn(ctx)
		priority, err := p.priorityOf(ctx, conn, id, "delete")
		if err != nil {
			return err
		}
		if err := deleteByID(ctx, conn, priceRules, id); err != nil {
			return err
		}
		if err := shiftPriorities(ctx, conn, -1, sqlgen.Gt(PriceRulePriority, priority)); err != nil {
			return err
		}
		return validatePriorities(ctx, conn, "delete")
	})
}

// CanDeletePriceRule reports whether the rule exists. Nothing references
// price rules, so an existing rule may always be deleted.
func (p *Provider) CanDeletePriceRule(ctx context.Context, id int64) (DeletePermission, error) {
	n, err := count(ctx, p.client.Conn(ctx), priceRules, sqlgen.Where(sqlgen.Eq(PriceRuleID, id)))
	if err != nil {
		return DeleteNotFound, err
	}
	if n == 0 {
		return DeleteNotFound, nil
	}
	return DeleteAllowed, nil
}

// AppliedRule is one step of ApplyPriceRules.
type AppliedRule struct {
	Rule   *PriceRule
	Before float64
	After  float64
}

// ApplyPriceRules runs the enabled rules in priority order, each on the
// result of the previous one, and returns the final price with the steps.
func (p *Provider) ApplyPriceRules(ctx context.Context, price float64) (float64, []AppliedRule, error) {
	res, err := query(ctx, p, priceRules, func(s *sqlgen.Select) {
		s.Where(sqlgen.Where(sqlgen.Eq(PriceRuleEnabled, true))).OrderBy(PriceRulePriority, false)
	})
	if err != nil {
		return 0, nil, err
	}
	rules, err := res.Collect(ctx)
	if err != nil {
		return 0, nil, err
	}

	var steps []AppliedRule
	for _, rule := range rules {
		f, err := formula.Parse(rule.Formula)
		if err != nil {
			return 0, nil, &OperationError{Entity: priceRules.name, Op: "apply", Kind: KindInvalid, Err: err}
		}
		next, err := f.Eval(price)
		if err != nil {
			return 0, nil, &OperationError{Entity: priceRules.name, Op: "apply", Kind: KindInvalid, Err: fmt.Errorf("rule %q: %w", rule.Name, err)}
		}
		steps = append(steps, AppliedRule{Rule: rule, Before: price, After: next})
		price = next
	}
	return price, steps, nil
}

func (p *Provider) priorityOf(ctx context.Context, conn *executor.Conn, id int64, op string) (int64, error) {
	stmt, _, err := sqlgen.NewSelect(conn.Fields(), PriceRulePriority).
		Where(sqlgen.Where(sqlgen.Eq(PriceRuleID, id))).
		Build()
	if err != nil {
		return 0, err
	}
	priority, err := executor.ExecuteScalar[int64](ctx, conn, stmt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, opError(priceRules.name, op, KindConflict, "row %d no longer exists", id)
	}
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", priceRules.name, op, err)
	}
	return priority, nil
}

func shiftPriorities(ctx context.Context, conn *executor.Conn, delta int64, conds ...sqlgen.Condition) error {
	stmt, err := sqlgen.Shift(conn.Fields(), PriceRulePriority, delta, sqlgen.Where(conds...))
	if err != nil {
		return err
	}
	if _, err := conn.ExecuteNonQuery(ctx, stmt); err != nil {
		return fmt.Errorf("%s renumber: %w", priceRules.name, err)
	}
	return nil
}

// validatePriorities re-reads the priorities inside the scope and fails on
// any gap or duplicate.
func validatePriorities(ctx context.Context, conn *executor.Conn, op string) error {
	stmt, cols, err := sqlgen.NewSelect(conn.Fields(), PriceRulePriority).
		OrderBy(PriceRulePriority, false).
		Build()
	if err != nil {
		return err
	}
	res := executor.NewResult(conn, stmt, cols, func(r *executor.Row) (int64, error) {
		return r.Int64(PriceRulePriority)
	})
	want := int64(1)
	for priority, err := range res.All(ctx) {
		if err != nil {
			return fmt.Errorf("%s %s: %w", priceRules.name, op, err)
		}
		if priority != want {
			return opError(priceRules.name, op, KindIntegrity, "priority %d found where %d was expected", priority, want)
		}
		want++
	}
	return nil
}
