package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/posdata/query/fields"
)

// writeWhere appends " WHERE ..." to stmt when where has conditions.
func writeWhere(stmt *Statement, c *fields.Collection, where *WhereClause) error {
	if where.IsEmpty() {
		return nil
	}
	sql, err := buildWhereRecursive(stmt, c, where)
	if err != nil {
		return err
	}
	if sql != "" {
		stmt.Write(" WHERE ", sql)
	}
	return nil
}

// buildWhereRecursive builds a WHERE clause with support for nested conditions
func buildWhereRecursive(stmt *Statement, c *fields.Collection, where *WhereClause) (string, error) {
	if where.IsEmpty() {
		return "", nil
	}

	var parts []string

	for _, cond := range where.Conditions {
		condSQL, err := buildCondition(stmt, c, cond)
		if err != nil {
			return "", err
		}
		parts = append(parts, condSQL)
	}

	for _, group := range where.Groups {
		groupSQL, err := buildWhereRecursive(stmt, c, group)
		if err != nil {
			return "", err
		}
		if groupSQL != "" {
			parts = append(parts, "("+groupSQL+")")
		}
	}

	if len(parts) == 0 {
		return "", nil
	}

	op := "AND"
	if strings.EqualFold(where.Operator, "OR") {
		op = "OR"
	}

	result := strings.Join(parts, " "+op+" ")
	if where.IsNot {
		result = "NOT (" + result + ")"
	}
	return result, nil
}

// buildCondition builds a single condition
func buildCondition(stmt *Statement, c *fields.Collection, cond Condition) (string, error) {
	m, err := c.Resolve(cond.Field)
	if err != nil {
		return "", err
	}
	col := c.Dialect().Quote(m.Column)

	switch cond.Operator {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return fmt.Sprintf("%s %s %s", col, cond.Operator, stmt.Bind(m.Parameter, cond.Value)), nil

	case OpIn, OpNotIn:
		values, _ := cond.Value.([]any)
		if len(values) == 0 {
			// IN () is invalid SQL; an empty set matches nothing.
			if cond.Operator == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = stmt.Bind(m.Parameter, v)
		}
		return fmt.Sprintf("%s %s (%s)", col, cond.Operator, strings.Join(placeholders, ", ")), nil

	case OpContains:
		d := c.Dialect()
		return d.Like(col, stmt.Bind(m.Parameter, d.LikeContains(fmt.Sprint(cond.Value)))), nil

	case OpMatches:
		d := c.Dialect()
		exprs := []string{col}
		for _, f := range cond.Also {
			other, err := c.Column(f)
			if err != nil {
				return "", err
			}
			exprs = append(exprs, "' '", other)
		}
		return d.Like(d.Concat(exprs...), stmt.Bind(m.Parameter, d.LikeContains(fmt.Sprint(cond.Value)))), nil

	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", col, cond.Operator), nil

	default:
		return "", fmt.Errorf("unsupported operator %q on field %s", cond.Operator, cond.Field)
	}
}
