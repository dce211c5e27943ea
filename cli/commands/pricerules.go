package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/ui"
	"github.com/satishbabariya/posdata/provider"
)

var priceRulesCmd = &cobra.Command{
	Use:     "pricerules",
	Aliases: []string{"rules"},
	Short:   "Manage price rules",
	Long: `Manage price rules.

A price rule rewrites a price with a formula over x (the current price),
e.g. "x * 0.9" or "max(x - 5, 0)". Enabled rules run in ascending priority,
each on the result of the previous one. Priorities are always 1..N.`,
}

var (
	ruleName     string
	ruleFormula  string
	rulePriority int64
	ruleDisabled bool
	ruleEnabled  bool
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List price rules by priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(runPriceRulesList)
		},
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a price rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				rule := &provider.PriceRule{
					Name:     ruleName,
					Formula:  ruleFormula,
					Priority: rulePriority,
					Enabled:  !ruleDisabled,
				}
				if err := s.provider.AddUpdatePriceRule(ctx, rule); err != nil {
					return err
				}
				ui.PrintSuccess("Added price rule %q (id %d) at priority %d", rule.Name, rule.ID, rule.Priority)
				return nil
			})
		},
	}
	addCmd.Flags().StringVarP(&ruleName, "name", "n", "", "rule name")
	addCmd.Flags().StringVarP(&ruleFormula, "formula", "f", "", "price formula over x")
	addCmd.Flags().Int64VarP(&rulePriority, "priority", "p", 0, "priority (default last)")
	addCmd.Flags().BoolVar(&ruleDisabled, "disabled", false, "add the rule disabled")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("formula")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a price rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(func(ctx context.Context, s *session) error {
				rule, err := findPriceRule(ctx, s, id)
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					rule.Name = ruleName
				}
				if flags.Changed("formula") {
					rule.Formula = ruleFormula
				}
				if flags.Changed("priority") {
					rule.Priority = rulePriority
				}
				if flags.Changed("enabled") {
					rule.Enabled = ruleEnabled
				}
				if err := s.provider.AddUpdatePriceRule(ctx, rule); err != nil {
					return err
				}
				ui.PrintSuccess("Updated price rule %q at priority %d", rule.Name, rule.Priority)
				return nil
			})
		},
	}
	updateCmd.Flags().StringVarP(&ruleName, "name", "n", "", "rule name")
	updateCmd.Flags().StringVarP(&ruleFormula, "formula", "f", "", "price formula over x")
	updateCmd.Flags().Int64VarP(&rulePriority, "priority", "p", 0, "priority; out of range moves the rule last")
	updateCmd.Flags().BoolVar(&ruleEnabled, "enabled", true, "enable or disable the rule")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a price rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(func(ctx context.Context, s *session) error {
				perm, err := s.provider.CanDeletePriceRule(ctx, id)
				if err != nil {
					return err
				}
				if !perm.Allowed() {
					return fmt.Errorf("price rule %d cannot be deleted: %s", id, perm)
				}
				ok, err := confirm(fmt.Sprintf("Delete price rule %d?", id))
				if err != nil || !ok {
					return err
				}
				if err := s.provider.DeletePriceRule(ctx, id); err != nil {
					return err
				}
				ui.PrintSuccess("Deleted price rule %d", id)
				return nil
			})
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply <price>",
		Short: "Run the enabled rules on a price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q", args[0])
			}
			return withSession(func(ctx context.Context, s *session) error {
				return runPriceRulesApply(ctx, s, price)
			})
		},
	}

	priceRulesCmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd, applyCmd)
	rootCmd.AddCommand(priceRulesCmd)
}

func runPriceRulesList(ctx context.Context, s *session) error {
	res, err := s.provider.GetAllPriceRules(ctx)
	if err != nil {
		return err
	}
	var rows [][]string
	for rule, err := range res.All(ctx) {
		if err != nil {
			return err
		}
		enabled := "yes"
		if !rule.Enabled {
			enabled = "no"
		}
		rows = append(rows, []string{
			strconv.FormatInt(rule.Priority, 10),
			strconv.FormatInt(rule.ID, 10),
			rule.Name,
			rule.Formula,
			enabled,
		})
	}
	return ui.PrintTable([]string{"Priority", "ID", "Name", "Formula", "Enabled"}, rows)
}

func runPriceRulesApply(ctx context.Context, s *session, price float64) error {
	final, steps, err := s.provider.ApplyPriceRules(ctx, price)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(steps))
	for _, st := range steps {
		rows = append(rows, []string{
			strconv.FormatInt(st.Rule.Priority, 10),
			st.Rule.Name,
			st.Rule.Formula,
			formatFloat(st.Before),
			formatFloat(st.After),
		})
	}
	if err := ui.PrintTable([]string{"Priority", "Rule", "Formula", "Before", "After"}, rows); err != nil {
		return err
	}
	ui.PrintSuccess("%s → %s", formatFloat(price), formatFloat(final))
	return nil
}

func findPriceRule(ctx context.Context, s *session, id int64) (*provider.PriceRule, error) {
	res, err := s.provider.GetAllPriceRules(ctx)
	if err != nil {
		return nil, err
	}
	for rule, err := range res.All(ctx) {
		if err != nil {
			return nil, err
		}
		if rule.ID == id {
			return rule, nil
		}
	}
	return nil, fmt.Errorf("price rule %d not found", id)
}
