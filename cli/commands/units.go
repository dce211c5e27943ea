package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/ui"
	"github.com/satishbabariya/posdata/provider"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Manage measurement units",
}

var (
	unitSearch string
	unitMax    int
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List measurement units by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(runUnitsList)
		},
	}
	listCmd.Flags().StringVarP(&unitSearch, "search", "s", "", "only units whose name contains this text")
	listCmd.Flags().IntVarP(&unitMax, "max", "m", 0, "at most this many units (default max_results)")

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a measurement unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				unit := &provider.MeasurementUnit{Name: args[0]}
				if err := s.provider.AddUpdateMeasurementUnit(ctx, unit); err != nil {
					return err
				}
				ui.PrintSuccess("Added unit %q (id %d)", unit.Name, unit.ID)
				return nil
			})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a unit and the receipt lines using it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(func(ctx context.Context, s *session) error {
				unit := &provider.MeasurementUnit{ID: id, Name: args[1]}
				if err := s.provider.AddUpdateMeasurementUnit(ctx, unit); err != nil {
					return err
				}
				ui.PrintSuccess("Renamed unit %d to %q", unit.ID, unit.Name)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an unused measurement unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(func(ctx context.Context, s *session) error {
				perm, err := s.provider.CanDeleteMeasurementUnit(ctx, id)
				if err != nil {
					return err
				}
				if !perm.Allowed() {
					return fmt.Errorf("unit %d cannot be deleted: %s", id, perm)
				}
				ok, err := confirm(fmt.Sprintf("Delete unit %d?", id))
				if err != nil || !ok {
					return err
				}
				if err := s.provider.DeleteMeasurementUnit(ctx, id); err != nil {
					return err
				}
				ui.PrintSuccess("Deleted unit %d", id)
				return nil
			})
		},
	}

	canDeleteCmd := &cobra.Command{
		Use:   "can-delete <id>",
		Short: "Tell whether a unit may be deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(func(ctx context.Context, s *session) error {
				perm, err := s.provider.CanDeleteMeasurementUnit(ctx, id)
				if err != nil {
					return err
				}
				switch perm {
				case provider.DeleteAllowed:
					ui.PrintSuccess("Unit %d can be deleted", id)
				case provider.DeleteInUse:
					ui.PrintWarning("Unit %d is used by receipts", id)
				default:
					ui.PrintWarning("Unit %d does not exist", id)
				}
				return nil
			})
		},
	}

	unitsCmd.AddCommand(listCmd, addCmd, renameCmd, deleteCmd, canDeleteCmd)
	rootCmd.AddCommand(unitsCmd)
}

func runUnitsList(ctx context.Context, s *session) error {
	res, err := s.provider.GetAllMeasurementUnits(ctx, unitSearch, unitMax)
	if err != nil {
		return err
	}
	var rows [][]string
	for unit, err := range res.All(ctx) {
		if err != nil {
			return err
		}
		rows = append(rows, []string{strconv.FormatInt(unit.ID, 10), unit.Name})
	}
	return ui.PrintTable([]string{"ID", "Name"}, rows)
}
