package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/ui"
	"github.com/satishbabariya/posdata/provider"
)

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Manage receipt lines",
}

var (
	receiptSearch   string
	receiptMax      int
	receiptNumber   string
	receiptItem     string
	receiptQuantity float64
	receiptUnit     string
	receiptTotal    float64
	receiptDate     string
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List receipt lines, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(runReceiptsList)
		},
	}
	listCmd.Flags().StringVarP(&receiptSearch, "search", "s", "", "only lines whose number or item contains this text")
	listCmd.Flags().IntVarP(&receiptMax, "max", "m", 0, "at most this many lines (default max_results)")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a receipt line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().UTC().Truncate(time.Second)
			if receiptDate != "" {
				var err error
				if date, err = parseTime(receiptDate); err != nil {
					return err
				}
			}
			return withSession(func(ctx context.Context, s *session) error {
				line := &provider.Receipt{
					Number:       receiptNumber,
					Date:         date,
					ItemName:     receiptItem,
					Quantity:     receiptQuantity,
					ItemMeasUnit: receiptUnit,
					Total:        receiptTotal,
				}
				if err := s.provider.AddUpdateReceipt(ctx, line); err != nil {
					return err
				}
				ui.PrintSuccess("Added line %d to receipt %s", line.ID, line.Number)
				return nil
			})
		},
	}
	f := addCmd.Flags()
	f.StringVar(&receiptNumber, "number", "", "receipt number")
	f.StringVar(&receiptItem, "item", "", "item name")
	f.Float64Var(&receiptQuantity, "qty", 1, "quantity")
	f.StringVar(&receiptUnit, "unit", "", "measurement unit name")
	f.Float64Var(&receiptTotal, "total", 0, "line total")
	f.StringVar(&receiptDate, "date", "", "receipt time (default now)")
	addCmd.MarkFlagRequired("number")
	addCmd.MarkFlagRequired("item")

	deleteCmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete receipt lines by id or by search",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && receiptSearch == "" {
				return errors.New("pass line ids or --search")
			}
			return withSession(func(ctx context.Context, s *session) error {
				return runReceiptsDelete(ctx, s, args)
			})
		},
	}
	deleteCmd.Flags().StringVarP(&receiptSearch, "search", "s", "", "delete every line whose number or item contains this text")

	receiptsCmd.AddCommand(listCmd, addCmd, deleteCmd)
	rootCmd.AddCommand(receiptsCmd)
}

func runReceiptsList(ctx context.Context, s *session) error {
	res, err := s.provider.GetAllReceipts(ctx, receiptSearch, receiptMax)
	if err != nil {
		return err
	}
	var rows [][]string
	for r, err := range res.All(ctx) {
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Number,
			formatTime(r.Date),
			r.ItemName,
			formatFloat(r.Quantity) + " " + r.ItemMeasUnit,
			formatFloat(r.Total),
		})
	}
	return ui.PrintTable([]string{"ID", "Number", "Date", "Item", "Quantity", "Total"}, rows)
}

func runReceiptsDelete(ctx context.Context, s *session, args []string) error {
	if len(args) > 0 {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		ok, err := confirm(fmt.Sprintf("Delete %d receipt %s?", len(ids), plural(int64(len(ids)), "line", "lines")))
		if err != nil || !ok {
			return err
		}
		n, err := s.provider.DeleteReceiptsByID(ctx, ids)
		if err != nil {
			return err
		}
		ui.PrintSuccess("Deleted %d receipt %s", n, plural(n, "line", "lines"))
		return nil
	}

	// Without a row cap: every match goes.
	res, err := provider.New(s.client).GetAllReceipts(ctx, receiptSearch, 0)
	if err != nil {
		return err
	}
	n, err := res.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		ui.PrintInfo("No receipt lines match %q", receiptSearch)
		return nil
	}
	ok, err := confirm(fmt.Sprintf("Delete %d receipt %s matching %q?", n, plural(n, "line", "lines"), receiptSearch))
	if err != nil || !ok {
		return err
	}
	deleted, err := s.provider.DeleteReceipts(ctx, res)
	if err != nil {
		return err
	}
	ui.PrintSuccess("Deleted %d receipt %s", deleted, plural(deleted, "line", "lines"))
	return nil
}
