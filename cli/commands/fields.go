package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/ui"
	"github.com/satishbabariya/posdata/provider"
	"github.com/satishbabariya/posdata/query/dialect"
	"github.com/satishbabariya/posdata/query/fields"
)

var fieldsDialect string

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Show how logical fields map to tables and columns",
	Long: `Show the field registry: for every logical field, the table, column,
alias, parameter name and column type it has on a backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := dialect.Names()
		if fieldsDialect != "" {
			names = []string{fieldsDialect}
		}
		var doc strings.Builder
		doc.WriteString("# Field registry\n")
		for _, name := range names {
			d, err := dialect.For(name)
			if err != nil {
				return err
			}
			if err := writeFieldTable(&doc, provider.Registry().Collection(d)); err != nil {
				return err
			}
		}
		return ui.PrintMarkdown(doc.String())
	},
}

func init() {
	fieldsCmd.Flags().StringVarP(&fieldsDialect, "dialect", "d", "", "only this backend")
	rootCmd.AddCommand(fieldsCmd)
}

func writeFieldTable(doc *strings.Builder, c *fields.Collection) error {
	d := c.Dialect()
	fmt.Fprintf(doc, "\n## %s\n\n", d.Name())
	doc.WriteString("| Field | Table | Column | Alias | Parameter | Type |\n")
	doc.WriteString("|---|---|---|---|---|---|\n")
	for _, f := range c.Fields() {
		m, err := c.Resolve(f)
		if err != nil {
			return err
		}
		param, err := c.ParameterName(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(doc, "| %s | %s | %s | %s | `%s` | %s |\n",
			f, m.Table, m.Column, m.Alias, param, d.ColumnType(m.Kind, m.Identity))
	}
	return nil
}
