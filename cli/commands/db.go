package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/ui"
	"github.com/satishbabariya/posdata/migrate"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database schema",
	Long: `Manage the database schema.

This command provides subcommands for:
- Creating the tables of every entity
- Showing the recorded schema version
- Describing the connected backend`,
}

func init() {
	dbCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the tables and record the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(runDBInit)
		},
	})
	dbCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the recorded schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(runDBStatus)
		},
	})
	dbCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Describe the connected backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(runDBInfo)
		},
	})

	rootCmd.AddCommand(dbCmd)
}

func runDBInit(ctx context.Context, s *session) error {
	ui.PrintHeader("posdata", "Initialize Database")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	spinner, _ := ui.PrintSpinner("Creating tables...")
	st, err := m.Apply(ctx)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	ui.PrintSuccess("Schema is at version %s", st.Current)
	ui.PrintSection("Tables")
	ui.PrintList(st.Tables)
	return nil
}

func runDBStatus(ctx context.Context, s *session) error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	st, err := m.Status(ctx)
	if err != nil {
		return err
	}

	switch {
	case st.Current == nil:
		ui.PrintWarning("No schema recorded. Run `posdata db init`.")
	case st.Current.GreaterThan(st.Target):
		ui.PrintError("Database schema %s is newer than this build (%s)", st.Current, st.Target)
	case st.Pending():
		ui.PrintWarning("Database schema %s is behind %s. Run `posdata db init`.", st.Current, st.Target)
	default:
		ui.PrintSuccess("Database schema is up to date (%s)", st.Current)
	}

	if len(st.Applied) == 0 {
		return nil
	}
	ui.PrintSection("History")
	rows := make([][]string, 0, len(st.Applied))
	for _, r := range st.Applied {
		rows = append(rows, []string{
			r.Version,
			formatTime(r.AppliedAt),
			strconv.FormatInt(r.ExecutionTime, 10) + " ms",
			shortChecksum(r.Checksum),
		})
	}
	return ui.PrintTable([]string{"Version", "Applied", "Took", "Checksum"}, rows)
}

func runDBInfo(ctx context.Context, s *session) error {
	d := s.client.Dialect()
	stats := s.client.DB().Stats()

	ui.PrintSection("Backend")
	ui.PrintList([]string{
		fmt.Sprintf("Provider: %s (driver %s)", d.Name(), d.DriverName()),
		fmt.Sprintf("Parameters per statement: %d", d.MaxParams()),
		fmt.Sprintf("Query timeout: %s", cfg.QueryTimeout),
		fmt.Sprintf("Open connections: %d", stats.OpenConnections),
	})

	ui.PrintSection("Tables")
	ui.PrintList(migrate.Tables(s.client.Fields()))
	return nil
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
