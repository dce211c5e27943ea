// Package commands implements the posdata command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/config"
	"github.com/satishbabariya/posdata/cli/internal/ui"
	"github.com/satishbabariya/posdata/internal/debug"
)

var (
	cfgFile      string
	flagURL      string
	flagProvider string
	flagDebug    bool
	assumeYes    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "posdata",
	Short: "Manage point-of-sale back-office data",
	Long: `posdata manages the back-office data of a point of sale: price rules,
the internal log, measurement units and receipts.

It works against PostgreSQL, MySQL, SQLite and SQL Server. The connection
comes from --url, POSDATA_DATABASE_URL, DATABASE_URL or .posdata.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if flagURL != "" {
			cfg.DatabaseURL = flagURL
			if flagProvider == "" {
				cfg.Provider = config.DetectProvider(flagURL)
			}
		}
		if flagProvider != "" {
			cfg.Provider = flagProvider
		}
		if flagDebug {
			cfg.Debug = true
		}
		debug.Init(cfg.Debug)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default .posdata.yaml in ., $HOME or $HOME/.config/posdata)")
	pf.StringVar(&flagURL, "url", "", "database connection string")
	pf.StringVar(&flagProvider, "provider", "", "database provider: postgres, mysql, sqlite or sqlserver")
	pf.BoolVar(&flagDebug, "debug", false, "log statements to stderr")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

// Execute is the main entry point for the CLI
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}
