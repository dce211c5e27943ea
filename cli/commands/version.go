package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/version"
)

var versionFull bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// No database or config needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		if versionFull {
			fmt.Println(info.FullString())
			return
		}
		fmt.Println(info.String())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "include build and schema details")
	rootCmd.AddCommand(versionCmd)
}
