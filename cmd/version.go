package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spigell/visa-assessor/internal/occupations"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the bundled critical skills list",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)

		list, err := occupations.Default()
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "critical skills list: %s\n", err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "critical skills list: %s (%d occupations)\n", list.Source(), list.Len())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
