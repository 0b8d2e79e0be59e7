package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yejune/go-jsc-bridge/jscbridge-cli/logger"
)

// RootCmd is extended by the subcommand packages in their init
var RootCmd = &cobra.Command{
	Use:   "jscbridge-cli",
	Short: "Run scripts inside the JS bridge runtime",
	Long:  "Run and hot reload scripts inside the JS bridge runtime, and generate TypeScript declarations for its host data.",
}

var verbose bool

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	RootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	}
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
