package types

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yejune/go-jsc-bridge/internal/typegen"
	"github.com/yejune/go-jsc-bridge/jscbridge-cli/cmd"
	"github.com/yejune/go-jsc-bridge/jscbridge-cli/logger"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Write TypeScript declarations for bridge data",
	Long:  "Write TypeScript declarations for the console entries and package metadata the bridge exposes to scripts.",
	RunE:  types,
}

var out string

func init() {
	typesCmd.Flags().StringVarP(&out, "out", "o", "jscbridge.d.ts", "Output file")
	cmd.RootCmd.AddCommand(typesCmd)
}

func types(c *cobra.Command, args []string) error {
	if err := typegen.WriteFile(out); err != nil {
		logger.L.Error().Err(err).Msg("Failed to generate types")
		return err
	}
	color.Green("Wrote %s", out)
	return nil
}
