package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version CLI 版本，构建时通过 -ldflags 注入
	Version = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mailtools-cli version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
