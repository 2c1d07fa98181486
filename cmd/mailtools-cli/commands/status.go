package commands

import (
	"fmt"
	"time"

	"github.com/coldicp/mailtools/cmd/mailtools-cli/client"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long:  `Show whether the mailtools server at --api-url is reachable and healthy.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := client.NewClient(apiURL).Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("could not connect to mailtools server: %w", err)
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			return printJSON(out, health)
		}

		fmt.Fprintln(out, "Status: Running")
		fmt.Fprintf(out, "API Server: %s\n", apiURL)
		fmt.Fprintf(out, "Server Time: %s\n", time.Unix(health.Time, 0).UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
