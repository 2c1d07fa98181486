package commands

import (
	"fmt"
	"strings"

	"github.com/coldicp/mailtools/cmd/mailtools-cli/client"
	"github.com/coldicp/mailtools/internal/record"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <domain>",
	Short: "Check a domain's published SPF record",
	Long:  `Ask a running mailtools server (--api-url) to look up and analyze the SPF record of a domain.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.NewClient(apiURL).CheckSPF(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			return printJSON(out, resp)
		}
		printCheckResult(cmd, resp.Domain, resp.Result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func printCheckResult(cmd *cobra.Command, domain string, r record.SPFCheckResult) {
	out := cmd.OutOrStdout()

	status := "invalid"
	if r.IsValid {
		status = "valid"
	}
	fmt.Fprintf(out, "Domain:     %s\n", domain)
	fmt.Fprintf(out, "Status:     %s\n", status)
	if r.Record != "" {
		fmt.Fprintf(out, "Record:     %s\n", strings.TrimSpace(r.Record))
	}
	fmt.Fprintf(out, "Lookups:    %d/%d\n", r.Lookups, record.MaxLookups)

	printList := func(label string, items []string) {
		if len(items) > 0 {
			fmt.Fprintf(out, "%-11s %s\n", label+":", strings.Join(items, ", "))
		}
	}
	printList("Mechanisms", r.Mechanisms)
	printList("Includes", r.Includes)
	printList("IPs", r.IPs)

	for _, e := range r.Errors {
		fmt.Fprintf(out, "ERROR:      %s\n", e)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "WARNING:    %s\n", w)
	}
}
