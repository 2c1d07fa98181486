package commands

import (
	"fmt"

	"github.com/coldicp/mailtools/internal/record"
	"github.com/spf13/cobra"
)

var spfOpts struct {
	provider   string
	includes   []string
	ips        []string
	mechanisms []string
}

var spfCmd = &cobra.Command{
	Use:   "spf <domain>",
	Short: "Build an SPF record",
	Long: `Build an SPF TXT record. Without flags the record includes Microsoft 365
and the mx and a mechanisms. --provider replaces the include list with a single
provider; --include adds further includes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		domain := args[0]
		if errs := record.Validate(domain, nil); !errs.OK() {
			return fieldErrors(errs)
		}

		rec := record.DefaultSPFRecord()
		if spfOpts.provider != "" {
			p, ok := record.LookupProvider(spfOpts.provider)
			if !ok {
				return fmt.Errorf("unknown provider %q, see 'mailtools-cli spf providers'", spfOpts.provider)
			}
			rec.SelectProvider(p)
		}
		for _, inc := range spfOpts.includes {
			rec.ToggleInclude(inc)
		}
		if cmd.Flags().Changed("mechanism") {
			rec.Mechanisms = []record.Mechanism{}
			for _, s := range spfOpts.mechanisms {
				m, err := record.ParseMechanism(s)
				if err != nil {
					return err
				}
				rec.ToggleMechanism(m)
			}
		}
		for _, ip := range spfOpts.ips {
			rec.AddIP(ip)
		}

		return printRecord(cmd, domain, record.BuildSPF(rec))
	},
}

var spfProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List known email providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if format == "json" {
			return printJSON(out, record.Providers)
		}
		for _, p := range record.Providers {
			fmt.Fprintf(out, "%-18s include:%s\n", p.Label, p.Include)
		}
		return nil
	},
}

func init() {
	f := spfCmd.Flags()
	f.StringVar(&spfOpts.provider, "provider", "", "Email provider name or include domain")
	f.StringSliceVar(&spfOpts.includes, "include", nil, "Additional include domains")
	f.StringSliceVar(&spfOpts.ips, "ip", nil, "IP addresses or CIDR ranges")
	f.StringSliceVar(&spfOpts.mechanisms, "mechanism", nil, "Mechanisms (mx, a, ptr), replaces the default mx,a")

	spfCmd.AddCommand(spfProvidersCmd)
	rootCmd.AddCommand(spfCmd)
}
