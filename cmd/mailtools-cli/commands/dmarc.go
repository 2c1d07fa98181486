package commands

import (
	"fmt"

	"github.com/coldicp/mailtools/internal/record"
	"github.com/spf13/cobra"
)

var dmarcOpts struct {
	policy          string
	subdomainPolicy string
	percentage      int
	rua             string
	ruf             string
	spfAlignment    string
	dkimAlignment   string
	interval        int
	failureOptions  []string
}

var dmarcCmd = &cobra.Command{
	Use:   "dmarc <domain>",
	Short: "Build a DMARC record",
	Long:  `Build a DMARC TXT record for a domain and print its host name and value.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := record.NewDMARCPolicy()
		p.SetDomain(args[0])
		if cmd.Flags().Changed("rua") {
			p.RUA = dmarcOpts.rua
		}
		p.RUF = dmarcOpts.ruf

		var err error
		if p.Policy, err = record.ParsePolicy(dmarcOpts.policy); err != nil {
			return err
		}
		if p.SubdomainPolicy, err = record.ParsePolicy(dmarcOpts.subdomainPolicy); err != nil {
			return err
		}
		if p.SPFAlignment, err = record.ParseAlignment(dmarcOpts.spfAlignment); err != nil {
			return err
		}
		if p.DKIMAlignment, err = record.ParseAlignment(dmarcOpts.dkimAlignment); err != nil {
			return err
		}
		p.SetPercentage(dmarcOpts.percentage)
		p.SetReportingInterval(dmarcOpts.interval)

		p.FailureOptions = p.FailureOptions[:0]
		for _, s := range dmarcOpts.failureOptions {
			opt, err := record.ParseFailureOption(s)
			if err != nil {
				return err
			}
			p.FailureOptions = append(p.FailureOptions, opt)
		}

		if errs := record.Validate(p.Domain, &p.RUA); !errs.OK() {
			return fieldErrors(errs)
		}

		return printRecord(cmd, record.HostLabel(p.Domain), record.BuildDMARC(p))
	},
}

func init() {
	f := dmarcCmd.Flags()
	f.StringVarP(&dmarcOpts.policy, "policy", "p", "none", "Policy (none, quarantine, reject)")
	f.StringVar(&dmarcOpts.subdomainPolicy, "sp", "none", "Subdomain policy")
	f.IntVar(&dmarcOpts.percentage, "pct", 100, "Percentage of messages the policy applies to (0-100)")
	f.StringVar(&dmarcOpts.rua, "rua", "", "Aggregate report address (default dmarc@<domain>)")
	f.StringVar(&dmarcOpts.ruf, "ruf", "", "Forensic report address")
	f.StringVar(&dmarcOpts.spfAlignment, "aspf", "r", "SPF alignment (r, s)")
	f.StringVar(&dmarcOpts.dkimAlignment, "adkim", "r", "DKIM alignment (r, s)")
	f.IntVar(&dmarcOpts.interval, "ri", record.DefaultReportingInterval, "Reporting interval in seconds (min 3600)")
	f.StringSliceVar(&dmarcOpts.failureOptions, "fo", []string{"1"}, "Failure reporting options (0, 1, d, s)")

	rootCmd.AddCommand(dmarcCmd)
}

// printRecord 按 --format 输出主机名和记录
func printRecord(cmd *cobra.Command, host, value string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, map[string]string{"host": host, "record": value})
	}
	fmt.Fprintf(out, "Host:   %s\n", host)
	fmt.Fprintf(out, "Type:   TXT\n")
	fmt.Fprintf(out, "Record: %s\n", value)
	return nil
}

// fieldErrors 把字段校验结果转成错误
func fieldErrors(errs record.FieldErrors) error {
	switch {
	case errs.Domain != "" && errs.Email != "":
		return fmt.Errorf("%s; %s", errs.Domain, errs.Email)
	case errs.Domain != "":
		return fmt.Errorf("%s", errs.Domain)
	}
	return fmt.Errorf("%s", errs.Email)
}
