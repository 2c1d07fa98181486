package commands

import (
	"fmt"

	"github.com/coldicp/mailtools/internal/calc"
	"github.com/spf13/cobra"
)

var roiInput = calc.NewROIInput()

var roiCmd = &cobra.Command{
	Use:   "roi",
	Short: "Estimate cold email campaign ROI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := calc.ROI(roiInput)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			return printJSON(out, result)
		}

		fmt.Fprintf(out, "Opened emails:    %d\n", result.OpenedEmails)
		fmt.Fprintf(out, "Positive replies: %d\n", result.PositiveReplies)
		fmt.Fprintf(out, "Closed deals:     %d\n", result.ClosedDeals)
		fmt.Fprintf(out, "Revenue:          %.2f\n", result.ExpectedRevenue)
		fmt.Fprintf(out, "Conversion:       %s%%\n\n", result.ConversionRate)
		fmt.Fprintln(out, result.Summary)
		return nil
	},
}

func init() {
	f := roiCmd.Flags()
	f.IntVar(&roiInput.Prospects, "prospects", roiInput.Prospects, "Number of prospects (0-50000)")
	f.Float64Var(&roiInput.OpenRate, "open-rate", roiInput.OpenRate, "Open rate in percent")
	f.Float64Var(&roiInput.ReplyRate, "reply-rate", roiInput.ReplyRate, "Positive reply rate in percent")
	f.Float64Var(&roiInput.CloseRate, "close-rate", roiInput.CloseRate, "Close rate in percent")
	f.Float64Var(&roiInput.DealValue, "deal-value", roiInput.DealValue, "Average deal value")

	rootCmd.AddCommand(roiCmd)
}
