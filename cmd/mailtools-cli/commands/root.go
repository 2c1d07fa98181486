package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局参数
	apiURL string
	format string

	rootCmd = &cobra.Command{
		Use:   "mailtools-cli",
		Short: "mailtools CLI - DMARC/SPF record tools",
		Long: `Command-line companion for the mailtools service.
Build DMARC and SPF records locally, check a domain's published SPF record
through a running mailtools server, and estimate cold email ROI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (text, json)", format)
			}
			return nil
		},
	}
)

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&apiURL, "api-url", "a", "http://localhost:8080", "mailtools server URL")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "text", "Output format (text, json)")
}

// printJSON 以缩进 JSON 输出
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
