package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/coldicp/mailtools/internal/checker"
	"github.com/coldicp/mailtools/internal/logger"
	"github.com/coldicp/mailtools/internal/lookup"
	"github.com/spf13/cobra"
)

var watchNameservers []string

// newResolver 测试中替换
var newResolver = func(nameservers []string) lookup.Resolver {
	return lookup.NewDNSClient(nameservers)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check SPF records for domains read from stdin",
	Long: `Read domains from stdin, one per line, and check each one directly against DNS.
A new line cancels the check still in flight and its result is dropped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(logger.LogConfig{Level: "warn", Format: "text", Output: "stderr"})

		session := checker.New(newResolver(watchNameservers), nil).NewSession()
		defer session.Close()

		var (
			wg sync.WaitGroup
			mu sync.Mutex // 串行输出
		)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			domain := strings.TrimSpace(scanner.Text())
			if domain == "" {
				continue
			}

			pending := session.Start(cmd.Context(), domain)
			wg.Add(1)
			go func() {
				defer wg.Done()
				o := <-pending
				if errors.Is(o.Err, checker.ErrSuperseded) {
					return
				}

				mu.Lock()
				defer mu.Unlock()
				printWatchOutcome(cmd, domain, o)
			}()
		}
		wg.Wait()

		return scanner.Err()
	},
}

func printWatchOutcome(cmd *cobra.Command, domain string, o checker.Outcome) {
	out := cmd.OutOrStdout()

	if !o.Errors.OK() {
		if format == "json" {
			_ = printJSON(out, map[string]interface{}{"domain": domain, "errors": o.Errors})
			return
		}
		fmt.Fprintf(out, "Domain:     %s\n", domain)
		fmt.Fprintf(out, "ERROR:      %s\n\n", fieldErrors(o.Errors))
		return
	}

	if format == "json" {
		_ = printJSON(out, map[string]interface{}{"domain": domain, "result": o.Result})
		return
	}
	printCheckResult(cmd, domain, o.Result)
	fmt.Fprintln(out)
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchNameservers, "nameserver", nil, "DNS servers to query (default from /etc/resolv.conf)")
	rootCmd.AddCommand(watchCmd)
}
