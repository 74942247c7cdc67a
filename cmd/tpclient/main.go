package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	logs "github.com/danmuck/tpkit/internal/logging"
)

// Set at build time.
var version = "dev"

func main() {
	logs.ConfigureRuntime()

	rootCmd := &cobra.Command{
		Use:   "tpclient",
		Short: "Run a Touch Portal plugin connection",
		Long: `tpclient pairs with a local Touch Portal host as a plugin,
logs every event it receives and can expose health, metrics and the
custom state registry over a small admin HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var exit exitError
		if asExit(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "tpclient: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
