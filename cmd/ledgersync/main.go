package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledgersync",
		Short:         "Edit ledger periods against the ledgersync API",
		Long:          `A command line editing session for ledger entries. Changes are saved automatically after a quiet period.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String("env-file", "", "Optional .env file with LEDGERSYNC_* settings")
	rootCmd.PersistentFlags().String("url", "", "Base URL of the ledgersync API (overrides LEDGERSYNC_API_URL)")

	rootCmd.AddCommand(newSheetCmd())

	return rootCmd
}
