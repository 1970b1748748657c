package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "i18ncache",
	Short: "Inspect compacted translation cache files",
	Long: `i18ncache works with the binary cache files written by the compacted
translation index.

Commands:
  inspect  - print header, fingerprint and size statistics
  keys     - list schema keys with per-locale presence
  verify   - recompute a fingerprint over source files and compare
  browse   - interactively browse locales and decoded values`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
