package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mintworks/mintgate/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mintgate",
	Short: "Mintgate - guard pipeline for gated mint pools",
	Long: `Mintgate gates a privileged mint behind an ordered set of configurable
guards: payments, schedules, allow lists, per-wallet limits, custody
escrows, and transaction shape checks.

It evaluates mint requests against a serialized guard configuration,
converts denied probes into bot tax penalties, dispatches administrative
route instructions (escrow initialization, thaw, fund unlock), and keeps
an audit trail of every attempt.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configured file, or the defaults when no file is
// named. Verbose output forces debug logging.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
