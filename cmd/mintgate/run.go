package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/manager"
	"mintworks/mintgate/pkg/telemetry/metrics"
)

var (
	runProgram   string
	runGuard     string
	runAuthority string
	runPool      string
	runItems     uint64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gatekeeper",
	Long: `Run starts the gatekeeper for one mint pool: it loads the guard data
buffer, optionally watches it for changes, serves Prometheus metrics, and
runs the periodic escrow sweep until interrupted.

The program, guard, authority, and pool identities accept hex-encoded
addresses; any other value is treated as a seed and hashed into one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := cfg.Logging.Logger()
		if err != nil {
			return err
		}

		var collector *metrics.Collector
		if cfg.Metrics.Enabled {
			collector = metrics.NewCollector(&cfg.Metrics, prometheus.NewRegistry())
		}

		l := ledger.New()
		poolID := parseAddress(runPool)
		authority := parseAddress(runAuthority)
		l.CreatePool(poolID, authority, runItems)

		gk, err := manager.New(manager.Options{
			Config:    cfg,
			Logger:    logger,
			Ledger:    l,
			Collector: collector,
			ProgramID: parseAddress(runProgram),
			GuardID:   parseAddress(runGuard),
			Authority: authority,
			PoolID:    poolID,
		})
		if err != nil {
			return err
		}
		defer gk.Close()

		if collector != nil {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			server := &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", "error", err)
				}
			}()
			defer server.Close()
			logger.Info("metrics listening", "address", cfg.Metrics.ListenAddress)
		}

		logger.Info("gatekeeper running",
			"pool", poolID.Short(),
			"items", runItems,
			"guard_data", cfg.GuardData.Path)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		fmt.Fprintf(os.Stderr, "received %s, shutting down\n", s)
		return nil
	},
}

// parseAddress accepts a hex address or derives one from a seed string.
func parseAddress(s string) ledger.Address {
	if a, err := ledger.AddressFromString(s); err == nil {
		return a
	}
	return ledger.NewAddress(s)
}

func init() {
	runCmd.Flags().StringVar(&runProgram, "program", "mintgate-program", "program identity (hex or seed)")
	runCmd.Flags().StringVar(&runGuard, "guard", "mintgate-guard", "guard policy identity (hex or seed)")
	runCmd.Flags().StringVar(&runAuthority, "authority", "mintgate-authority", "policy authority (hex or seed)")
	runCmd.Flags().StringVar(&runPool, "pool", "mintgate-pool", "mint pool identity (hex or seed)")
	runCmd.Flags().Uint64Var(&runItems, "items", 1000, "pool supply")
	rootCmd.AddCommand(runCmd)
}
