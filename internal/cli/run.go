package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"frizo/collateral_engine/internal/logger"
	"frizo/collateral_engine/internal/rebalancer"
	"frizo/collateral_engine/internal/snapshot"
	"frizo/collateral_engine/internal/version"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd(rc *RootConfig) *cobra.Command {
	var (
		dir  string
		once bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate snapshot files on a schedule and log the decisions",
		Long: `Run reads every *.yaml snapshot file in a directory once per poll
interval, evaluates each account and logs the resulting transfers.
Metrics are served on metrics_addr unless it is empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rc.load(cmd)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.SnapshotDir
			}
			if dir == "" {
				return fmt.Errorf("--dir or snapshot_dir is required")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			if err := version.RegisterBuildInfo(reg); err != nil {
				return fmt.Errorf("register build info: %w", err)
			}

			runner := rebalancer.NewRunner(
				snapshot.DirSource{Dir: dir},
				rebalancer.NewLogSink(log),
				cfg.VenueParams(),
				cfg.Policy(),
				log,
				rebalancer.NewMetrics(reg),
			)

			ctx := cmd.Context()
			if once {
				report, err := runner.RunCycle(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: %d accounts, %d actions, %d unknown health\n",
					report.CycleID, len(report.Results),
					report.Count(rebalancer.OutcomeAction), report.Count(rebalancer.OutcomeUnknownHealth))
				return nil
			}

			if cfg.MetricsAddr != "" {
				srv := serveMetrics(cfg.MetricsAddr, reg, log)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						log.Error("metrics server shutdown", "error", err)
					}
				}()
			}

			log.Info("Starting collateral engine",
				"version", version.Short(),
				"environment", cfg.Environment,
				"dir", dir,
				"interval", cfg.PollInterval,
			)
			return runner.Run(ctx, cfg.PollInterval)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "snapshot directory (default snapshot_dir from config)")
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}

func serveMetrics(addr string, reg *prometheus.Registry, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
