// Package cli wires the engine packages into the collateral_engine command.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"frizo/collateral_engine/internal/config"
	"frizo/collateral_engine/internal/logger"
)

// RootConfig holds the flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	LogLevel   string
	Output     string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "collateral_engine",
		Short: "Collateral health and rebalancing decisions for cross-venue margin accounts",
		Long: `collateral_engine values a ledger account together with the margin
accounts it holds on external venues, and decides which collateral
transfers would restore health.

It never moves funds itself. Decisions are printed or handed to a sink.

Example:
  collateral_engine evaluate snapshots/accounts.yaml -o json`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&rc.ConfigPath, "config", "c", "", "path to YAML config file (environment variables override it)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&rc.Output, "output", "o", "text", "output format (text, json, yaml)")

	cmd.AddCommand(
		newObserveCmd(rc),
		newEvaluateCmd(rc),
		newRunCmd(rc),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// load reads the configuration and builds a logger writing to the
// command's stderr, so stdout carries only command output.
func (rc *RootConfig) load(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if rc.ConfigPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(rc.ConfigPath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if rc.LogLevel != "" {
		cfg.LogLevel = rc.LogLevel
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	logger.SetDefault(log)
	return cfg, log, nil
}
