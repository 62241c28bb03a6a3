package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/resilient-trader/cmd/common"
	"github.com/ducminhle1904/resilient-trader/internal/config"
	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

const appName = "netstate"

// app carries what every subcommand shares, filled in before any of them run
type app struct {
	out io.Writer

	envFile  string
	stateDir string
	logLevel string

	cfg   *config.Config
	log   *logger.Logger
	store *state.Store
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:               appName,
		Short:             "Inspect and manage network operation checkpoints",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringVar(&a.envFile, "env-file", ".env", "environment file to load before reading configuration")
	flags.StringVar(&a.stateDir, "state-dir", "", "state directory (default $NETWORK_STATE_DIR or $TRADES_DIR/network_state)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")

	rootCmd.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newClearCmd(a),
		newCleanupCmd(a),
		newExportCmd(a),
		newProbeCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := a.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	a.log = logger.NewConsoleLogger(os.Stderr, level)

	if err := common.NewEnvLoader(a.log).LoadEnvFile(a.envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", a.envFile, err)
	}

	a.cfg = config.Load()
	if a.logLevel == "" && a.cfg.LogLevel != level {
		a.log = logger.NewConsoleLogger(os.Stderr, a.cfg.LogLevel)
	}

	if a.stateDir == "" {
		a.stateDir = a.cfg.StateDir
	}
	state.SetDefaultDir(a.stateDir)
	a.useLogger(a.log)

	return nil
}

// useLogger switches the app and its state store to log
func (a *app) useLogger(log *logger.Logger) {
	a.log = log
	a.store = state.NewStore(a.stateDir, log)
}

// retryPolicy is the configured default policy, falling back to the built-in one when invalid
func (a *app) retryPolicy() retry.Policy {
	p := retry.Policy{
		MaxRetries:    a.cfg.Retry.MaxRetries,
		BaseDelay:     a.cfg.Retry.BaseDelay,
		MaxDelay:      a.cfg.Retry.MaxDelay,
		BackoffFactor: a.cfg.Retry.BackoffFactor,
		Jitter:        a.cfg.Retry.Jitter,
	}
	if err := p.Validate(); err != nil {
		a.log.Warning("Invalid RETRY_* configuration (%v), using defaults", err)
		return retry.DefaultPolicy()
	}
	return p
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
