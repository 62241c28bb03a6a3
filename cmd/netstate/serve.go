package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ducminhle1904/resilient-trader/internal/exchange/bybit"
	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/monitoring"
	"github.com/ducminhle1904/resilient-trader/internal/notifications"
)

type serveOptions struct {
	symbol          string
	probeInterval   time.Duration
	cleanupInterval time.Duration
	maxAgeDays      int
}

func newServeCmd(a *app) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /metrics and /health, probing the exchange and pruning old state in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.symbol, "symbol", "BTCUSDT", "symbol the periodic probe fetches")
	cmd.Flags().DurationVar(&opts.probeInterval, "probe-interval", time.Minute, "exchange probe interval, 0 disables")
	cmd.Flags().DurationVar(&opts.cleanupInterval, "cleanup-interval", time.Hour, "state cleanup interval, 0 disables")
	cmd.Flags().IntVar(&opts.maxAgeDays, "max-age-days", 7, "state files older than this are pruned")

	return cmd
}

func (a *app) serve(ctx context.Context, opts serveOptions) error {
	fileLog, err := logger.NewLogger(logger.Options{
		Dir:     a.cfg.LogDir,
		Name:    appName,
		Console: true,
		Level:   a.cfg.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer fileLog.Close()
	a.useLogger(fileLog)

	health := monitoring.NewHealthChecker(a.store)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", monitoring.NewMetricsHandler())
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", health)

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", a.cfg.Monitoring.PrometheusPort), Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second},
		{Addr: fmt.Sprintf(":%d", a.cfg.Monitoring.HealthPort), Handler: healthMux, ReadHeaderTimeout: 5 * time.Second},
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			fileLog.Info("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fileLog.Warning("Shutdown of %s: %v", srv.Addr, err)
			}
		}
		return nil
	})

	if opts.probeInterval > 0 {
		client := bybit.NewClient(bybit.Config{
			APIKey:    a.cfg.Exchange.APIKey,
			APISecret: a.cfg.Exchange.Secret,
			Testnet:   a.cfg.Exchange.Testnet,
			Demo:      a.cfg.Exchange.Demo,
		}, bybit.WithStore(a.store), bybit.WithLogger(fileLog))
		notifier := notifications.NewTelegramNotifier(
			a.cfg.Notifications.TelegramToken,
			a.cfg.Notifications.TelegramChatID,
			notifications.WithNotifierStore(a.store),
			notifications.WithNotifierLogger(fileLog),
		)

		g.Go(func() error {
			return every(gctx, opts.probeInterval, func() {
				price, err := client.GetLatestPrice(gctx, "spot", opts.symbol)
				if err != nil {
					if gctx.Err() != nil {
						return
					}
					health.RecordFailure(err)
					recordProbeError(err)
					fileLog.Error("Probe of %s failed: %v", opts.symbol, err)
					if alertErr := notifier.SendAlert(gctx, notifications.LevelError,
						fmt.Sprintf("Probe of %s failed: %v", opts.symbol, err)); alertErr != nil {
						fileLog.Warning("Alert not delivered: %v", alertErr)
					}
					return
				}
				health.RecordSuccess()
				fileLog.Info("Probe %s: %.8g", opts.symbol, price)
			})
		})
	}

	if opts.cleanupInterval > 0 {
		g.Go(func() error {
			return every(gctx, opts.cleanupInterval, func() {
				a.store.CleanupOlderThanDays(opts.maxAgeDays)
			})
		})
	}

	return g.Wait()
}

// every runs fn immediately and then on each tick until ctx ends
func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
