package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	boterrors "github.com/ducminhle1904/resilient-trader/internal/errors"
	"github.com/ducminhle1904/resilient-trader/internal/exchange/bybit"
	"github.com/ducminhle1904/resilient-trader/internal/monitoring"
	"github.com/ducminhle1904/resilient-trader/internal/network"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
	"github.com/ducminhle1904/resilient-trader/internal/notifications"
)

type probeOptions struct {
	symbol   string
	category string
	url      string
	alert    bool
}

func newProbeCmd(a *app) *cobra.Command {
	var opts probeOptions

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Exercise the exchange, Telegram and an optional URL through the retry presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.probe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.symbol, "symbol", "BTCUSDT", "symbol to fetch the latest price for")
	cmd.Flags().StringVar(&opts.category, "category", "spot", "spot, linear or inverse")
	cmd.Flags().StringVar(&opts.url, "url", "", "also GET this URL with the configured RETRY_* policy")
	cmd.Flags().BoolVar(&opts.alert, "alert", false, "send the probe result to Telegram")

	return cmd
}

func (a *app) probe(ctx context.Context, opts probeOptions) error {
	client := bybit.NewClient(bybit.Config{
		APIKey:    a.cfg.Exchange.APIKey,
		APISecret: a.cfg.Exchange.Secret,
		Testnet:   a.cfg.Exchange.Testnet,
		Demo:      a.cfg.Exchange.Demo,
	}, bybit.WithStore(a.store), bybit.WithLogger(a.log))

	started := time.Now()
	price, err := client.GetLatestPrice(ctx, opts.category, opts.symbol)
	if err != nil {
		recordProbeError(err)
		return err
	}
	summary := fmt.Sprintf("%s %s on %s: %.8g (%s)", opts.symbol, opts.category,
		client.GetEnvironment(), price, time.Since(started).Round(time.Millisecond))
	fmt.Fprintln(a.out, summary)

	if opts.url != "" {
		status, err := a.fetchURL(ctx, opts.url)
		if err != nil {
			recordProbeError(err)
			return err
		}
		fmt.Fprintf(a.out, "%s: HTTP %d\n", opts.url, status)
	}

	if opts.alert {
		notifier := notifications.NewTelegramNotifier(
			a.cfg.Notifications.TelegramToken,
			a.cfg.Notifications.TelegramChatID,
			notifications.WithNotifierStore(a.store),
			notifications.WithNotifierLogger(a.log),
		)
		if !notifier.Enabled() {
			return fmt.Errorf("--alert needs TELEGRAM_TOKEN and TELEGRAM_CHAT_ID")
		}
		if err := notifier.SendAlert(ctx, notifications.LevelSuccess, summary); err != nil {
			recordProbeError(err)
			return err
		}
		fmt.Fprintln(a.out, "Alert sent")
	}

	return nil
}

// fetchURL GETs url as a checkpointed operation of a stateful client
func (a *app) fetchURL(ctx context.Context, url string) (int, error) {
	client := network.NewStatefulClient(network.ClientConfig{
		Policy: a.retryPolicy(),
		Store:  a.store,
		Logger: a.log,
	})

	httpClient := &http.Client{Timeout: 15 * time.Second}
	get := func(ctx context.Context, args retry.Args) (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.String("url"), nil)
		if err != nil {
			return nil, boterrors.NewValidationError("probe", "GET", err.Error())
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, boterrors.NewNetworkError("probe", "GET", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 500 {
			return nil, boterrors.NewBotError(boterrors.ErrorCategoryNetwork, "probe", "GET",
				fmt.Sprintf("server returned %d", resp.StatusCode))
		}
		return resp.StatusCode, nil
	}

	operation, result, err := client.Execute(ctx, get, retry.NewArgs().With("url", url))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	return result.(int), nil
}

// recordProbeError counts err under its category, guessing one from the message when it carries none
func recordProbeError(err error) boterrors.ErrorCategory {
	category := boterrors.CategorizeError(err, "netstate", "probe").Category
	monitoring.RecordError(string(category))
	return category
}
