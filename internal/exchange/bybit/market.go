package bybit

import (
	"context"
	"errors"
	"fmt"
	"time"

	boterrors "github.com/ducminhle1904/resilient-trader/internal/errors"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
)

// KlineInterval represents the time interval for kline data
type KlineInterval string

const (
	Interval1m  KlineInterval = "1"
	Interval5m  KlineInterval = "5"
	Interval15m KlineInterval = "15"
	Interval1h  KlineInterval = "60"
	Interval4h  KlineInterval = "240"
	Interval1d  KlineInterval = "D"
)

// Kline represents a single kline/candlestick data point
type Kline struct {
	StartTime  time.Time
	OpenPrice  float64
	HighPrice  float64
	LowPrice   float64
	ClosePrice float64
	Volume     float64
	Turnover   float64
}

// KlineParams holds parameters for fetching kline data
type KlineParams struct {
	Category string        // "spot", "linear", "inverse"
	Symbol   string        // Trading pair symbol (e.g., "BTCUSDT")
	Interval KlineInterval // Time interval
	Limit    int           // Number of records to return (max 1000, default 200)
}

// GetLatestPrice gets the latest price for a symbol
func (c *Client) GetLatestPrice(ctx context.Context, category, symbol string) (float64, error) {
	if category == "" {
		category = "spot"
	}

	call := c.apiCall("bybit_latest_price_"+symbol, "bybit.GetLatestPrice", c.fetchLatestPrice)
	result, err := call(ctx, retry.NewArgs().With("category", category).With("symbol", symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to get latest price: %w", err)
	}

	return result.(float64), nil
}

func (c *Client) fetchLatestPrice(ctx context.Context, args retry.Args) (interface{}, error) {
	const operation = "GetMarketTickers"

	response, err := c.market.Tickers(ctx, map[string]interface{}{
		"category": args.String("category"),
		"symbol":   args.String("symbol"),
	})
	if err != nil {
		return nil, classify(operation, err)
	}

	var tickers tickerResult
	if err := decodeResult(response, &tickers); err != nil {
		return nil, responseError(operation, err)
	}
	if len(tickers.List) == 0 {
		return nil, boterrors.NewValidationError(component, operation, "no ticker data found for "+args.String("symbol"))
	}

	return parseFloat64(tickers.List[0].LastPrice), nil
}

// GetKlines fetches kline/candlestick data from Bybit
func (c *Client) GetKlines(ctx context.Context, params KlineParams) ([]Kline, error) {
	if params.Category == "" {
		params.Category = "spot"
	}
	if params.Limit == 0 {
		params.Limit = 200
	}
	if params.Limit > 1000 {
		params.Limit = 1000
	}

	args := retry.NewArgs().
		With("category", params.Category).
		With("symbol", params.Symbol).
		With("interval", string(params.Interval)).
		With("limit", params.Limit)

	operation := fmt.Sprintf("bybit_klines_%s_%s", params.Symbol, params.Interval)
	result, err := c.apiCall(operation, "bybit.GetKlines", c.fetchKlines)(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	return result.([]Kline), nil
}

func (c *Client) fetchKlines(ctx context.Context, args retry.Args) (interface{}, error) {
	const operation = "GetMarketKline"

	limit, _ := args.Keyword["limit"].(int)
	response, err := c.market.Klines(ctx, map[string]interface{}{
		"category": args.String("category"),
		"symbol":   args.String("symbol"),
		"interval": args.String("interval"),
		"limit":    limit,
	})
	if err != nil {
		return nil, classify(operation, err)
	}

	var result klineResult
	if err := decodeResult(response, &result); err != nil {
		return nil, responseError(operation, err)
	}

	klines := make([]Kline, 0, len(result.List))
	for _, item := range result.List {
		if len(item) < 7 {
			continue
		}

		// [startTime, openPrice, highPrice, lowPrice, closePrice, volume, turnover]
		klines = append(klines, Kline{
			StartTime:  parseMillis(item[0]),
			OpenPrice:  parseFloat64(item[1]),
			HighPrice:  parseFloat64(item[2]),
			LowPrice:   parseFloat64(item[3]),
			ClosePrice: parseFloat64(item[4]),
			Volume:     parseFloat64(item[5]),
			Turnover:   parseFloat64(item[6]),
		})
	}

	return klines, nil
}

// responseError classifies a failure to read a response. API codes go through
// classify; a malformed envelope is not retried.
func responseError(operation string, err error) error {
	var bybitErr *BybitError
	if errors.As(err, &bybitErr) {
		return classify(operation, err)
	}
	return boterrors.NewExchangeError(component, operation, err)
}
