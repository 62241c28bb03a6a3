package bybit

import (
	"context"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/network"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

const (
	component = "bybit"
	demoURL   = "https://api-demo.bybit.com"
)

// marketAPI is the slice of the Bybit SDK the client calls
type marketAPI interface {
	Tickers(ctx context.Context, params map[string]interface{}) (interface{}, error)
	Klines(ctx context.Context, params map[string]interface{}) (interface{}, error)
}

type sdkMarket struct {
	client *bybit_api.Client
}

func (s sdkMarket) Tickers(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return s.client.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
}

func (s sdkMarket) Klines(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return s.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
}

// Client wraps the Bybit API client. Every call runs through the API call
// retry preset and is checkpointed in the state store.
type Client struct {
	market  marketAPI
	testnet bool
	demo    bool

	store  *state.Store
	logger logger.Sink
	clock  retry.Clock
}

// Config holds the configuration for the Bybit client
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool // Demo trading environment
}

// Option configures a Client
type Option func(*Client)

// WithStore sets the store API call checkpoints go to
func WithStore(s *state.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithLogger sets the log sink
func WithLogger(l logger.Sink) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock replaces the clock used between attempts
func WithClock(clock retry.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func withMarket(m marketAPI) Option {
	return func(c *Client) { c.market = m }
}

// NewClient creates a new Bybit client
func NewClient(config Config, opts ...Option) *Client {
	c := &Client{
		market: sdkMarket{client: bybit_api.NewBybitHttpClient(
			config.APIKey,
			config.APISecret,
			bybit_api.WithBaseURL(BaseURL(config)),
		)},
		testnet: config.Testnet,
		demo:    config.Demo,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Default()
	}

	return c
}

// BaseURL returns the REST endpoint for the configured environment
func BaseURL(config Config) string {
	switch {
	case config.Demo:
		return demoURL
	case config.Testnet:
		return bybit_api.TESTNET
	default:
		return bybit_api.MAINNET
	}
}

// IsTestnet returns whether the client is configured for testnet
func (c *Client) IsTestnet() bool {
	return c.testnet
}

// IsDemo returns whether the client is configured for demo trading
func (c *Client) IsDemo() bool {
	return c.demo
}

// GetEnvironment returns a string describing the current environment
func (c *Client) GetEnvironment() string {
	if c.demo {
		return "demo"
	} else if c.testnet {
		return "testnet"
	}
	return "mainnet"
}

func (c *Client) apiCall(operation, name string, fn retry.Func) retry.Func {
	st := network.DefaultStateOptions(operation)
	st.Name = name
	st.Store = c.store
	st.Logger = c.logger

	return network.APICall(fn, network.ComprehensiveOptions{
		State: st,
		Retry: network.RetryOptions{Clock: c.clock},
	})
}
