package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

// ClientConfig holds the settings shared by every call a Client makes
type ClientConfig struct {
	Policy    retry.Policy
	Retryable retry.RetryableSet
	StateDir  string
	Store     *state.Store
	Logger    logger.Sink
	Clock     retry.Clock
}

// Client runs functions with retry and exposes the state store behind them
type Client struct {
	policy    retry.Policy
	retryable retry.RetryableSet
	store     *state.Store
	logger    logger.Sink
	clock     retry.Clock
}

// NewClient creates a client. Store wins over StateDir; with neither the default store is used.
func NewClient(cfg ClientConfig) *Client {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	store := cfg.Store
	switch {
	case store != nil:
	case cfg.StateDir != "":
		store = state.NewStore(cfg.StateDir, log)
	default:
		store = state.Default()
	}

	policy := cfg.Policy
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}

	retryable := cfg.Retryable
	if retryable == nil {
		retryable = retry.DefaultRetryableErrors()
	}

	return &Client{
		policy:    policy,
		retryable: retryable,
		store:     store,
		logger:    log,
		clock:     cfg.Clock,
	}
}

// Store returns the client's state store
func (c *Client) Store() *state.Store {
	return c.store
}

// ExecuteWithRetry runs fn under the client's policy without checkpointing
func (c *Client) ExecuteWithRetry(ctx context.Context, fn retry.Func, args retry.Args) (interface{}, error) {
	return retry.NewExecutor(fn, c.options("")...).Execute(ctx, args)
}

// ExecuteOperation runs fn under the client's policy, checkpointing every attempt
// under operation and resuming keyword arguments from a previous run.
func (c *Client) ExecuteOperation(ctx context.Context, operation string, fn retry.Func, args retry.Args) (interface{}, error) {
	return retry.NewExecutor(fn, c.options(operation)...).Execute(ctx, args)
}

// GetState returns the saved state of operation, empty when there is none
func (c *Client) GetState(operation string) state.State {
	return c.store.Load(operation)
}

// SaveState writes st for operation as given
func (c *Client) SaveState(operation string, st state.State) bool {
	return c.store.Save(operation, st)
}

// ClearState removes the saved state of operation
func (c *Client) ClearState(operation string) bool {
	return c.store.Clear(operation)
}

func (c *Client) options(operation string) []retry.Option {
	opts := []retry.Option{
		retry.WithPolicy(c.policy),
		retry.WithRetryableErrors(c.retryable),
		retry.WithStore(c.store),
		retry.WithLogger(c.logger),
	}
	if operation != "" {
		opts = append(opts, retry.WithStateFile(operation), retry.WithResume(true))
	}
	if c.clock != nil {
		opts = append(opts, retry.WithClock(c.clock))
	}
	return opts
}

// StatefulClient is a Client that names each checkpointed call operation_1, operation_2, ...
// Counters are per instance.
type StatefulClient struct {
	*Client

	mu      sync.Mutex
	counter int
}

// NewStatefulClient creates a stateful client
func NewStatefulClient(cfg ClientConfig) *StatefulClient {
	return &StatefulClient{Client: NewClient(cfg)}
}

// NextOperationID returns the next sequential operation ID
func (c *StatefulClient) NextOperationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	return fmt.Sprintf("operation_%d", c.counter)
}

// Execute runs fn as a new checkpointed operation and returns the ID it was saved under
func (c *StatefulClient) Execute(ctx context.Context, fn retry.Func, args retry.Args) (string, interface{}, error) {
	operation := c.NextOperationID()
	result, err := c.ExecuteOperation(ctx, operation, fn, args)
	return operation, result, err
}
