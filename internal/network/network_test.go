package network

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *countingClock) Now() time.Time { return time.Now() }

func (c *countingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	return ctx.Err()
}

func (c *countingClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

var errReset = &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}

func flaky(failures int, err error, result interface{}) (retry.Func, *int) {
	calls := 0
	return func(ctx context.Context, args retry.Args) (interface{}, error) {
		calls++
		if calls <= failures {
			return nil, err
		}
		return result, nil
	}, &calls
}

func testStore(t *testing.T) *state.Store {
	t.Helper()
	return state.NewStore(t.TempDir(), logger.Nop())
}

func TestWithState_RecordsCompleted(t *testing.T) {
	store := testStore(t)
	var during state.State

	fn := WithState(func(ctx context.Context, args retry.Args) (interface{}, error) {
		during = store.Load("fetch_balance")
		return strings.Repeat("x", 500), nil
	}, StateOptions{
		Operation: "fetch_balance",
		Name:      "fetchBalance",
		AutoSave:  true,
		Store:     store,
		Logger:    logger.Nop(),
	})

	result, err := fn(context.Background(), retry.NewArgs("USDT").With("password", "hunter2"))
	require.NoError(t, err)
	assert.Len(t, result, 500)

	assert.Equal(t, state.StatusStarted, during["status"])
	assert.Equal(t, "fetchBalance", during["function"])
	assert.NotContains(t, during.SavedKwargs(), "password")

	saved := store.Load("fetch_balance")
	assert.Equal(t, state.StatusCompleted, saved["status"])
	assert.Len(t, saved["result_summary"], 200)
}

func TestWithState_RecordsFailureAndReturnsSameError(t *testing.T) {
	store := testStore(t)
	boom := errors.New("order rejected")
	fn, _ := flaky(1, boom, nil)

	_, err := WithState(fn, StateOptions{Operation: "place", AutoSave: true, Store: store, Logger: logger.Nop()})(
		context.Background(), retry.NewArgs())

	assert.Same(t, boom, err)
	saved := store.Load("place")
	assert.Equal(t, state.StatusFailed, saved["status"])
	assert.Equal(t, "order rejected", saved["error"])
}

func TestWithState_NoAutoSaveWritesNothingOnSuccess(t *testing.T) {
	store := testStore(t)
	fn, _ := flaky(0, nil, "ok")

	_, err := WithState(fn, StateOptions{Operation: "quiet", Store: store, Logger: logger.Nop()})(
		context.Background(), retry.NewArgs())

	require.NoError(t, err)
	assert.Empty(t, store.ListOperations())
}

func TestWithState_NoAutoSaveWritesNothingOnFailure(t *testing.T) {
	store := testStore(t)
	boom := errors.New("order rejected")
	fn, _ := flaky(1, boom, nil)

	_, err := WithState(fn, StateOptions{Operation: "quiet", Store: store, Logger: logger.Nop()})(
		context.Background(), retry.NewArgs())

	assert.Same(t, boom, err)
	assert.Empty(t, store.ListOperations())
}

func TestWithState_AutoClear(t *testing.T) {
	store := testStore(t)
	fn, _ := flaky(0, nil, "ok")

	opts := DefaultStateOptions("ephemeral")
	opts.ClearDelay = 20 * time.Millisecond
	opts.Store = store
	opts.Logger = logger.Nop()

	_, err := WithState(fn, opts)(context.Background(), retry.NewArgs())
	require.NoError(t, err)

	_, statErr := os.Stat(store.Path("ephemeral"))
	require.NoError(t, statErr, "state should exist until the clear delay passes")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(store.Path("ephemeral"))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWithState_OperationDefaultsToName(t *testing.T) {
	store := testStore(t)
	fn, _ := flaky(0, nil, 1)

	_, err := WithState(fn, StateOptions{Name: "sync_positions", AutoSave: true, Store: store, Logger: logger.Nop()})(
		context.Background(), retry.NewArgs())

	require.NoError(t, err)
	assert.Equal(t, []string{"sync_positions"}, store.ListOperations())
}

func TestWithRetry_RetriesRetryableErrors(t *testing.T) {
	clock := &countingClock{}
	fn, calls := flaky(2, errReset, "pong")

	result, err := WithRetry(fn, RetryOptions{
		Policy: retry.Policy{MaxRetries: 2, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2},
		Clock:  clock,
		Logger: logger.Nop(),
	})(context.Background(), retry.NewArgs())

	require.NoError(t, err)
	assert.Equal(t, "pong", result)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, 2, clock.count())
}

func TestWithRetry_ZeroPolicyUsesDefault(t *testing.T) {
	clock := &countingClock{}
	fn, calls := flaky(100, errReset, nil)

	_, err := WithRetry(fn, RetryOptions{Clock: clock, Logger: logger.Nop()})(context.Background(), retry.NewArgs())

	assert.Same(t, errReset, err)
	assert.Equal(t, retry.DefaultPolicy().MaxRetries+1, *calls)
}

func TestComprehensive_StateInsideRetry(t *testing.T) {
	store := testStore(t)
	clock := &countingClock{}
	fn, calls := flaky(1, errReset, "filled")

	var statuses []string
	observed := func(ctx context.Context, args retry.Args) (interface{}, error) {
		if *calls > 0 {
			statuses = append(statuses, store.Status("order_sync"))
		}
		return fn(ctx, args)
	}

	opts := ComprehensiveOptions{
		State: StateOptions{Operation: "order_sync", AutoSave: true, Store: store, Logger: logger.Nop()},
		Retry: RetryOptions{
			Policy: retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2},
			Clock:  clock,
		},
	}

	result, err := Comprehensive(observed, opts)(context.Background(), retry.NewArgs())
	require.NoError(t, err)
	assert.Equal(t, "filled", result)
	assert.Equal(t, 2, *calls)
	assert.Equal(t, 1, clock.count())

	// The second attempt started over the failure the inner stage recorded.
	assert.Equal(t, []string{state.StatusStarted}, statuses)
	assert.Equal(t, state.StatusCompleted, store.Status("order_sync"))
}

func TestComprehensive_SuccessAfterRetryNeverLeftFailed(t *testing.T) {
	for _, autoSave := range []bool{true, false} {
		store := testStore(t)
		fn, calls := flaky(1, errReset, "sent")

		_, err := Comprehensive(fn, ComprehensiveOptions{
			State: StateOptions{Operation: "send", AutoSave: autoSave, Store: store, Logger: logger.Nop()},
			Retry: RetryOptions{
				Policy: retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2},
				Clock:  &countingClock{},
			},
		})(context.Background(), retry.NewArgs())

		require.NoError(t, err)
		assert.Equal(t, 2, *calls)
		assert.NotEqual(t, state.StatusFailed, store.Status("send"), "autoSave=%v", autoSave)
		if autoSave {
			assert.Equal(t, state.StatusCompleted, store.Status("send"))
		} else {
			assert.Empty(t, store.ListOperations())
		}
	}
}

func TestPresetPolicies(t *testing.T) {
	network := NetworkRequestPolicy()
	assert.Equal(t, 3, network.MaxRetries)
	assert.Equal(t, time.Second, network.BaseDelay)
	assert.Equal(t, 60*time.Second, network.MaxDelay)

	api := APICallPolicy()
	assert.Equal(t, 5, api.MaxRetries)
	assert.Equal(t, 2*time.Second, api.BaseDelay)
	assert.Equal(t, 120*time.Second, api.MaxDelay)
	assert.Equal(t, 2.0, api.BackoffFactor)

	critical := CriticalOperationPolicy()
	assert.Equal(t, 10, critical.MaxRetries)
	assert.Equal(t, time.Second, critical.BaseDelay)
	assert.Equal(t, 300*time.Second, critical.MaxDelay)
	assert.Equal(t, 1.5, critical.BackoffFactor)

	for _, p := range []retry.Policy{network, api, critical} {
		assert.NoError(t, p.Validate())
	}
}

func TestPresets_AttemptCounts(t *testing.T) {
	tests := []struct {
		name   string
		wrap   func(retry.Func, ComprehensiveOptions) retry.Func
		policy retry.Policy
	}{
		{"network_request", NetworkRequest, NetworkRequestPolicy()},
		{"api_call", APICall, APICallPolicy()},
		{"critical_operation", CriticalOperation, CriticalOperationPolicy()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testStore(t)
			clock := &countingClock{}
			fn, calls := flaky(1000, errReset, nil)

			opts := ComprehensiveOptions{
				State: StateOptions{Operation: tt.name, AutoSave: true, Store: store, Logger: logger.Nop()},
				Retry: RetryOptions{Clock: clock},
			}
			_, err := tt.wrap(fn, opts)(context.Background(), retry.NewArgs())

			assert.Same(t, errReset, err)
			assert.Equal(t, tt.policy.MaxRetries+1, *calls)
			assert.Equal(t, tt.policy.MaxRetries, clock.count())
			assert.Equal(t, state.StatusFailed, store.Status(tt.name))
		})
	}
}

func TestPresets_NonRetryableNotRetried(t *testing.T) {
	clock := &countingClock{}
	fn, calls := flaky(1000, errors.New("invalid symbol"), nil)

	_, err := APICall(fn, ComprehensiveOptions{
		State: StateOptions{Operation: "ticker", Store: testStore(t), Logger: logger.Nop()},
		Retry: RetryOptions{Clock: clock},
	})(context.Background(), retry.NewArgs())

	assert.EqualError(t, err, "invalid symbol")
	assert.Equal(t, 1, *calls)
	assert.Zero(t, clock.count())
}

func TestClient_StateMethods(t *testing.T) {
	client := NewClient(ClientConfig{StateDir: t.TempDir(), Logger: logger.Nop()})

	assert.Empty(t, client.GetState("missing"))
	require.True(t, client.SaveState("manual", state.State{"function": "f", "status": "started", "password": "kept"}))

	saved := client.GetState("manual")
	assert.Equal(t, "started", saved["status"])
	assert.Equal(t, "kept", saved["password"])
	assert.NotEmpty(t, saved["last_updated"])

	assert.True(t, client.ClearState("manual"))
	assert.False(t, client.ClearState("manual"))
	assert.Empty(t, client.GetState("manual"))
}

func TestClient_ExecuteWithRetry(t *testing.T) {
	clock := &countingClock{}
	client := NewClient(ClientConfig{
		Policy: retry.Policy{MaxRetries: 2, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2},
		Store:  testStore(t),
		Logger: logger.Nop(),
		Clock:  clock,
	})

	fn, calls := flaky(2, errReset, "ok")
	result, err := client.ExecuteWithRetry(context.Background(), fn, retry.NewArgs())
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, *calls)
	assert.Empty(t, client.Store().ListOperations())

	always, calls := flaky(100, errReset, nil)
	_, err = client.ExecuteWithRetry(context.Background(), always, retry.NewArgs())
	assert.Same(t, errReset, err)
	assert.Equal(t, 3, *calls)
}

func TestClient_ExecuteOperationResumes(t *testing.T) {
	store := testStore(t)
	client := NewClient(ClientConfig{Store: store, Logger: logger.Nop(), Clock: &countingClock{}})

	require.True(t, store.SaveStart("withdraw", "withdraw", nil, map[string]interface{}{"address": "0xabc", "password": "pw"}))

	var got retry.Args
	_, err := client.ExecuteOperation(context.Background(), "withdraw", func(ctx context.Context, args retry.Args) (interface{}, error) {
		got = args
		return "tx", nil
	}, retry.NewArgs().With("amount", 5))
	require.NoError(t, err)

	assert.Equal(t, "0xabc", got.String("address"))
	assert.Equal(t, 5, got.Keyword["amount"])
	assert.NotContains(t, got.Keyword, "password")
	assert.Equal(t, state.StatusCompleted, store.Status("withdraw"))
}

func TestStatefulClient_SequentialIDs(t *testing.T) {
	client := NewStatefulClient(ClientConfig{Store: testStore(t), Logger: logger.Nop()})
	other := NewStatefulClient(ClientConfig{Store: testStore(t), Logger: logger.Nop()})

	assert.Equal(t, "operation_1", client.NextOperationID())
	assert.Equal(t, "operation_2", client.NextOperationID())
	assert.Equal(t, "operation_1", other.NextOperationID())
}

func TestStatefulClient_ConcurrentIDsUnique(t *testing.T) {
	client := NewStatefulClient(ClientConfig{Store: testStore(t), Logger: logger.Nop()})

	var wg sync.WaitGroup
	ids := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- client.NextOperationID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}

func TestStatefulClient_Execute(t *testing.T) {
	store := testStore(t)
	client := NewStatefulClient(ClientConfig{Store: store, Logger: logger.Nop(), Clock: &countingClock{}})
	fn, _ := flaky(0, nil, "done")

	id, result, err := client.Execute(context.Background(), fn, retry.NewArgs())
	require.NoError(t, err)
	assert.Equal(t, "operation_1", id)
	assert.Equal(t, "done", result)
	assert.Equal(t, state.StatusCompleted, store.Status("operation_1"))
}
