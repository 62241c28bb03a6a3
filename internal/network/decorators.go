package network

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

const (
	// DefaultClearDelay is how long a completed operation's state is kept before auto-clear
	DefaultClearDelay = 5 * time.Second

	maxResultSummary = 200
)

// RetryOptions configures WithRetry. A zero Policy means retry.DefaultPolicy().
type RetryOptions struct {
	Policy    retry.Policy
	Retryable retry.RetryableSet
	StateFile string
	Resume    bool
	Name      string
	Store     *state.Store
	Logger    logger.Sink
	Clock     retry.Clock
}

// StateOptions configures WithState. Operation defaults to the function name.
type StateOptions struct {
	Operation  string
	AutoSave   bool
	AutoClear  bool
	ClearDelay time.Duration
	Name       string
	Store      *state.Store
	Logger     logger.Sink
}

// ComprehensiveOptions configures both stages of Comprehensive
type ComprehensiveOptions struct {
	State StateOptions
	Retry RetryOptions
}

// DefaultStateOptions records every lifecycle step of operation and clears it shortly after success
func DefaultStateOptions(operation string) StateOptions {
	return StateOptions{
		Operation:  operation,
		AutoSave:   true,
		AutoClear:  true,
		ClearDelay: DefaultClearDelay,
	}
}

// WithRetry wraps fn so each call runs through a retry.Executor
func WithRetry(fn retry.Func, opts RetryOptions) retry.Func {
	name := opts.Name
	if name == "" {
		name = retry.FuncName(fn)
	}

	policy := opts.Policy
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}

	execOpts := []retry.Option{
		retry.WithName(name),
		retry.WithPolicy(policy),
	}
	if opts.Retryable != nil {
		execOpts = append(execOpts, retry.WithRetryableErrors(opts.Retryable))
	}
	if opts.StateFile != "" {
		execOpts = append(execOpts, retry.WithStateFile(opts.StateFile), retry.WithResume(opts.Resume))
	}
	if opts.Store != nil {
		execOpts = append(execOpts, retry.WithStore(opts.Store))
	}
	if opts.Logger != nil {
		execOpts = append(execOpts, retry.WithLogger(opts.Logger))
	}
	if opts.Clock != nil {
		execOpts = append(execOpts, retry.WithClock(opts.Clock))
	}

	return func(ctx context.Context, args retry.Args) (interface{}, error) {
		return retry.NewExecutor(fn, execOpts...).Execute(ctx, args)
	}
}

// WithState wraps fn so its lifecycle is recorded under an operation name.
// Started, completed and failed records are all written only with AutoSave.
// Errors from fn are returned unchanged.
func WithState(fn retry.Func, opts StateOptions) retry.Func {
	name := opts.Name
	if name == "" {
		name = retry.FuncName(fn)
	}
	operation := opts.Operation
	if operation == "" {
		operation = name
	}
	clearDelay := opts.ClearDelay
	if clearDelay <= 0 {
		clearDelay = DefaultClearDelay
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	return func(ctx context.Context, args retry.Args) (interface{}, error) {
		store := opts.Store
		if store == nil {
			store = state.Default()
		}

		if opts.AutoSave {
			store.SaveStart(operation, name, args.Positional, args.Keyword)
		}

		result, err := fn(ctx, args)
		if err != nil {
			if !opts.AutoSave {
				return nil, err
			}
			store.Save(operation, state.State{
				"function":  name,
				"status":    state.StatusFailed,
				"error":     err.Error(),
				"timestamp": time.Now().Format(time.RFC3339),
			})
			return nil, err
		}

		if opts.AutoSave {
			store.Save(operation, state.State{
				"function":       name,
				"status":         state.StatusCompleted,
				"result_summary": summarize(result),
				"timestamp":      time.Now().Format(time.RFC3339),
			})
		}
		if opts.AutoClear {
			scheduleClear(store, operation, clearDelay, log)
		}

		return result, nil
	}
}

// Comprehensive records state around every attempt and retries the whole.
// State management is the inner stage, retry the outer one.
func Comprehensive(fn retry.Func, opts ComprehensiveOptions) retry.Func {
	if opts.State.Name == "" {
		opts.State.Name = retry.FuncName(fn)
	}
	if opts.Retry.Name == "" {
		opts.Retry.Name = opts.State.Name
	}
	if opts.Retry.Store == nil {
		opts.Retry.Store = opts.State.Store
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = opts.State.Logger
	}

	return WithRetry(WithState(fn, opts.State), opts.Retry)
}

// scheduleClear removes the operation's state after delay on a detached timer.
// Nothing is returned to the caller; a panic in the cleanup is logged and dropped.
func scheduleClear(store *state.Store, operation string, delay time.Duration, log logger.Sink) {
	time.AfterFunc(delay, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warning("State cleanup for %s panicked: %v", operation, r)
			}
		}()
		store.Clear(operation)
	})
}

func summarize(result interface{}) string {
	s := fmt.Sprint(result)
	if utf8.RuneCountInString(s) <= maxResultSummary {
		return s
	}
	return string([]rune(s)[:maxResultSummary])
}
