package retry

import (
	"context"
	"errors"
	"time"

	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/monitoring"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

// Executor runs a Func up to MaxRetries+1 times, sleeping a backoff delay
// before every attempt after the first and optionally checkpointing each
// attempt to a state file.
type Executor struct {
	fn        Func
	name      string
	policy    Policy
	retryable RetryableSet
	stateFile string
	resume    bool
	store     *state.Store
	logger    logger.Sink
	clock     Clock
	rnd       func() float64
}

// Option configures an Executor
type Option func(*Executor)

// WithPolicy sets the retry timing policy
func WithPolicy(p Policy) Option {
	return func(e *Executor) { e.policy = p }
}

// WithRetryableErrors sets which errors are retried
func WithRetryableErrors(set RetryableSet) Option {
	return func(e *Executor) { e.retryable = set }
}

// WithStateFile enables checkpointing under the given operation name
func WithStateFile(operation string) Option {
	return func(e *Executor) { e.stateFile = operation }
}

// WithResume merges keyword arguments from an existing checkpoint into the call
func WithResume(resume bool) Option {
	return func(e *Executor) { e.resume = resume }
}

// WithStore sets the state store; state.Default() is used otherwise
func WithStore(s *state.Store) Option {
	return func(e *Executor) { e.store = s }
}

// WithLogger sets the log sink
func WithLogger(l logger.Sink) Option {
	return func(e *Executor) { e.logger = l }
}

// WithClock replaces the clock used for sleeping between attempts
func WithClock(c Clock) Option {
	return func(e *Executor) { e.clock = c }
}

// WithRandom replaces the uniform [0, 1) source used for jitter
func WithRandom(rnd func() float64) Option {
	return func(e *Executor) { e.rnd = rnd }
}

// WithName overrides the function name used in logs, metrics and checkpoints
func WithName(name string) Option {
	return func(e *Executor) { e.name = name }
}

// NewExecutor creates an executor for fn
func NewExecutor(fn Func, opts ...Option) *Executor {
	e := &Executor{
		fn:        fn,
		policy:    DefaultPolicy(),
		retryable: DefaultRetryableErrors(),
		clock:     SystemClock(),
		rnd:       randFloat,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.name == "" {
		e.name = FuncName(fn)
	}
	if e.logger == nil {
		e.logger = logger.Default()
	}
	if e.stateFile != "" && e.store == nil {
		e.store = state.Default()
	}

	return e
}

// Policy returns the policy in effect
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute runs the function. On final failure the error returned is exactly
// the one the function returned, unless ctx ended while waiting to retry.
func (e *Executor) Execute(ctx context.Context, args Args) (interface{}, error) {
	args = args.Clone()
	if e.stateFile != "" && e.resume {
		args = e.resumeArgs(args)
	}

	maxAttempts := e.policy.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := Delay(attempt-1, e.policy, e.rnd)
			monitoring.ObserveRetryDelay(e.name, delay)

			if err := e.clock.Sleep(ctx, delay); err != nil {
				e.logger.Warning("%s: retry cancelled before attempt %d/%d: %v", e.name, attempt, maxAttempts, err)
				e.saveFailed(attempt-1, lastErr)
				monitoring.RecordOutcome(e.name, monitoring.OutcomeCancelled)
				return nil, err
			}
		}

		e.saveAttempt(attempt, args)
		monitoring.RecordAttempt(e.name)

		result, err := e.fn(ctx, args)
		if err == nil {
			if attempt > 1 {
				e.logger.Info("%s succeeded on attempt %d/%d", e.name, attempt, maxAttempts)
			}
			e.saveCompleted(attempt)
			monitoring.RecordOutcome(e.name, monitoring.OutcomeSuccess)
			return result, nil
		}
		lastErr = err

		if !e.retryable.Contains(err) {
			e.logger.Error("%s failed with non-retryable error on attempt %d/%d: %v", e.name, attempt, maxAttempts, err)
			e.saveFailed(attempt, err)
			monitoring.RecordOutcome(e.name, monitoring.OutcomeNonRetryable)
			return nil, err
		}

		if attempt < maxAttempts {
			e.logger.Warning("%s attempt %d/%d failed: %v, retrying", e.name, attempt, maxAttempts, err)
		}
	}

	e.logger.Error("%s failed after %d attempts: %v", e.name, maxAttempts, lastErr)
	e.saveFailed(maxAttempts, lastErr)
	monitoring.RecordOutcome(e.name, monitoring.OutcomeExhausted)

	return nil, lastErr
}

// resumeArgs fills keyword arguments missing from args with those of the
// previous checkpoint. Saved values come back as strings.
func (e *Executor) resumeArgs(args Args) Args {
	previous := e.store.Load(e.stateFile)
	saved := previous.SavedKwargs()
	if len(saved) == 0 {
		return args
	}

	merged := 0
	for k, v := range saved {
		if state.IsDenied(k, state.DefaultDenyList) {
			continue
		}
		if _, exists := args.Keyword[k]; exists {
			continue
		}
		args.Keyword[k] = v
		merged++
	}

	if merged > 0 {
		e.logger.Info("%s: resumed %d keyword arguments from %s (last status %q)",
			e.name, merged, e.stateFile, previous.Status())
	}
	return args
}

func (e *Executor) saveAttempt(attempt int, args Args) {
	if e.stateFile == "" {
		return
	}
	e.store.SaveAttempt(e.stateFile, state.Attempt{
		Function: e.name,
		Attempt:  attempt,
		Args:     args.Positional,
		Kwargs:   args.Keyword,
	})
}

func (e *Executor) saveCompleted(attempts int) {
	if e.stateFile == "" {
		return
	}
	e.store.Save(e.stateFile, state.State{
		"function":  e.name,
		"status":    state.StatusCompleted,
		"attempts":  attempts,
		"timestamp": e.clock.Now().Format(time.RFC3339),
	})
}

func (e *Executor) saveFailed(attempts int, err error) {
	if e.stateFile == "" {
		return
	}
	message := ""
	if err != nil {
		message = err.Error()
	}
	e.store.Save(e.stateFile, state.State{
		"function":  e.name,
		"status":    state.StatusFailed,
		"error":     message,
		"attempts":  attempts,
		"timestamp": e.clock.Now().Format(time.RFC3339),
	})
}

// Do runs fn through a new Executor and returns its typed result
func Do[T any](ctx context.Context, fn func(ctx context.Context, args Args) (T, error), args Args, opts ...Option) (T, error) {
	opts = append([]Option{WithName(FuncName(fn))}, opts...)
	raw, err := NewExecutor(func(ctx context.Context, args Args) (interface{}, error) {
		return fn(ctx, args)
	}, opts...).Execute(ctx, args)

	var result T
	if err != nil {
		return result, err
	}
	if v, ok := raw.(T); ok {
		result = v
	}
	return result, nil
}

// IsCancelled reports whether err came from the context rather than the function
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
