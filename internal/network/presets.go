package network

import (
	"time"

	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
)

// NetworkRequestPolicy suits short requests to third-party endpoints
func NetworkRequestPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = 3
	p.BaseDelay = time.Second
	return p
}

// APICallPolicy suits exchange REST calls, which are rate limited and slower to recover
func APICallPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = 5
	p.BaseDelay = 2 * time.Second
	p.MaxDelay = 120 * time.Second
	return p
}

// CriticalOperationPolicy retries long with a gentler backoff
func CriticalOperationPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = 10
	p.BaseDelay = time.Second
	p.MaxDelay = 300 * time.Second
	p.BackoffFactor = 1.5
	return p
}

// NetworkRequest wraps fn with state management and NetworkRequestPolicy
func NetworkRequest(fn retry.Func, opts ComprehensiveOptions) retry.Func {
	return preset(fn, NetworkRequestPolicy(), opts)
}

// APICall wraps fn with state management and APICallPolicy
func APICall(fn retry.Func, opts ComprehensiveOptions) retry.Func {
	return preset(fn, APICallPolicy(), opts)
}

// CriticalOperation wraps fn with state management and CriticalOperationPolicy
func CriticalOperation(fn retry.Func, opts ComprehensiveOptions) retry.Func {
	return preset(fn, CriticalOperationPolicy(), opts)
}

func preset(fn retry.Func, policy retry.Policy, opts ComprehensiveOptions) retry.Func {
	opts.Retry.Policy = policy
	opts.Retry.Retryable = retry.DefaultRetryableErrors()
	return Comprehensive(fn, opts)
}
