package retry

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

var (
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// randFloat returns a uniform value in [0, 1) from the shared source
func randFloat() float64 {
	randMu.Lock()
	defer randMu.Unlock()
	return randSource.Float64()
}

// CalculateDelay returns the backoff delay to sleep before retry number attempt (1-based).
func CalculateDelay(attempt int, p Policy) time.Duration {
	return Delay(attempt, p, randFloat)
}

// Delay is CalculateDelay with an explicit uniform [0, 1) source.
//
// raw = min(MaxDelay, BaseDelay * BackoffFactor^(attempt-1)), then a uniform
// draw from [raw*(1-Jitter), raw*(1+Jitter)], clamped at zero.
func Delay(attempt int, p Policy, rnd func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	raw := float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if raw > float64(p.MaxDelay) || math.IsNaN(raw) {
		raw = float64(p.MaxDelay)
	}

	if p.Jitter <= 0 {
		return time.Duration(raw)
	}

	low := raw * (1 - p.Jitter)
	high := raw * (1 + p.Jitter)
	delay := low + rnd()*(high-low)
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}
