package retry

import (
	"fmt"
	"time"
)

// Policy holds the timing parameters of a retried call
type Policy struct {
	MaxRetries    int           `json:"max_retries"`
	BaseDelay     time.Duration `json:"base_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	Jitter        float64       `json:"jitter"`
}

// DefaultPolicy returns the default retry policy
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    5,
		BaseDelay:     time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        0.1,
	}
}

// Validate checks policy values
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive")
	}
	if p.MaxDelay <= 0 {
		return fmt.Errorf("max delay must be positive")
	}
	if p.BackoffFactor <= 0 {
		return fmt.Errorf("backoff factor must be positive")
	}
	if p.Jitter < 0 {
		return fmt.Errorf("jitter must not be negative")
	}
	return nil
}

// PolicyFromConfig overlays a loosely typed config map onto DefaultPolicy.
// Delays are given in seconds; unknown keys are rejected.
func PolicyFromConfig(cfg map[string]interface{}) (Policy, error) {
	p := DefaultPolicy()

	for key, raw := range cfg {
		value, err := toFloat(raw)
		if err != nil {
			return Policy{}, fmt.Errorf("retry config %q: %w", key, err)
		}

		switch key {
		case "max_retries":
			p.MaxRetries = int(value)
		case "base_delay":
			p.BaseDelay = seconds(value)
		case "max_delay":
			p.MaxDelay = seconds(value)
		case "backoff_factor":
			p.BackoffFactor = value
		case "jitter":
			p.Jitter = value
		default:
			return Policy{}, fmt.Errorf("unknown retry config key %q", key)
		}
	}

	return p, p.Validate()
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case time.Duration:
		return n.Seconds(), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
