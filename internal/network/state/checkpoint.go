package state

import (
	"fmt"
	"time"
)

// DefaultDenyList holds keyword argument names that are never written to a checkpoint
var DefaultDenyList = []string{"password"}

// Sanitize stringifies kwargs, dropping every key named in deny (DefaultDenyList when empty).
func Sanitize(kwargs map[string]interface{}, deny []string) map[string]string {
	if len(deny) == 0 {
		deny = DefaultDenyList
	}

	out := make(map[string]string, len(kwargs))
	for k, v := range kwargs {
		if IsDenied(k, deny) {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// IsDenied reports whether key is an exact match for an entry of deny
func IsDenied(key string, deny []string) bool {
	for _, d := range deny {
		if key == d {
			return true
		}
	}
	return false
}

func stringifyArgs(args []interface{}) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = fmt.Sprint(a)
	}
	return out
}

// Attempt is the checkpoint written before each try of a retried call
type Attempt struct {
	Function string
	Attempt  int
	Args     []interface{}
	Kwargs   map[string]interface{}
}

// SaveAttempt writes an attempt checkpoint. Denied kwargs are stripped here;
// the general Save path does not filter.
func (s *Store) SaveAttempt(operation string, a Attempt) bool {
	return s.Save(operation, State{
		"function":     a.Function,
		"status":       StatusStarted,
		"attempt":      a.Attempt,
		"saved_args":   stringifyArgs(a.Args),
		"saved_kwargs": Sanitize(a.Kwargs, nil),
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}

// SaveStart records that function began running under operation
func (s *Store) SaveStart(operation, function string, args []interface{}, kwargs map[string]interface{}) bool {
	return s.Save(operation, State{
		"function":     function,
		"status":       StatusStarted,
		"saved_args":   stringifyArgs(args),
		"saved_kwargs": Sanitize(kwargs, nil),
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}

// SavedKwargs returns the keyword arguments of a previous checkpoint
func (s State) SavedKwargs() map[string]interface{} {
	saved, ok := s["saved_kwargs"].(map[string]interface{})
	if !ok {
		return nil
	}
	return saved
}
