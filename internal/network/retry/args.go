package retry

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// Args carries the positional and keyword arguments of one call.
// Keyword arguments are what checkpoints save and what resumption merges back.
type Args struct {
	Positional []interface{}
	Keyword    map[string]interface{}
}

// NewArgs builds Args from positional values
func NewArgs(positional ...interface{}) Args {
	return Args{Positional: positional, Keyword: map[string]interface{}{}}
}

// With returns a copy of a with key set
func (a Args) With(key string, value interface{}) Args {
	c := a.Clone()
	c.Keyword[key] = value
	return c
}

// Get returns a keyword argument
func (a Args) Get(key string) (interface{}, bool) {
	v, ok := a.Keyword[key]
	return v, ok
}

// String returns a keyword argument as a string, or "" when absent or not a string
func (a Args) String(key string) string {
	s, _ := a.Keyword[key].(string)
	return s
}

// Clone copies the argument slices so callees can't alias the caller's
func (a Args) Clone() Args {
	c := Args{
		Positional: append([]interface{}(nil), a.Positional...),
		Keyword:    make(map[string]interface{}, len(a.Keyword)),
	}
	for k, v := range a.Keyword {
		c.Keyword[k] = v
	}
	return c
}

// Func is the call shape the executor and the network wrappers drive
type Func func(ctx context.Context, args Args) (interface{}, error)

// FuncName returns a short printable name for fn, e.g. "bybit.(*Client).fetchTicker-fm"
func FuncName(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "unknown"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
