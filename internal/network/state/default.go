package state

import (
	"path/filepath"
	"sync"

	"github.com/ducminhle1904/resilient-trader/internal/config"
	"github.com/ducminhle1904/resilient-trader/internal/logger"
)

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// DefaultDir is the state directory used when none was configured
func DefaultDir() string {
	return filepath.Join(config.TradesDir(), config.StateSubdir)
}

// Default returns the process-wide store, creating it on first use.
// Prefer passing a *Store explicitly; this exists for call sites without one.
func Default() *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore == nil {
		defaultStore = NewStore(DefaultDir(), logger.Default())
	}
	return defaultStore
}

// SetDefaultDir points the process-wide store at dir for all later Default calls
func SetDefaultDir(dir string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultStore = NewStore(dir, logger.Default())
}
