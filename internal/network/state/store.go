package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/monitoring"
)

// Operation lifecycle values stored under the "status" key
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	fileSuffix = "_state.json"

	// LastUpdatedLayout is the local-time layout of the injected last_updated key
	LastUpdatedLayout = "2006-01-02 15:04:05"
)

// State is the JSON document persisted for one operation
type State map[string]interface{}

// Status returns the "status" value, or "" when absent
func (s State) Status() string {
	status, _ := s["status"].(string)
	return status
}

// Store keeps one JSON state file per operation name under a root directory.
//
// Every public method is best-effort: I/O and encoding failures are logged,
// counted and reported through the return value, never returned as errors.
// There is no file locking; concurrent writers of the same operation are
// last-writer-wins.
type Store struct {
	stateDir string
	logger   logger.Sink

	mu    sync.Mutex
	files map[string]string
}

// NewStore creates a state store rooted at stateDir
func NewStore(stateDir string, log logger.Sink) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		stateDir: stateDir,
		logger:   log,
		files:    make(map[string]string),
	}
}

// Dir returns the root directory of the store
func (s *Store) Dir() string {
	return s.stateDir
}

// Path returns the file an operation's state is written to
func (s *Store) Path(operation string) string {
	return filepath.Join(s.stateDir, operation+fileSuffix)
}

// Save writes state for operation, stamping last_updated. Keys are stored as given.
func (s *Store) Save(operation string, st State) bool {
	payload := make(State, len(st)+1)
	for k, v := range st {
		payload[k] = v
	}
	payload["last_updated"] = time.Now().Format(LastUpdatedLayout)

	if err := s.write(operation, payload); err != nil {
		s.logger.Error("Failed to save state for %s: %v", operation, err)
		monitoring.RecordStateError("save")
		return false
	}
	return true
}

func (s *Store) write(operation string, payload State) error {
	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	stateFile := s.Path(operation)
	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tempFile, stateFile); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to move state file: %w", err)
	}

	s.mu.Lock()
	s.files[operation] = stateFile
	s.mu.Unlock()

	return nil
}

// Load returns the saved state, or an empty State when missing or unreadable
func (s *Store) Load(operation string) State {
	stateFile := s.Path(operation)

	data, err := os.ReadFile(stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to read state file %s: %v", stateFile, err)
			monitoring.RecordStateError("load")
		}
		return State{}
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Error("Failed to parse state file %s: %v", stateFile, err)
		monitoring.RecordStateError("load")
		return State{}
	}
	if st == nil {
		return State{}
	}

	return st
}

// Status returns the saved status of operation, or ""
func (s *Store) Status(operation string) string {
	return s.Load(operation).Status()
}

// Clear deletes the operation's state file. Returns false when it did not exist.
func (s *Store) Clear(operation string) bool {
	stateFile := s.Path(operation)

	s.mu.Lock()
	delete(s.files, operation)
	s.mu.Unlock()

	if err := os.Remove(stateFile); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to clear state for %s: %v", operation, err)
			monitoring.RecordStateError("clear")
		}
		return false
	}

	s.logger.Info("State cleared for %s", operation)
	return true
}

// TrackedFiles returns the files written through this store instance
func (s *Store) TrackedFiles() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]string, len(s.files))
	for op, path := range s.files {
		result[op] = path
	}
	return result
}

// ListOperations returns the operation names found on disk, sorted
func (s *Store) ListOperations() []string {
	entries, err := os.ReadDir(s.stateDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to list state directory %s: %v", s.stateDir, err)
			monitoring.RecordStateError("list")
		}
		return []string{}
	}

	ops := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		op := strings.TrimSuffix(name, fileSuffix)
		if op == "" {
			continue
		}
		ops = append(ops, op)
	}
	sort.Strings(ops)

	return ops
}

// CleanupOlderThan removes state files whose modification time is older than maxAge
func (s *Store) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, op := range s.ListOperations() {
		stateFile := s.Path(op)
		info, err := os.Stat(stateFile)
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(stateFile); err != nil {
			s.logger.Error("Failed to remove stale state file %s: %v", stateFile, err)
			monitoring.RecordStateError("cleanup")
			continue
		}
		s.mu.Lock()
		delete(s.files, op)
		s.mu.Unlock()
		removed++
	}

	if removed > 0 {
		s.logger.Info("Removed %d state files older than %s", removed, maxAge)
	}
	return removed
}

// CleanupOlderThanDays is CleanupOlderThan in whole days
func (s *Store) CleanupOlderThanDays(days int) int {
	return s.CleanupOlderThan(time.Duration(days) * 24 * time.Hour)
}
