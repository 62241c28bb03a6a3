package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultExportPath returns exports/network_state_<timestamp>.<ext>
func (p *DefaultPathManager) GetDefaultExportPath(ext string, now time.Time) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "xlsx"
	}
	return filepath.Join("exports", fmt.Sprintf("network_state_%s.%s", now.Format("20060102_150405"), ext))
}

// EnsureDirectoryExists creates the parent directory of path if it doesn't exist
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// Package-level convenience function
func DefaultExportPath(ext string) string {
	return NewDefaultPathManager().GetDefaultExportPath(ext, time.Now())
}
