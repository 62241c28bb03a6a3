package reporting

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteStatesCSV writes rows to path. A .xlsx path is delegated to the Excel writer.
func (r *DefaultCSVReporter) WriteStatesCSV(rows []StateRow, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteStatesXLSX(rows, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Operation", "Function", "Status", "Attempt", "Last_Updated", "Modified", "Error"}); err != nil {
		return err
	}

	for _, row := range rows {
		modified := ""
		if !row.Modified.IsZero() {
			modified = row.Modified.Format(time.RFC3339)
		}
		if err := w.Write([]string{
			row.Operation,
			row.Function,
			row.Status,
			strconv.Itoa(row.Attempt),
			row.LastUpdated,
			modified,
			row.Error,
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// Package-level convenience function
func WriteStatesCSV(rows []StateRow, path string) error {
	return NewDefaultCSVReporter().WriteStatesCSV(rows, path)
}
