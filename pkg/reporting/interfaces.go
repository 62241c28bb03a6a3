// Package reporting renders the contents of a network state directory
package reporting

import (
	"io"
	"os"
	"time"

	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

// StateSource is the read side of a state store
type StateSource interface {
	ListOperations() []string
	Load(operation string) state.State
	Path(operation string) string
}

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintStates(w io.Writer, rows []StateRow)
	PrintState(w io.Writer, operation string, st state.State)
}

// StateRow is one operation of a state inventory
type StateRow struct {
	Operation   string    `json:"operation"`
	Function    string    `json:"function"`
	Status      string    `json:"status"`
	Attempt     int       `json:"attempt,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastUpdated string    `json:"last_updated"`
	Modified    time.Time `json:"modified"`
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle    int
	BaseStyle      int
	FailedStyle    int
	CompletedStyle int
}

// CollectRows loads every operation of src into rows, in operation order
func CollectRows(src StateSource) []StateRow {
	ops := src.ListOperations()
	rows := make([]StateRow, 0, len(ops))

	for _, op := range ops {
		st := src.Load(op)
		row := StateRow{
			Operation:   op,
			Function:    stringValue(st["function"]),
			Status:      st.Status(),
			Error:       stringValue(st["error"]),
			LastUpdated: stringValue(st["last_updated"]),
		}
		if attempt, ok := st["attempt"].(float64); ok {
			row.Attempt = int(attempt)
		} else if attempts, ok := st["attempts"].(float64); ok {
			row.Attempt = int(attempts)
		}
		if info, err := os.Stat(src.Path(op)); err == nil {
			row.Modified = info.ModTime()
		}
		rows = append(rows, row)
	}

	return rows
}

// FailedOperations returns the names of rows whose status is failed
func FailedOperations(rows []StateRow) []string {
	var failed []string
	for _, row := range rows {
		if row.Status == state.StatusFailed {
			failed = append(failed, row.Operation)
		}
	}
	return failed
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
