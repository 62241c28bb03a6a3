package reporting

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

const maxErrorWidth = 60

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// PrintStates writes an inventory table of rows
func (r *DefaultConsoleReporter) PrintStates(w io.Writer, rows []StateRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No saved operation states")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("🌐 Network Operation States")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Operation", "Function", "Status", "Attempt", "Last Updated", "Error"})

	for _, row := range rows {
		attempt := ""
		if row.Attempt > 0 {
			attempt = fmt.Sprintf("%d", row.Attempt)
		}
		t.AppendRow(table.Row{
			row.Operation,
			row.Function,
			statusLabel(row.Status),
			attempt,
			row.LastUpdated,
			truncate(row.Error, maxErrorWidth),
		})
	}

	failed := len(FailedOperations(rows))
	t.AppendFooter(table.Row{"Total", len(rows), fmt.Sprintf("%d failed", failed), "", "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, WidthMax: maxErrorWidth, Align: text.AlignLeft},
	})
	t.Render()
}

// PrintState writes every key of one saved state
func (r *DefaultConsoleReporter) PrintState(w io.Writer, operation string, st state.State) {
	if len(st) == 0 {
		fmt.Fprintf(w, "No saved state for %s\n", operation)
		return
	}

	keys := make([]string, 0, len(st))
	for k := range st {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("📋 " + operation)
	t.SetStyle(table.StyleRounded)
	for _, k := range keys {
		t.AppendRow(table.Row{k, fmt.Sprint(st[k])})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, Align: text.AlignLeft},
		{Number: 2, WidthMax: 80, Align: text.AlignLeft},
	})
	t.Render()
}

func statusLabel(status string) string {
	switch status {
	case state.StatusCompleted:
		return "✅ " + status
	case state.StatusFailed:
		return "❌ " + status
	case state.StatusStarted:
		return "⏳ " + status
	default:
		return status
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Package-level convenience functions
func PrintStates(w io.Writer, rows []StateRow) {
	NewDefaultConsoleReporter().PrintStates(w, rows)
}

func PrintState(w io.Writer, operation string, st state.State) {
	NewDefaultConsoleReporter().PrintState(w, operation, st)
}
