package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/resilient-trader/cmd/common"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
	"github.com/ducminhle1904/resilient-trader/pkg/reporting"
)

func newListCmd(a *app) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved operation states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := reporting.CollectRows(a.store)
			if failedOnly {
				filtered := rows[:0]
				for _, row := range rows {
					if row.Status == state.StatusFailed {
						filtered = append(filtered, row)
					}
				}
				rows = filtered
			}
			reporting.PrintStates(a.out, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only show failed operations")

	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <operation>",
		Short: "Print every key of one saved state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reporting.PrintState(a.out, args[0], a.store.Load(args[0]))
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [operation...]",
		Short: "Delete saved operation states",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				args = a.store.ListOperations()
			}
			if len(args) == 0 {
				return fmt.Errorf("name at least one operation or pass --all")
			}

			cleared := 0
			for _, op := range args {
				if a.store.Clear(op) {
					cleared++
				} else {
					fmt.Fprintf(a.out, "No saved state for %s\n", op)
				}
			}
			fmt.Fprintf(a.out, "Cleared %d of %d operations\n", cleared, len(args))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every saved operation")

	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	var maxAgeDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove state files older than a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if maxAgeDays < 0 {
				return fmt.Errorf("--max-age-days must not be negative")
			}
			removed := a.store.CleanupOlderThanDays(maxAgeDays)
			fmt.Fprintf(a.out, "Removed %d state files older than %d days\n", removed, maxAgeDays)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAgeDays, "max-age-days", 7, "age threshold in days")

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the state inventory to xlsx, csv or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if output == "" {
				output = reporting.DefaultExportPath(format)
			} else if ext := strings.TrimPrefix(filepath.Ext(output), "."); ext != "" && !cmd.Flags().Changed("format") {
				format = strings.ToLower(ext)
			}

			rows := reporting.CollectRows(a.store)

			var err error
			switch format {
			case "xlsx":
				err = reporting.WriteStatesXLSX(rows, output)
			case "csv":
				err = reporting.WriteStatesCSV(rows, output)
			case "json":
				err = reporting.WriteStatesJSON(rows, output)
			default:
				return fmt.Errorf("unsupported export format %q", format)
			}
			if err != nil {
				return fmt.Errorf("failed to export states: %w", err)
			}

			fmt.Fprintf(a.out, "Exported %d operations to %s\n", len(rows), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx, csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default exports/network_state_<time>.<format>)")

	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			common.PrintVersion(a.out, appName)
			return nil
		},
	}
}
