package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

const statesSheet = "Operation States"

var stateColumns = []struct {
	header string
	width  float64
}{
	{"Operation", 32},
	{"Function", 32},
	{"Status", 12},
	{"Attempt", 10},
	{"Last Updated", 20},
	{"Modified", 20},
	{"Error", 60},
}

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct {
	pathManager *DefaultPathManager
}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{pathManager: NewDefaultPathManager()}
}

// WriteStatesXLSX writes rows to a single-sheet workbook at path
func (r *DefaultExcelReporter) WriteStatesXLSX(rows []StateRow, path string) error {
	if err := r.pathManager.EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), statesSheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	for i, col := range stateColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(statesSheet, cell, col.header)
		fx.SetCellStyle(statesSheet, cell, cell, styles.HeaderStyle)

		name, _ := excelize.ColumnNumberToName(i + 1)
		fx.SetColWidth(statesSheet, name, name, col.width)
	}

	for i, row := range rows {
		rowNum := i + 2
		modified := ""
		if !row.Modified.IsZero() {
			modified = row.Modified.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			row.Operation,
			row.Function,
			row.Status,
			row.Attempt,
			row.LastUpdated,
			modified,
			row.Error,
		}

		style := styles.BaseStyle
		switch row.Status {
		case state.StatusFailed:
			style = styles.FailedStyle
		case state.StatusCompleted:
			style = styles.CompletedStyle
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			fx.SetCellValue(statesSheet, cell, v)
			fx.SetCellStyle(statesSheet, cell, cell, style)
		}
	}

	if err := fx.SetPanes(statesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	// Header style - Dark slate background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return styles, err
	}

	styles.FailedStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "9C0006"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return styles, err
	}

	styles.CompletedStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "006100"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return styles, err
	}

	return styles, nil
}

// Package-level convenience function
func WriteStatesXLSX(rows []StateRow, path string) error {
	return NewDefaultExcelReporter().WriteStatesXLSX(rows, path)
}
