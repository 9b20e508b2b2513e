package limits

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	statusSheet = "Limit Status"
	errorSheet  = "Errors"
)

var statusHeaders = []string{"Region", "DMA Code", "Tier", "Current", "Limit", "Limit Source", "Status"}

// ExportXLSX renders a scan result as a spreadsheet: one sheet of pairs,
// violations highlighted, plus a sheet of pair errors when there are any.
func ExportXLSX(result *ScanResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(statusSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	violationStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create violation style: %w", err)
	}

	if err := writeRow(f, statusSheet, 1, toAny(statusHeaders), headerStyle); err != nil {
		return nil, err
	}
	for i, st := range result.Statuses {
		limit := any("Unlimited")
		if st.Limit != nil {
			limit = *st.Limit
		}
		style := 0
		if st.IsViolation {
			style = violationStyle
		}
		values := []any{st.RegionName, st.RegionCode, string(st.Tier), st.CurrentCount, limit, string(st.LimitScope), st.Status}
		if err := writeRow(f, statusSheet, i+2, values, style); err != nil {
			return nil, err
		}
	}
	for col, width := range []float64{32, 10, 12, 10, 10, 14, 14} {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(statusSheet, name, name, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetPanes(statusSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if len(result.Errors) > 0 {
		if _, err := f.NewSheet(errorSheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}
		if err := writeRow(f, errorSheet, 1, []any{"Region", "Tier", "Error"}, headerStyle); err != nil {
			return nil, err
		}
		for i, pe := range result.Errors {
			if err := writeRow(f, errorSheet, i+2, []any{pe.RegionName, string(pe.Tier), pe.Error}, 0); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
		if style != 0 {
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return fmt.Errorf("failed to style cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
