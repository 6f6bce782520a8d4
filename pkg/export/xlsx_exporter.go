package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of rendered spreadsheets.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXExporter renders datasets into a single-sheet spreadsheet.
type XLSXExporter struct {
	sheetName string
}

// NewXLSXExporter constructs a spreadsheet exporter writing to the named sheet.
func NewXLSXExporter(sheetName string) *XLSXExporter {
	if sheetName == "" {
		sheetName = "Rekap"
	}
	return &XLSXExporter{sheetName: sheetName}
}

// Render writes an optional merged title row followed by the header row and body.
func (e *XLSXExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := e.sheetName
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	if title != "" {
		_ = f.SetCellValue(sheet, "A1", title)
		_ = f.MergeCell(sheet, "A1", fmt.Sprintf("%s1", lastCol))
		_ = f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s1", lastCol), headerStyle)
		_ = f.SetRowHeight(sheet, 1, 25)
		row = 3
	}

	for i, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, header)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
	_ = f.SetCellStyle(sheet, first, last, headerStyle)

	headerRow := row
	for _, record := range data.Rows {
		row++
		cell, _ := excelize.CoordinatesToCellName(1, row)
		cells := data.Cells(record)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	// Keep the number/name columns and the header visible while scrolling through the days.
	topLeft, _ := excelize.CoordinatesToCellName(3, headerRow+1)
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      headerRow,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
	})

	for i, header := range data.Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, columnWidth(header))
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidth(header string) float64 {
	switch {
	case len(header) <= 3:
		return 5
	case len(header) > 20:
		return 30
	default:
		return float64(len(header)) + 6
	}
}
