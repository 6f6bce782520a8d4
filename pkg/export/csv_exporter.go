package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

// Content types of the rendered formats.
const (
	CSVContentType = "text/csv"
	PDFContentType = "application/pdf"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is a table keyed by header. Missing cells render empty.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Cells returns row values in header order.
func (d Dataset) Cells(row map[string]string) []string {
	cells := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		cells[i] = row[h]
	}
	return cells
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return errors.New(format + " requires at least one header")
	}
	return nil
}

// CSVOption customises a CSVExporter.
type CSVOption func(*CSVExporter)

// WithDelimiter switches the field separator, e.g. ';' for spreadsheets set to a comma decimal locale.
func WithDelimiter(r rune) CSVOption {
	return func(e *CSVExporter) { e.comma = r }
}

// WithBOM prefixes the output with a UTF-8 byte order mark so spreadsheet apps keep accented names.
func WithBOM() CSVOption {
	return func(e *CSVExporter) { e.bom = true }
}

// CSVExporter renders a Dataset as a header row followed by one record per row.
type CSVExporter struct {
	comma rune
	bom   bool
}

// NewCSVExporter builds a comma separated exporter.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{comma: ','}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render ignores the title; CSV carries no document heading.
func (e *CSVExporter) Render(data Dataset, _ string) ([]byte, error) {
	if err := data.validate("csv"); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	w.Comma = e.comma
	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		records = append(records, data.Cells(row))
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write recap csv: %w", err)
	}
	return buf.Bytes(), nil
}
