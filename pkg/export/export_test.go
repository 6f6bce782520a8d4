package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func recapDataset() Dataset {
	return Dataset{
		Headers: []string{"No", "Nama", "1", "2", "S", "I", "A"},
		Rows: []map[string]string{
			{"No": "1", "Nama": "Ani", "1": "H", "2": "S", "S": "1", "I": "0", "A": "0"},
			{"No": "2", "Nama": "Budi", "1": "A", "2": "H", "S": "0", "I": "0", "A": "1"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(recapDataset(), "ignored")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "No,Nama,1,2,S,I,A", lines[0])
	assert.Equal(t, "2,Budi,A,H,0,0,1", lines[2])
}

func TestCSVExporterOptions(t *testing.T) {
	out, err := NewCSVExporter(WithBOM(), WithDelimiter(';')).Render(recapDataset(), "")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	lines := strings.Split(strings.TrimSpace(string(out[len(utf8BOM):])), "\n")
	assert.Equal(t, "No;Nama;1;2;S;I;A", lines[0])
}

func TestPDFWidestColumnIsName(t *testing.T) {
	assert.Equal(t, 1, widestColumn(recapDataset()))
	widths := columnWidths(10, 1, 277)
	assert.InDelta(t, 277*0.2, widths[1], 1e-9)
	assert.Equal(t, widths[0], widths[9])
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter("Rekap").Render(recapDataset(), "Rekap Absensi Oktober 2026")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	assert.Equal(t, []string{"Rekap"}, f.GetSheetList())
	title, err := f.GetCellValue("Rekap", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Rekap Absensi Oktober 2026", title)

	header, err := f.GetCellValue("Rekap", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Nama", header)

	status, err := f.GetCellValue("Rekap", "D4")
	require.NoError(t, err)
	assert.Equal(t, "S", status)

	absent, err := f.GetCellValue("Rekap", "G5")
	require.NoError(t, err)
	assert.Equal(t, "1", absent)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(recapDataset(), "Rekap")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
	_, err = NewXLSXExporter("").Render(Dataset{}, "")
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}
