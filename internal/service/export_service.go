package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/export"
)

// Recap export formats.
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

const closedDayMark = "-"

type recapSource interface {
	Grid(ctx context.Context, session models.Session, classID string, r calendar.Range) (*models.AttendanceGrid, error)
}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RecapRequest selects the class and period of an attendance recap.
type RecapRequest struct {
	ClassID string
	Mode    calendar.Mode
	Range   calendar.Range
	Format  string
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders attendance recaps as spreadsheets, CSV or PDF.
type ExportService struct {
	source    recapSource
	renderers map[string]datasetRenderer
	types     map[string]string
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(source recapSource, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source: source,
		renderers: map[string]datasetRenderer{
			ExportFormatXLSX: export.NewXLSXExporter("Rekap"),
			ExportFormatCSV:  export.NewCSVExporter(export.WithBOM()),
			ExportFormatPDF:  export.NewPDFExporter(),
		},
		types: map[string]string{
			ExportFormatXLSX: export.XLSXContentType,
			ExportFormatCSV:  export.CSVContentType,
			ExportFormatPDF:  export.PDFContentType,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// AttendanceRecap builds one row per student with a column per day and S/I/A totals.
func (s *ExportService) AttendanceRecap(ctx context.Context, session models.Session, req RecapRequest) (*ExportFile, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = ExportFormatXLSX
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", req.Format))
	}
	if req.Mode == calendar.ModeCustom {
		if err := calendar.ValidateCustomRange(req.Range.Start, req.Range.End); err != nil {
			return nil, err
		}
	}

	grid, err := s.source.Grid(ctx, session, req.ClassID, req.Range)
	if err != nil {
		return nil, err
	}
	days := calendar.Days(req.Range)
	dataset := recapDataset(grid, days, req.Mode)
	title, base := recapNames(req.Mode, req.Range)

	started := time.Now()
	content, err := renderer.Render(dataset, title)
	if err != nil {
		s.logger.Error("recap render failed", zap.String("format", format), zap.String("class_id", req.ClassID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render recap")
	}
	s.metrics.ObserveRecapRender(format, time.Since(started))
	return &ExportFile{
		Filename:    base + "." + format,
		ContentType: s.types[format],
		Content:     content,
	}, nil
}

func recapDataset(grid *models.AttendanceGrid, days []time.Time, mode calendar.Mode) export.Dataset {
	headers := make([]string, 0, len(days)+5)
	headers = append(headers, "No", "Nama")
	columns := make([]string, 0, len(days))
	for _, day := range days {
		column := strconv.Itoa(day.Day())
		if mode != calendar.ModeMonth {
			column = day.Format("02/01")
		}
		columns = append(columns, column)
	}
	headers = append(headers, columns...)
	headers = append(headers, "S", "I", "A")

	closed := make(map[string]bool, len(grid.Days))
	for _, day := range grid.Days {
		closed[day.Date] = !day.CanRecord
	}

	rows := make([]map[string]string, 0, len(grid.Rows))
	for _, student := range grid.Rows {
		row := map[string]string{
			"No":   strconv.Itoa(student.NomorAbsen),
			"Nama": student.FullName,
			"S":    strconv.Itoa(student.Summary.Sick),
			"I":    strconv.Itoa(student.Summary.Excused),
			"A":    strconv.Itoa(student.Summary.Absent),
		}
		for i, day := range days {
			key := calendar.DateKey(day)
			switch status, ok := student.Statuses[key]; {
			case ok:
				row[columns[i]] = string(status)
			case closed[key]:
				row[columns[i]] = closedDayMark
			default:
				row[columns[i]] = ""
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// recapNames returns the document title and the file base name.
func recapNames(mode calendar.Mode, r calendar.Range) (string, string) {
	if mode == calendar.ModeMonth {
		month := calendar.MonthName(r.Start.Month())
		return fmt.Sprintf("Rekap Absensi %s %d", month, r.Start.Year()),
			fmt.Sprintf("Rekap_Absensi_%s_%d", month, r.Start.Year())
	}
	return fmt.Sprintf("Rekap Absensi %s - %s", calendar.FormatShort(r.Start), calendar.FormatShort(r.End)),
		fmt.Sprintf("Rekap_Absensi_%s_sd_%s", r.StartKey(), r.EndKey())
}
