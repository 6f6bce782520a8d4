package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type gridStub struct {
	grid  *models.AttendanceGrid
	calls int
}

func (g *gridStub) Grid(ctx context.Context, session models.Session, classID string, r calendar.Range) (*models.AttendanceGrid, error) {
	g.calls++
	return g.grid, nil
}

func weekGrid() *models.AttendanceGrid {
	return &models.AttendanceGrid{
		ClassID: "c1",
		Days: []models.GridDay{
			{Date: "2026-08-17"},
			{Date: "2026-08-18", CanRecord: true},
		},
		Rows: []models.AttendanceGridRow{
			{StudentID: "s1", NomorAbsen: 1, FullName: "Andi", Statuses: map[string]models.AttendanceStatus{"2026-08-18": models.AttendanceStatusSick}, Summary: models.AttendanceSummary{Sick: 1, Total: 1}},
			{StudentID: "s2", NomorAbsen: 2, FullName: "Bela", Statuses: map[string]models.AttendanceStatus{}},
		},
	}
}

func TestExportServiceRecapCSVCustomRange(t *testing.T) {
	source := &gridStub{grid: weekGrid()}
	metrics := NewMetricsService()
	svc := NewExportService(source, metrics, nil)
	r, err := calendar.CustomRange(utcDate(2026, time.August, 17), utcDate(2026, time.August, 18))
	require.NoError(t, err)

	file, err := svc.AttendanceRecap(context.Background(), officerSession, RecapRequest{ClassID: "c1", Mode: calendar.ModeCustom, Range: r, Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, "Rekap_Absensi_2026-08-17_sd_2026-08-18.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(file.Content), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "No,Nama,17/08,18/08,S,I,A", lines[0])
	assert.Equal(t, "1,Andi,-,S,1,0,0", lines[1])
	assert.Equal(t, "2,Bela,-,,0,0,0", lines[2])
	assert.EqualValues(t, 1, metrics.Snapshot().RecapExports)
}

func TestExportServiceRecapMonthName(t *testing.T) {
	svc := NewExportService(&gridStub{grid: &models.AttendanceGrid{}}, nil, nil)
	r := calendar.DateRange(calendar.ModeMonth, utcDate(2026, time.August, 1), 0, 0)

	file, err := svc.AttendanceRecap(context.Background(), adminSession, RecapRequest{ClassID: "c1", Mode: calendar.ModeMonth, Range: r})
	require.NoError(t, err)
	assert.Equal(t, "Rekap_Absensi_Agustus_2026.xlsx", file.Filename)
	assert.NotEmpty(t, file.Content)
}

func TestExportServiceRejectsLongCustomRangeBeforeReading(t *testing.T) {
	source := &gridStub{grid: weekGrid()}
	svc := NewExportService(source, nil, nil)
	r := calendar.Range{Start: utcDate(2026, time.August, 1), End: utcDate(2026, time.September, 1)}

	_, err := svc.AttendanceRecap(context.Background(), adminSession, RecapRequest{ClassID: "c1", Mode: calendar.ModeCustom, Range: r, Format: "pdf"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.AttendanceRecap(context.Background(), adminSession, RecapRequest{ClassID: "c1", Mode: calendar.ModeMonth, Range: r, Format: "docx"})
	require.Error(t, err)
	assert.Zero(t, source.calls)
}
