package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	"github.com/noah-isme/lapanclass-api/internal/service"
)

type recapExporterMock struct {
	calls int
	req   service.RecapRequest
}

func (m *recapExporterMock) AttendanceRecap(ctx context.Context, session models.Session, req service.RecapRequest) (*service.ExportFile, error) {
	m.calls++
	m.req = req
	return &service.ExportFile{Filename: "Rekap_Absensi_Agustus_2026.csv", ContentType: "text/csv", Content: []byte("No,Nama\n")}, nil
}

func TestExportHandlerStreamsAttachment(t *testing.T) {
	mock := &recapExporterMock{}
	h := NewExportHandler(mock, jakarta(t))

	c, w := newTestContext(http.MethodGet, "/classes/c1/attendance/export?format=csv&year=2026&month=8", nil)
	c.AddParam("id", "c1")
	withSession(c, testKetua)
	h.AttendanceRecap(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, calendar.ModeMonth, mock.req.Mode)
	assert.Equal(t, "csv", mock.req.Format)
	assert.Equal(t, "c1", mock.req.ClassID)
	assert.Equal(t, "2026-08-01", mock.req.Range.StartKey())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Rekap_Absensi_Agustus_2026.csv")
	assert.Equal(t, "No,Nama\n", w.Body.String())
}

func TestExportHandlerRejectsLongCustomRangeBeforeService(t *testing.T) {
	mock := &recapExporterMock{}
	h := NewExportHandler(mock, jakarta(t))

	c, w := newTestContext(http.MethodGet, "/classes/c1/attendance/export?mode=custom&start=2026-08-01&end=2026-09-01", nil)
	c.AddParam("id", "c1")
	withSession(c, testKetua)
	h.AttendanceRecap(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mock.calls)
}
