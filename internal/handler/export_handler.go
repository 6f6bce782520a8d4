package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	"github.com/noah-isme/lapanclass-api/internal/service"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

type recapExporter interface {
	AttendanceRecap(ctx context.Context, session models.Session, req service.RecapRequest) (*service.ExportFile, error)
}

// ExportHandler serves attendance recap downloads.
type ExportHandler struct {
	service  recapExporter
	location *time.Location
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(service recapExporter, location *time.Location) *ExportHandler {
	if location == nil {
		location = time.UTC
	}
	return &ExportHandler{service: service, location: location}
}

// AttendanceRecap godoc
// @Summary Download the attendance recap of a class
// @Description One row per student, one column per day, then S/I/A totals
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Class ID"
// @Param format query string false "xlsx (default), csv or pdf"
// @Param mode query string false "day, week, month (default) or custom"
// @Param year query int false "Year for month mode"
// @Param month query int false "Month for month mode"
// @Param start query string false "Custom range start"
// @Param end query string false "Custom range end, at most 31 days after start"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /classes/{id}/attendance/export [get]
func (h *ExportHandler) AttendanceRecap(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	mode, r, err := rangeQuery(c, h.location, calendar.ModeMonth)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.AttendanceRecap(c.Request.Context(), session, service.RecapRequest{
		ClassID: c.Param("id"),
		Mode:    mode,
		Range:   r,
		Format:  c.Query("format"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
