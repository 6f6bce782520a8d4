package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	"github.com/noah-isme/lapanclass-api/internal/service"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

type attendanceService interface {
	MarkAllPresent(ctx context.Context, session models.Session, req models.MarkAllPresentRequest) ([]models.AttendanceRecord, error)
	SetStatus(ctx context.Context, session models.Session, req models.SetAttendanceRequest) (*models.AttendanceRecord, error)
	List(ctx context.Context, session models.Session, query service.AttendanceQuery) ([]models.AttendanceRecordDetail, error)
	Grid(ctx context.Context, session models.Session, classID string, r calendar.Range) (*models.AttendanceGrid, error)
	DailySummary(ctx context.Context, session models.Session, classID string, date time.Time) (*models.DailySummary, error)
}

// AttendanceHandler exposes daily attendance recording and views.
type AttendanceHandler struct {
	service  attendanceService
	location *time.Location
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(service attendanceService, location *time.Location) *AttendanceHandler {
	if location == nil {
		location = time.UTC
	}
	return &AttendanceHandler{service: service, location: location}
}

// MarkAllPresent godoc
// @Summary Mark every student of a class present
// @Description Overwrites the day's records of the class in one batch
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.MarkAllPresentRequest true "Class and date"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance/mark-all-present [post]
func (h *AttendanceHandler) MarkAllPresent(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.MarkAllPresentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid mark all present payload"))
		return
	}
	records, err := h.service.MarkAllPresent(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil, map[string]interface{}{"count": len(records)})
}

// SetStatus godoc
// @Summary Set one student's status for a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.SetAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.SetAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid attendance payload"))
		return
	}
	record, err := h.service.SetStatus(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param class_id query string false "Class"
// @Param student_id query string false "Student"
// @Param status query string false "H, S, I or A"
// @Param approved query bool false "Approval filter"
// @Param mode query string false "day (default), week, month or custom"
// @Param date query string false "Reference date"
// @Param start query string false "Custom range start"
// @Param end query string false "Custom range end"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	_, r, err := rangeQuery(c, h.location, calendar.ModeDay)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := service.AttendanceQuery{
		ClassID:   c.Query("class_id"),
		StudentID: c.Query("student_id"),
		Range:     r,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AttendanceStatus(strings.ToUpper(raw))
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be one of H, S, I, A"))
			return
		}
		query.Status = &status
	}
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "approved must be a boolean"))
			return
		}
		query.Approved = &approved
	}

	records, err := h.service.List(c.Request.Context(), session, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Grid godoc
// @Summary Student-by-day attendance grid of a class
// @Tags Attendance
// @Produce json
// @Param id path string true "Class ID"
// @Param mode query string false "day, week (default), month or custom"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{id}/attendance/grid [get]
func (h *AttendanceHandler) Grid(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	_, r, err := rangeQuery(c, h.location, calendar.ModeWeek)
	if err != nil {
		response.Error(c, err)
		return
	}
	grid, err := h.service.Grid(c.Request.Context(), session, c.Param("id"), r)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Summary godoc
// @Summary Daily status counts of a class
// @Tags Attendance
// @Produce json
// @Param id path string true "Class ID"
// @Param date query string false "Date, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	date := time.Now().In(h.location)
	if c.Query("date") != "" {
		parsed, err := dateQuery(c, "date", h.location)
		if err != nil {
			response.Error(c, err)
			return
		}
		date = parsed
	}
	summary, err := h.service.DailySummary(c.Request.Context(), session, c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
