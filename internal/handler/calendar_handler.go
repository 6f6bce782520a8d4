package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

type calendarService interface {
	Location() *time.Location
	List(ctx context.Context, r calendar.Range) ([]models.Holiday, error)
	Create(ctx context.Context, req models.HolidayRequest) (*models.Holiday, error)
	Update(ctx context.Context, id string, req models.HolidayRequest) (*models.Holiday, error)
	Delete(ctx context.Context, id string) error
	DayStatus(ctx context.Context, date time.Time) (*models.DayStatus, error)
	MonthCalendar(ctx context.Context, year int, month time.Month) (*models.MonthCalendar, error)
}

// CalendarHandler serves the holiday registry, day statuses and the period table.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// ListHolidays godoc
// @Summary List holiday and event entries
// @Tags Calendar
// @Produce json
// @Param mode query string false "day, week, month (default) or custom"
// @Param date query string false "Reference date (YYYY-MM-DD)"
// @Param year query int false "Year for month mode"
// @Param month query int false "Month for month mode"
// @Param start query string false "Custom range start"
// @Param end query string false "Custom range end"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *CalendarHandler) ListHolidays(c *gin.Context) {
	loc := h.service.Location()
	_, r, err := rangeQuery(c, loc, calendar.ModeMonth)
	if err != nil {
		response.Error(c, err)
		return
	}
	holidays, err := h.service.List(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SetMeta(c, "range", r)
	response.JSON(c, http.StatusOK, holidays, nil)
}

// CreateHoliday godoc
// @Summary Register a holiday or event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body models.HolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /holidays [post]
func (h *CalendarHandler) CreateHoliday(c *gin.Context) {
	var req models.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid holiday payload"))
		return
	}
	holiday, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// UpdateHoliday godoc
// @Summary Update a holiday or event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path string true "Holiday ID"
// @Param payload body models.HolidayRequest true "Holiday payload"
// @Success 200 {object} response.Envelope
// @Router /holidays/{id} [put]
func (h *CalendarHandler) UpdateHoliday(c *gin.Context) {
	var req models.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid holiday payload"))
		return
	}
	holiday, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holiday, nil)
}

// DeleteHoliday godoc
// @Summary Delete a holiday or event
// @Tags Calendar
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *CalendarHandler) DeleteHoliday(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Day godoc
// @Summary Status of one date
// @Description Whether attendance may be recorded and the holiday label, if any
// @Tags Calendar
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /calendar/day [get]
func (h *CalendarHandler) Day(c *gin.Context) {
	loc := h.service.Location()
	date := time.Now().In(loc)
	if c.Query("date") != "" {
		parsed, err := dateQuery(c, "date", loc)
		if err != nil {
			response.Error(c, err)
			return
		}
		date = parsed
	}
	status, err := h.service.DayStatus(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SetMeta(c, "timezone", loc.String())
	response.JSON(c, http.StatusOK, status, nil)
}

// Month godoc
// @Summary Month calendar
// @Tags Calendar
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /calendar/month [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	now := time.Now().In(h.service.Location())
	year, month := now.Year(), int(now.Month())
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid year"))
			return
		}
		year = parsed
	}
	if raw := c.Query("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid month"))
			return
		}
		month = parsed
	}
	out, err := h.service.MonthCalendar(c.Request.Context(), year, time.Month(month))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Periods godoc
// @Summary Class period table
// @Description With start and end, returns the periods overlapping that time span and their windows
// @Tags Calendar
// @Produce json
// @Param start query string false "HH:MM"
// @Param end query string false "HH:MM"
// @Success 200 {object} response.Envelope
// @Router /calendar/periods [get]
func (h *CalendarHandler) Periods(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" && end == "" {
		response.JSON(c, http.StatusOK, calendar.Periods(), nil)
		return
	}
	from, err := calendar.ParseClock(start)
	if err != nil {
		response.Error(c, appErrors.Validation(err, "invalid start, expected HH:MM"))
		return
	}
	to, err := calendar.ParseClock(end)
	if err != nil {
		response.Error(c, appErrors.Validation(err, "invalid end, expected HH:MM"))
		return
	}
	if from >= to {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start must be before end"))
		return
	}
	periods := calendar.TimeToPeriods(start, end)
	windows := make([]calendar.Window, 0, len(periods))
	for _, p := range periods {
		if w, ok := calendar.PeriodWindow(p); ok {
			windows = append(windows, w)
		}
	}
	response.JSON(c, http.StatusOK, gin.H{"start": start, "end": end, "periods": periods, "windows": windows}, nil)
}
