package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/middleware"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

// sessionFromContext returns the session attached by the JWT middleware, answering 401 when absent.
func sessionFromContext(c *gin.Context) (models.Session, bool) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Session{}, false
	}
	return session, true
}

func bindError(err error, message string) *appErrors.Error {
	return appErrors.Validation(err, message)
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

// rangeQuery reads mode, date, year, month, start and end query parameters into a calendar range.
// Custom ranges are validated here so a bad range never reaches a service.
func rangeQuery(c *gin.Context, loc *time.Location, fallback calendar.Mode) (calendar.Mode, calendar.Range, error) {
	rawMode := strings.ToLower(strings.TrimSpace(c.Query("mode")))
	if rawMode == "" {
		rawMode = string(fallback)
	}
	mode, err := calendar.ParseMode(rawMode)
	if err != nil {
		return "", calendar.Range{}, appErrors.Validation(err, err.Error())
	}

	if mode == calendar.ModeCustom {
		start, err := dateQuery(c, "start", loc)
		if err != nil {
			return "", calendar.Range{}, err
		}
		end, err := dateQuery(c, "end", loc)
		if err != nil {
			return "", calendar.Range{}, err
		}
		r, err := calendar.CustomRange(start, end)
		if err != nil {
			return "", calendar.Range{}, err
		}
		return mode, r, nil
	}

	ref := time.Now().In(loc)
	if c.Query("date") != "" {
		if ref, err = dateQuery(c, "date", loc); err != nil {
			return "", calendar.Range{}, err
		}
	}
	var year int
	var month time.Month
	if mode == calendar.ModeMonth {
		if raw := c.Query("year"); raw != "" {
			if year, err = strconv.Atoi(raw); err != nil || year < 1900 || year > 9999 {
				return "", calendar.Range{}, appErrors.Clone(appErrors.ErrValidation, "invalid year")
			}
		}
		if raw := c.Query("month"); raw != "" {
			m, err := strconv.Atoi(raw)
			if err != nil || m < 1 || m > 12 {
				return "", calendar.Range{}, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
			}
			month = time.Month(m)
		}
	}
	return mode, calendar.DateRange(mode, ref, year, month), nil
}

func dateQuery(c *gin.Context, key string, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, key+" is required")
	}
	date, err := calendar.ParseDate(raw, loc)
	if err != nil {
		return time.Time{}, appErrors.Validation(err, "invalid "+key+", expected YYYY-MM-DD")
	}
	return date, nil
}
