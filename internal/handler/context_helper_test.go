package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/middleware"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

var (
	testAdmin   = models.Session{UserID: "u-admin", Role: models.RoleAdmin}
	testKetua   = models.Session{UserID: "u-ketua", Role: models.RoleKetua, ClassID: "c1"}
	testStudent = models.Session{UserID: "u-student", Role: models.RoleStudent, ClassID: "c1", StudentID: "s1"}
)

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withSession(c *gin.Context, session models.Session) {
	c.Set(middleware.ContextSessionKey, session)
}

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func TestRangeQueryModes(t *testing.T) {
	loc := jakarta(t)

	c, _ := newTestContext(http.MethodGet, "/x?mode=week&date=2026-10-18", nil)
	mode, r, err := rangeQuery(c, loc, calendar.ModeDay)
	require.NoError(t, err)
	assert.Equal(t, calendar.ModeWeek, mode)
	assert.Equal(t, "2026-10-12", r.StartKey())
	assert.Equal(t, "2026-10-18", r.EndKey())

	c, _ = newTestContext(http.MethodGet, "/x?year=2026&month=2", nil)
	mode, r, err = rangeQuery(c, loc, calendar.ModeMonth)
	require.NoError(t, err)
	assert.Equal(t, calendar.ModeMonth, mode)
	assert.Equal(t, "2026-02-01", r.StartKey())
	assert.Equal(t, "2026-02-28", r.EndKey())

	c, _ = newTestContext(http.MethodGet, "/x?mode=custom&start=2026-10-01&end=2026-10-31", nil)
	_, r, err = rangeQuery(c, loc, calendar.ModeDay)
	require.NoError(t, err)
	assert.Len(t, calendar.Days(r), 31)
}

func TestRangeQueryRejectsBadInput(t *testing.T) {
	loc := jakarta(t)
	for _, target := range []string{
		"/x?mode=fortnight",
		"/x?mode=custom&start=2026-10-01&end=2026-11-01",
		"/x?mode=custom&start=2026-10-05&end=2026-10-01",
		"/x?mode=custom&start=2026-10-05",
		"/x?mode=day&date=05-10-2026",
		"/x?mode=month&month=13",
	} {
		c, _ := newTestContext(http.MethodGet, target, nil)
		_, _, err := rangeQuery(c, loc, calendar.ModeDay)
		require.Error(t, err, target)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, target)
	}
}

func TestSessionFromContextAnswersUnauthorized(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/x", bytes.NewReader(nil))
	_, ok := sessionFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
