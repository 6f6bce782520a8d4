package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/logger"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type observerStub struct {
	paths []string
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, path)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", handlers...)
	return r
}

func serve(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAttachesSession(t *testing.T) {
	stub := validatorStub{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleKetua, ClassID: "c1"}}
	var seen models.Session
	var logged string
	r := newRouter(JWT(stub), func(c *gin.Context) {
		seen, _ = SessionFrom(c)
		logged = c.GetString(logger.SessionUserKey)
		c.Status(http.StatusNoContent)
	})

	rec := serve(r, "Bearer good")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c1", seen.ClassID)
	assert.Equal(t, "u1", logged)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer bad").Code)
}

func TestRBACAdmitsOfficers(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	for role, want := range map[models.UserRole]int{
		models.RoleAdmin:     http.StatusNoContent,
		models.RoleBendahara: http.StatusNoContent,
		models.RoleStudent:   http.StatusForbidden,
	} {
		stub := validatorStub{claims: &models.JWTClaims{UserID: "u", Role: role}}
		r := newRouter(JWT(stub), RequireStaff(), ok)
		assert.Equal(t, want, serve(r, "Bearer good").Code, role)
	}

	r := newRouter(JWT(validatorStub{claims: &models.JWTClaims{Role: models.RoleKetua}}), RequireRoles(models.RoleAdmin), ok)
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer good").Code)
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	observer := &observerStub{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/students/42", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	assert.Equal(t, []string{"/students/:id", "unmatched"}, observer.paths)
}

type auditStub struct {
	logs []models.AuditLog
	err  error
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, *log)
	return a.err
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	audits := &auditStub{err: errors.New("db down")}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	stub := validatorStub{claims: &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}}
	r.DELETE("/holidays/:id", JWT(stub), Audit(audits, nil, "HOLIDAY_DELETE", "holidays"), func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	})

	for _, id := range []string{"h1", "missing"} {
		req := httptest.NewRequest(http.MethodDelete, "/holidays/"+id, nil)
		req.Header.Set("Authorization", "Bearer good")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, audits.logs, 1)
	entry := audits.logs[0]
	assert.Equal(t, "HOLIDAY_DELETE", entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "admin", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "h1", *entry.ResourceID)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/calendar", func(c *gin.Context) {
		response.SetMeta(c, "timezone", "Asia/Jakarta")
		response.JSON(c, http.StatusOK, "ok", nil, map[string]interface{}{"count": 2})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar", nil))

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Asia/Jakarta", body.Meta["timezone"])
	assert.EqualValues(t, 2, body.Meta["count"])
	assert.Contains(t, body.Meta, "processing_time_ms")
}
