package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/middleware/requestid"
)

const (
	metaKey    = "response_meta"
	startedKey = "response_started_at"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Begin marks the start of a request so envelopes can report processing time.
func Begin(c *gin.Context) {
	c.Set(startedKey, time.Now())
}

// SetMeta adds a key to the meta object of the response written later in the request.
func SetMeta(c *gin.Context, key string, value interface{}) {
	stored, _ := c.Get(metaKey)
	meta, ok := stored.(map[string]interface{})
	if !ok {
		meta = map[string]interface{}{}
		c.Set(metaKey, meta)
	}
	meta[key] = value
}

// Meta merges request-scoped metadata with the values passed by the handler.
func Meta(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	meta := map[string]interface{}{}
	if stored, ok := c.Get(metaKey); ok {
		if values, ok := stored.(map[string]interface{}); ok {
			for k, v := range values {
				meta[k] = v
			}
		}
	}
	for k, v := range extra {
		meta[k] = v
	}
	if started, ok := c.Get(startedKey); ok {
		if at, ok := started.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(at).Milliseconds()
		}
	}
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON writes a success envelope. Only the first meta argument is used.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	var extra map[string]interface{}
	if len(meta) > 0 {
		extra = meta[0]
	}
	noStore(c)
	c.JSON(status, Envelope{Data: data, Pagination: pagination, Meta: Meta(c, extra)})
}

// Created responds with 201.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error writes the error envelope. 5xx causes are attached to the context for the request logger.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: Meta(c, nil)})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment sends a rendered recap as a download.
func Attachment(c *gin.Context, filename, contentType string, payload []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	noStore(c)
	c.Data(http.StatusOK, contentType, payload)
}
