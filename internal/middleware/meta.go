package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/pkg/response"
)

// WithResponseMeta stamps the request start so JSON envelopes carry processing_time_ms.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Begin(c)
		c.Next()
	}
}
