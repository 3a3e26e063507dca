package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/pkg/cuid2"
)

// RequestIDKey is the context key the request id is stored under
const RequestIDKey = "request_id"

// RequestIDHeader is the header the id is read from and echoed back on
const RequestIDHeader = "X-Request-Id"

// RequestID assigns every request an id, honoring one the client sent.
// The id is echoed in the response and available to downstream handlers
// and the request logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = cuid2.New()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}
