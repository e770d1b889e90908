package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key (and response header name sans prefix)
// for the per-request correlation ID.
const RequestIDKey = "request_id"

// RequestID attaches a correlation ID to every request: the client's
// X-Request-ID when present, a fresh UUID otherwise. Echoed back in the
// response header and threaded through all request logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
