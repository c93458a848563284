package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderXRequestID carries the correlation id; ContextRequestID is where
// the logging middlewares find it.
const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID gives every request a UUID correlation id. A UUID sent by the
// dashboard is kept in canonical form; anything else is replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(HeaderXRequestID))
		if err != nil {
			id = uuid.New()
		}

		c.Set(ContextRequestID, id.String())
		c.Writer.Header().Set(HeaderXRequestID, id.String())
		c.Next()
	}
}

// RequestIDOf returns the correlation id RequestID assigned to c.
func RequestIDOf(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
