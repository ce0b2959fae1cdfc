package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xxxsen/common/trace"
)

const (
	RequestIDHeader     = "X-Request-Id"
	ContextRequestIDKey = "request_id"

	maxRequestIDLen = 128
)

// RequestID exposes the request's trace id as X-Request-Id and under
// ContextRequestIDKey. The engine's trace middleware already derives the
// trace id from an incoming X-Request-Id; when no trace id is present one
// is taken from the header or generated, and stored back as the trace id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := trace.GetTraceId(ctx)
		if !ok || id == "" || len(id) > maxRequestIDLen {
			id = strings.TrimSpace(c.GetHeader(RequestIDHeader))
			if id == "" || len(id) > maxRequestIDLen {
				id = newRequestID()
			}
			c.Request = c.Request.WithContext(trace.WithTraceId(ctx, id))
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func newRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
