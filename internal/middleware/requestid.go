package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"
)

// RequestID tags every request with a server-generated UUID. The ID is
// stored in the gin context, echoed back in the X-Request-ID response
// header, and surfaced in error envelopes. A caller-supplied X-Request-ID
// is never trusted as the canonical ID; it is kept under client_request_id
// for log correlation only.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		if supplied := c.GetHeader(RequestIDHeader); supplied != "" {
			c.Set("client_request_id", supplied)
			log.WithFields(logrus.Fields{
				RequestIDKey:        id,
				"client_request_id": supplied,
			}).Debug("mapped client request ID")
		}

		c.Next()
	}
}
