// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// ErrorBody is the JSON envelope returned for every API error.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes the standard error envelope and aborts the request.
// The request ID assigned by the middleware stack is attached when present.
func RespondError(c *gin.Context, status int, code, message string) {
	body := ErrorBody{Code: code, Message: message}
	if rid, ok := c.Value("request_id").(string); ok {
		body.RequestID = rid
	}

	c.AbortWithStatusJSON(status, body)
}
