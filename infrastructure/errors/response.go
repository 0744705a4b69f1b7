package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON error envelope written by every service.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields,omitempty"`
}

// NewResponse builds an envelope whose Error is the status text.
func NewResponse(status int, message string, fields ...string) Response {
	return Response{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
		Fields:     fields,
	}
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewResponse(status, message))
}

// AbortWithFields is Abort with the offending request fields listed.
func AbortWithFields(c *gin.Context, status int, message string, fields []string) {
	c.AbortWithStatusJSON(status, NewResponse(status, message, fields...))
}
