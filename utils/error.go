package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// APIError carries a stable machine-readable code plus the HTTP status it
// maps to. Service packages construct these; handlers pass them through
// RespondError without inspecting them.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func NewValidationError(code, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Status: http.StatusBadRequest}
}

func NewForbiddenError(msg string) *APIError {
	return &APIError{Code: "forbidden", Message: msg, Status: http.StatusForbidden}
}

func NewNotFoundError(msg string) *APIError {
	return &APIError{Code: "not_found", Message: msg, Status: http.StatusNotFound}
}

func NewConflictError(code, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Status: http.StatusConflict}
}

func NewUpstreamError(code, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Status: http.StatusBadGateway}
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "internal",
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, code string, details string) {
	Logger := GetLogger()
	Logger.Warn(code, zap.String("details", details))
	c.JSON(status, ErrorResponse{Code: code, Message: code, Details: details})
}

// RespondError maps a service error onto the wire. Unknown errors become 500
// without leaking internals.
func RespondError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, ErrorResponse{Code: apiErr.Code, Message: apiErr.Message})
		return
	}
	Logger := GetLogger()
	Logger.Error("Unhandled service error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "internal",
		Message: "Internal Server Error",
	})
}
