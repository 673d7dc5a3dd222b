// Package middleware carries the gin middleware chain: error handling,
// panic recovery, security headers, API versioning, admin auth, and GPS
// ingestion rate limiting. Shape is adapted from
// internal/common/middleware/middleware.go and error_handler.go.
package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/fleetops/geoguard/pkg/errors"
)

// ErrorResponse is the standardized JSON error envelope.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and message.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler drains c.Errors after the handler chain runs and writes a
// single standardized response. Must sit late in the chain.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperrors.GetAppError(err)
		logError(c, appErr)

		if c.Writer.Written() {
			return
		}

		c.JSON(appErr.Status, ErrorResponse{
			Success: false,
			Error: &ErrorDetail{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			},
		})
	}
}

// RecoveryHandler recovers from panics in downstream handlers and
// returns a 500 instead of crashing the process.
func RecoveryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %v\n%s", r, debug.Stack())
				if c.Writer.Written() {
					return
				}
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Success: false,
					Error:   &ErrorDetail{Code: "INTERNAL_ERROR", Message: "internal server error"},
				})
			}
		}()
		c.Next()
	}
}

// AbortWithError aborts the request with a prebuilt AppError.
func AbortWithError(c *gin.Context, err *apperrors.AppError) {
	c.Error(err)
	c.Abort()
}

// AbortWithNotFound aborts with 404.
func AbortWithNotFound(c *gin.Context, resource string) {
	AbortWithError(c, apperrors.NewNotFoundError(resource))
}

// AbortWithBadRequest aborts with 400.
func AbortWithBadRequest(c *gin.Context, message string) {
	AbortWithError(c, apperrors.NewBadRequestError(message))
}

// AbortWithValidation aborts with 400 (validation-specific code).
func AbortWithValidation(c *gin.Context, message string) {
	AbortWithError(c, apperrors.NewValidationError(message))
}

// AbortWithConflict aborts with 409.
func AbortWithConflict(c *gin.Context, message string) {
	AbortWithError(c, apperrors.NewConflictError(message))
}

// AbortWithUnauthorized aborts with 401.
func AbortWithUnauthorized(c *gin.Context, message string) {
	AbortWithError(c, apperrors.NewUnauthorizedError(message))
}

// AbortWithInternal aborts with 500, wrapping err as the internal cause.
func AbortWithInternal(c *gin.Context, message string, err error) {
	appErr := apperrors.NewInternalError(message)
	if err != nil {
		appErr = appErr.WithInternal(err)
	}
	AbortWithError(c, appErr)
}

func logError(c *gin.Context, err *apperrors.AppError) {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = "unknown"
	}
	log.Printf("[ERROR] [%s] %s %s | Code: %s | Message: %s | Internal: %v",
		requestID, c.Request.Method, c.Request.URL.Path, err.Code, err.Message, err.InternalErr)
}
