package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/questgen/internal/generation"
)

// APIError is the body of every error response, wrapped as {"error": ...}.
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Violations []generation.Violation `json:"violations,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeCancelled        = "REQUEST_CANCELLED"
	ErrCodeTimeout          = "GENERATION_TIMEOUT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is reported when the caller went away before the
// response was ready.
const StatusClientClosedRequest = 499

func respondError(c *gin.Context, status int, apiErr APIError) {
	c.AbortWithStatusJSON(status, gin.H{"error": apiErr})
}

func badRequest(c *gin.Context, message, details string) {
	respondError(c, http.StatusBadRequest, APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: details,
	})
}

func validationFailed(c *gin.Context, err *generation.ValidationError) {
	respondError(c, http.StatusBadRequest, APIError{
		Code:       ErrCodeValidationFailed,
		Message:    "request validation failed",
		Violations: err.Violations,
	})
}

func unauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, APIError{Code: ErrCodeUnauthorized, Message: message})
}

func internalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, APIError{Code: ErrCodeInternalError, Message: message})
}
