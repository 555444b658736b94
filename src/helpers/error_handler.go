package helpers

import (
	"errors"
	"fmt"
	"net/http"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type TraderError struct {
	Message string
	Cause   error
}

func (e *TraderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TraderError) Unwrap() error {
	return e.Cause
}

// Helper to define distinct error types for errors.As checks
type UpstreamError struct{ TraderError }
type AuthError struct{ TraderError }
type StorageError struct{ TraderError }
type ValidationError struct{ TraderError }

// -----------------------------------------------------------------------------

func WrapUpstream(operation string, cause error) error {
	return &UpstreamError{TraderError{Message: operation + " failed", Cause: cause}}
}

func WrapAuth(operation string, cause error) error {
	return &AuthError{TraderError{Message: operation + " rejected", Cause: cause}}
}

func WrapStorage(operation string, cause error) error {
	return &StorageError{TraderError{Message: operation + " failed", Cause: cause}}
}

func WrapValidation(message string) error {
	return &ValidationError{TraderError{Message: message}}
}

// -----------------------------------------------------------------------------

// HTTPStatus maps a classified error onto the response code the dashboard
// should return. Unclassified errors fall back to 500.
func HTTPStatus(err error) int {
	var upstream *UpstreamError
	var auth *AuthError
	var validation *ValidationError

	switch {
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
