package errors

import (
	"fmt"
	"net/http"
)

// FromStatus maps an HTTP response status to an AppError. The message is
// used when non-empty; otherwise a status-derived fallback is generated.
// Used by the auth API client so callers branch on error codes instead of
// sniffing message text for status digits.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d (%s)", status, http.StatusText(status))
	}

	switch {
	case status == http.StatusUnauthorized:
		return &AppError{Code: ErrCodeUnauthorized, Message: message}
	case status >= 500:
		return &AppError{Code: ErrCodeServer, Message: message}
	case status >= 400:
		return &AppError{Code: ErrCodeClient, Message: message}
	default:
		return &AppError{Code: ErrCodeInternal, Message: message}
	}
}

// HTTPStatus returns the HTTP status the server should respond with for
// the given error. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeValidation, ErrCodeForeignKey:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
