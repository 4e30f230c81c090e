package apierror

import (
	"fmt"
	"net/http"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Security rejection kinds used by the middleware chain. Each maps to a
// stable code and status so the formatting boundary stays deterministic.

func Unauthenticated(message string) *APIError {
	return New("UNAUTHORIZED", message, "", http.StatusUnauthorized)
}

func Forbidden(message string) *APIError {
	return New("FORBIDDEN", message, "", http.StatusForbidden)
}

func ForbiddenCSRF(message string) *APIError {
	return New("CSRF_FORBIDDEN", message, "", http.StatusForbidden)
}

func RateLimited(message string, retryAfter string) *APIError {
	return New("RATE_LIMITED", message, retryAfter, http.StatusTooManyRequests)
}
