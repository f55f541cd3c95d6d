package api

import (
	"errors"
	"fmt"
)

// Error is a non-2xx response from the service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// IsStatus reports whether err wraps an API error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == status
	}
	return false
}

// IsAuthError reports whether err is a 401/403 response, meaning the token
// is missing, stale or revoked.
func IsAuthError(err error) bool {
	return IsStatus(err, 401) || IsStatus(err, 403)
}
