package client

import (
	"errors"
	"fmt"
)

// Sentinel error kinds returned by the client; match them with errors.Is.
var (
	// ErrNetwork covers transport failures and timeouts
	ErrNetwork = errors.New("network error")
	// ErrUnauthorized covers a missing, invalid or expired bearer token
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the backend answers 404
	ErrNotFound = errors.New("not found")
)

// APIError is a backend rejection carrying the `{message}` body
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Message extracts the operator-facing text from err
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
