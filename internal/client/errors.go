package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBaseURLRequired = errors.New("client: base URL is required")
	ErrMissingToken    = errors.New("client: token response has no token")
	ErrNotSignedIn     = errors.New("client: no session token")
)

// HTTPStatusError is returned for any response with status >= 400.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	// Message is the server's error message, when it sent one.
	Message string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "http request failed"
	}
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("http status %d", e.StatusCode)
	}
	if e.Message != "" {
		return status + ": " + e.Message
	}
	return status
}

// IsUnauthorized reports whether err is a 401 or 403 from the server.
func IsUnauthorized(err error) bool {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
}
