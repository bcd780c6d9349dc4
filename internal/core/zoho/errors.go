package zoho

import (
	"errors"
	"fmt"
	"net/http"
)

// Status classes of an APIError, matched with errors.Is.
var (
	ErrUnauthorized = errors.New("zoho: unauthorized")
	ErrConflict     = errors.New("zoho: conflict")
	ErrBadRequest   = errors.New("zoho: bad request")
	ErrNotFound     = errors.New("zoho: not found")
)

// APIError is a non-2xx answer from Zoho Books.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("zoho API error (status: %d)", e.StatusCode)
	}
	return fmt.Sprintf("zoho API error (status: %d, code: %d): %s", e.StatusCode, e.Code, e.Message)
}

// Is maps the HTTP status onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
