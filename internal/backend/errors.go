package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Collaborator errors.
var (
	ErrUnauthorized = errors.New("collaborator rejected credentials")
	ErrNotFound     = errors.New("collaborator resource not found")
	ErrMalformed    = errors.New("collaborator response malformed")
)

// StatusError reports a non-2xx collaborator response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Is matches 401/403 to ErrUnauthorized and 404 to ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// MapHTTPStatus maps collaborator errors to the status a view should answer with.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
