package custom_errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTimeout is matched by errors.Is when a request did not complete within
// the client timeout.
var ErrTimeout = errors.New("request timed out")

// ErrPreferenceNotFound is returned by preference stores for an empty slot.
var ErrPreferenceNotFound = errors.New("preference not found")

// StatusError is returned for any response outside the 2xx range. The body is
// kept as received, it is not interpreted.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == code
	}
	return false
}

// TimeoutError wraps the transport error of a request that hit the deadline.
type TimeoutError struct {
	Method string
	Path   string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Method, e.Path, ErrTimeout, e.Err)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{ErrTimeout, e.Err}
}
