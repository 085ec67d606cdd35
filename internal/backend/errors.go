package backend

import (
	"errors"
	"fmt"
)

// ServerError is a non-2xx response from the CRM backend.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// IsRetryable reports whether err is transient: transport failures and 5xx
// responses. 4xx responses are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status >= 500
	}
	return true
}
