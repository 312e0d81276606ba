package assistant

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable matches every failure to get a usable answer from
// the assistant service: transport errors, non-2xx statuses and malformed
// bodies alike.
var ErrServiceUnavailable = errors.New("assistant service unavailable")

// ServiceError describes a failed remote operation
type ServiceError struct {
	Op         string // "create_session", "send_text", "send_image", "delete_session", "health"
	StatusCode int    // 0 when the request never got a response
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", ErrServiceUnavailable, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrServiceUnavailable, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}
