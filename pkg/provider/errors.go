package provider

import (
	"errors"
	"fmt"
)

// ErrAuthExpired means the provider rejected a freshly acquired token:
// one refresh-and-retry already happened and a second 401 came back.
// Callers must treat this as fatal rather than retry again.
var ErrAuthExpired = errors.New("provider authorization expired after token refresh")

// Error carries the upstream status and body of a failed provider call
// so callers can decide recovery and operators can diagnose.
type Error struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s failed: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}
