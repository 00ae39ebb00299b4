package remo

import (
	"fmt"
)

// UpstreamError is returned when the vendor API answers with a non-2xx status.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remo %s: upstream status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("remo %s: upstream status %d: %s", e.Op, e.Status, e.Body)
}

// TransportError covers everything that prevented a usable vendor response:
// network failures, timeouts, unreadable bodies and an open circuit breaker.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remo %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
