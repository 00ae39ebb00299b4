package service

import (
	"errors"
	"net/http"
)

// ErrMissingToken means the vendor token is not configured. Every proxy call
// fails with it until the service is restarted with REMO_TOKEN set.
var ErrMissingToken = errors.New("remo token is not configured")

// ValidationError is a rejected request: bad path parameter or wrong method.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidParam(message string) *ValidationError {
	return &ValidationError{Status: http.StatusBadRequest, Message: message}
}

// MethodNotAllowed is returned for a non-POST aircon settings call.
func MethodNotAllowed() *ValidationError {
	return &ValidationError{Status: http.StatusMethodNotAllowed, Message: "Method Not Allowed"}
}
