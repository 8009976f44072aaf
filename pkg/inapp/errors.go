package inapp

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRequired is returned when a Service is built without a
	// key-value store.
	ErrStoreRequired = errors.New("inapp: key-value store is required")

	// ErrClientRequired is returned when an adapter is built without its
	// vendor client.
	ErrClientRequired = errors.New("inapp: vendor client is required")
)

// Error is the failure value delivered through completion callbacks and
// observer events. Code carries the vendor-specific or HTTP code where one
// exists and is 0 otherwise. Errors never cross the public boundary as
// panics or raw error values; they always arrive through a callback.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds an Error from a code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf builds an Error with a formatted message and code 0.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// WrapError converts a caught error into a callback Error with code 0.
func WrapError(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: err.Error()}
}

// ServiceUnavailableError is the error reported when the vendor store
// connection is not established.
func ServiceUnavailableError() *Error {
	return &Error{Message: "store service is not connected"}
}
