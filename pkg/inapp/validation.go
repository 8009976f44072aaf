package inapp

import "sync"

// ValidationHandler decides whether a raw vendor receipt grants a
// purchase. Implementations may finish the completion synchronously or
// asynchronously; the completion token guarantees the decision is
// delivered at most once either way.
type ValidationHandler interface {
	Validate(receipt, productID string, completion *ValidationCompletion)
}

// ValidationHandlerFunc is an adapter to allow the use of ordinary
// functions as ValidationHandlers.
type ValidationHandlerFunc func(receipt, productID string, completion *ValidationCompletion)

// Validate calls f(receipt, productID, completion).
func (f ValidationHandlerFunc) Validate(receipt, productID string, completion *ValidationCompletion) {
	f(receipt, productID, completion)
}

// ValidationCompletion correlates an asynchronous validation decision
// back to the purchase awaiting confirmation. Finish(nil) accepts the
// receipt, Finish(err) rejects it; only the first call has any effect.
type ValidationCompletion struct {
	once sync.Once
	fn   func(err *Error)
}

// NewValidationCompletion wraps fn in an exactly-once completion token.
func NewValidationCompletion(fn func(err *Error)) *ValidationCompletion {
	return &ValidationCompletion{fn: fn}
}

// Finish delivers the validation decision. Calls after the first are
// no-ops.
func (c *ValidationCompletion) Finish(err *Error) {
	c.once.Do(func() { c.fn(err) })
}
