package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError is produced when an estimator panics during Fit or Predict.
// gonum reports many shape problems by panicking, so estimator entry points
// defer Recover to turn those into ordinary errors.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String includes the captured stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s", e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError captures the current goroutine stack.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover must be deferred directly by the function whose named error
// result is passed in:
//
//	func (m *Model) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "Model.Fit")
//	    ...
//	}
//
// When an error was already set, the panic is attached to it instead of
// replacing it.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := NewPanicError(operation, r)
	if *err != nil {
		*err = errors.WithSecondaryError(*err, panicErr)
		return
	}
	*err = panicErr
}

// SafeExecute runs fn and converts a panic into a PanicError.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
