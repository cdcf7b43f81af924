package exit

import (
	"errors"
	"fmt"
)

const (

	// The job completed.
	OK = 0

	// Unrecoverable setup or I/O failure, and any untyped error.
	Failure = 1

	// The supervisor deadline elapsed before the job reported.
	Timeout = 32
)

// An error that ends the process with a specific exit code.
type Error struct {
	Code int   // Process exit code.
	Err  error // Underlying cause. May be nil.
}

// Creates an [*Error] with the given code and cause.
func New(code int, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Returns the exit code for err.
//
// Nil maps to [OK]. The code of the outermost [*Error] in the chain wins;
// any other error maps to [Failure].
func Code(err error) int {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Failure
}
