// Package rerrors holds the error types shared across marsha's packages.
// It provides the Error type, which can be created with one or more
// "cause" errors; calling errors.Is on it with any of those causes
// returns true. It also holds the sentinel error values used across
// the module.
package rerrors

import "errors"

var (
	ErrNotFound       = errors.New("the requested entity could not be found")
	ErrAlreadyExists  = errors.New("resource with same identifying information already exists")
	ErrInvalidGrammar = errors.New("grammar is invalid")
	ErrStore          = errors.New("an error occurred with the store")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrUnauthorized   = errors.New("missing or invalid credentials")
)

// Error is a typed error. It contains a message and zero or more causes. Error
// is compatible with errors.Is: calling errors.Is on an Error with any of its
// causes as the target returns true.
type Error struct {
	msg   string
	cause []error
}

// New creates an Error with the given message and optional causes.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// WrapStore wraps err as a cause and adds ErrStore as another cause.
func WrapStore(msg string, err error) Error {
	return Error{msg: msg, cause: []error{err, ErrStore}}
}

func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}
	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg && len(e.cause) == len(errTarget.cause) {
			allEqual := true
			for i := range e.cause {
				if e.cause[i] != errTarget.cause[i] {
					allEqual = false
					break
				}
			}
			if allEqual {
				return true
			}
		}
	}
	for i := range e.cause {
		if e.cause[i] == target {
			return true
		}
	}
	return false
}

// Assertion is the panic value raised when a recognizer-internal invariant
// is violated. It is never meant to surface to a user; per spec, these
// indicate either a recognizer bug or an inconsistent Grammar collaborator,
// not a recoverable error condition.
type Assertion struct {
	Msg string
}

func (a Assertion) Error() string {
	return "assertion failed: " + a.Msg
}

// Assert panics with an Assertion if cond is false.
func Assert(cond bool, msg string) {
	if !cond {
		panic(Assertion{Msg: msg})
	}
}
