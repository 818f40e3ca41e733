// Package errors provides coded errors for ddlayout.
//
// Library packages return plain sentinel errors wrapped with fmt.Errorf. The
// CLI maps them onto a [Code] with [Classify] before printing, so scripts can
// tell a bad document from a bad config file:
//
//	err = errors.Classify(err,
//	    errors.Mapping{Target: dag.ErrUnknownNode, Code: errors.ErrCodeUnknownNode},
//	    errors.Mapping{Target: fs.ErrNotExist, Code: errors.ErrCodeFileNotFound},
//	)
//	fmt.Fprintln(os.Stderr, errors.UserMessage(err))
//
// Invariant violations inside the layout pipeline (an ordering strategy that
// returns something other than a permutation) are defects and panic with an
// [InvariantError] instead of returning an error.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// Bad input
	ErrCodeInvalidInput  Code = "INVALID_INPUT" // document could not be decoded
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH" // document decoded but is not a diagram
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Dangling references
	ErrCodeUnknownNode  Code = "UNKNOWN_NODE"
	ErrCodeUnknownGroup Code = "UNKNOWN_GROUP"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Collaborators
	ErrCodeDiscovery Code = "DISCOVERY"
	ErrCodeRender    Code = "RENDER"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is an error with a code. Message may be empty when the cause says
// everything.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Cause == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Mapping assigns a code to every error matching Target with errors.Is.
type Mapping struct {
	Target error
	Code   Code
}

// Classify gives err the code of the first matching mapping. Errors that
// already carry a code, and errors nothing matches, are returned unchanged.
func Classify(err error, mappings ...Mapping) error {
	if err == nil || GetCode(err) != "" {
		return err
	}
	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			return &Error{Code: m.Code, Cause: err}
		}
	}
	return err
}

// UserMessage renders err without code prefixes. Causes of coded errors are
// kept, so "decode toml: line 3: expected '='" survives.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	cause := UserMessage(e.Cause)
	if e.Message == "" {
		return cause
	}
	return e.Message + ": " + cause
}

// InvariantError reports a broken layout invariant. It is the panic value used
// when a plugged-in strategy returns an invalid result.
type InvariantError struct {
	Strategy string // Name of the offending strategy
	Message  string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("invariant violated by %s: %s", e.Strategy, e.Message)
	}
	return "invariant violated: " + e.Message
}

// Code returns the error code for this error type.
func (e *InvariantError) Code() Code {
	return ErrCodeInternal
}
