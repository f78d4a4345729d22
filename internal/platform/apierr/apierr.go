package apierr

import (
	"errors"
	"fmt"
)

// Error is a transport-level failure that already knows the HTTP status it
// should surface as. Upstream provider errors are wrapped in one of these so
// the response layer can map them without inspecting provider internals.
type Error struct {
	Status int
	Code   string
	Err    error
}

// Newf builds an Error carrying a formatted message.
func Newf(status int, code string, format string, args ...any) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}

// From extracts the first *Error in err's chain, if any.
func From(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("api error (%d)", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }
