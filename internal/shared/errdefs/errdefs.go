// Package errdefs defines the error taxonomy shared by the session, process
// and watch managers.
//
// Every failure returned from a manager is an *Error carrying a Kind. Callers
// branch on the kind with errors.Is against the package sentinels:
//
//	if errors.Is(err, errdefs.ErrNotFound) { ... }
//
// The API layer maps kinds to transport status codes with KindOf.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindInvalid       Kind = "invalid"
	KindSpawn         Kind = "spawn_error"
	KindIO            Kind = "io_error"
	KindNotInstalled  Kind = "not_installed"
	KindPortExhausted Kind = "port_exhausted"
	KindStartTimeout  Kind = "start_timeout"
	KindInternal      Kind = "internal"
)

// Sentinels matched by errors.Is.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrInvalid       = &Error{Kind: KindInvalid}
	ErrSpawn         = &Error{Kind: KindSpawn}
	ErrIO            = &Error{Kind: KindIO}
	ErrNotInstalled  = &Error{Kind: KindNotInstalled}
	ErrPortExhausted = &Error{Kind: KindPortExhausted}
	ErrStartTimeout  = &Error{Kind: KindStartTimeout}
)

// Error is a classified failure. Msg is the user-facing text; Err is the
// underlying cause and is appended verbatim.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so that any *Error matches the sentinel of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// New creates a classified error with a formatted message.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(kind Kind, op string, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports an unknown session, watch or path.
func NotFound(op, format string, args ...interface{}) *Error {
	return New(KindNotFound, op, format, args...)
}

// Invalid reports a malformed request.
func Invalid(op, format string, args ...interface{}) *Error {
	return New(KindInvalid, op, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
