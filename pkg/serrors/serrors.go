// Package serrors defines the failure kinds of the logo pipeline and an error
// type that carries a kind next to an optional cause and message.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a failure category. Only NewKind creates kinds.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a comparable kind sentinel named name.
func NewKind(name string) Kind { return kind{s: name} }

// Per-domain and per-file kinds never abort a run; they decide how an outcome
// is logged, counted and reported. Match them with errors.Is.
var (
	// ErrNetwork indicates a transport failure: timeout, refused connection or
	// a TLS negotiation the server and the configured policy could not agree on.
	ErrNetwork = NewKind("NETWORK")
	// ErrNoLogo indicates that every resolution tier was exhausted for a domain.
	ErrNoLogo = NewKind("NO_LOGO")
	// ErrDownload indicates a non-success status or a failure while writing the body.
	ErrDownload = NewKind("DOWNLOAD")
	// ErrImageDecode indicates a corrupt, oversized or unsupported image file.
	ErrImageDecode = NewKind("IMAGE_DECODE")
	// ErrFileCopy indicates a failure while copying a file into its group.
	ErrFileCopy = NewKind("FILE_COPY")
	// ErrNotFound indicates a missing logo directory, a CDN miss or a homepage
	// without a usable answer. It is an expected, quiet failure.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrBadRequest indicates invalid input: a rejected domain list row or a
	// domain list that cannot be parsed.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrTimeout indicates the context ended while waiting, typically on the
	// CDN rate limit. Tasks stop instead of trying the next tier.
	ErrTimeout = NewKind("TIMEOUT")
	// ErrInternal indicates an unexpected failure, such as a recovered panic.
	ErrInternal = NewKind("INTERNAL")
)

// Error is an error of a given Kind with an optional message and cause.
// errors.Is and errors.As match both the kind and the cause chain.
//
// It prints as "<msg>: <cause>", or whichever of the two is set, or the kind.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With returns an error of kind k with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap returns an error of kind k wrapping err, with a formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly returns an error of kind k without message or cause.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the kind of e or is in its cause chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}

	return (e.kind != nil && errors.Is(e.kind, target)) || (e.err != nil && errors.Is(e.err, target))
}

// As sets target to the kind of e or to a matching error of its cause chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}

	return (e.kind != nil && errors.As(e.kind, target)) || (e.err != nil && errors.As(e.err, target))
}

// Kind returns the kind of e, or nil.
func (e *Error) Kind() Kind { return e.kind }

// KindName returns the name of the outermost kind in the chain of err, or
// "UNKNOWN" when err carries no kind. It is meant for log fields.
func KindName(err error) string {
	var e *Error
	if errors.As(err, &e) && e.kind != nil {
		return e.kind.Error()
	}

	return "UNKNOWN"
}
