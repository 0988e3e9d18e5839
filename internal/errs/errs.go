// Package errs provides the structured error type shared by every stage of the
// pipeline. Import it as errs; the standard library package stays "errors".
package errs

import (
	stderrs "errors"
	"fmt"
)

// Kind classifies a failure. Values are stable; add sparingly.
type Kind uint8

const (
	// KindUnknown is for unclassified errors
	KindUnknown Kind = iota

	// KindInputNotFound is for a missing input file
	KindInputNotFound

	// KindInputUnreadable is for an input that exists but cannot be read
	KindInputUnreadable

	// KindInputIsDirectory is for an input path naming a directory
	KindInputIsDirectory

	// KindInputMalformed is for FASTA content that violates the record layout
	KindInputMalformed

	// KindRemoteCallFailed is for a per-item search failure
	KindRemoteCallFailed

	// KindResourceCloseFailed is for a failure releasing a reader, sink or session
	KindResourceCloseFailed

	// KindDrainTimeout is for in-flight work outliving the drain deadline
	KindDrainTimeout

	// KindConfig is for invalid configuration or flags
	KindConfig

	// KindOutputUnwritable is for an output path that cannot be created
	KindOutputUnwritable
)

var kindNames = [...]string{
	KindUnknown:             "unknown",
	KindInputNotFound:       "input_not_found",
	KindInputUnreadable:     "input_unreadable",
	KindInputIsDirectory:    "input_is_directory",
	KindInputMalformed:      "input_malformed",
	KindRemoteCallFailed:    "remote_call_failed",
	KindResourceCloseFailed: "resource_close_failed",
	KindDrainTimeout:        "drain_timeout",
	KindConfig:              "config",
	KindOutputUnwritable:    "output_unwritable",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error carries a kind, a message, an optional operation label and the wrapped cause.
type Error struct {
	orig error
	msg  string
	kind Kind
	op   string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.msg
	if e.op != "" {
		msg = e.op + ": " + msg
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", msg, e.orig)
	}
	return msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error kind
func (e *Error) Kind() Kind { return e.kind }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// New returns a new *Error with the given kind and message
func New(kind Kind, msg string) error { return &Error{kind: kind, msg: msg} }

// Newf returns a new *Error with kind and formatted message
func Newf(kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig
func Wrap(orig error, kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with a formatted message
func Wrapf(orig error, kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WithOp attaches an operation label (copy-on-write). Foreign errors are returned unchanged.
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf extracts the Kind from any error, defaulting to KindUnknown
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind anywhere in its chain
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.kind == kind {
			return true
		}
		err = stderrs.Unwrap(err)
	}
	return false
}
