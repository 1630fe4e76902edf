// Package protocol defines the network-facing message envelope and the
// closed set of errors handed to the networking layer.
package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a protocol error. Codes are stable across
// implementations and must never be renumbered.
type Kind int

const (
	KindNoSuchMessage      Kind = 1
	KindParseMessageFailed Kind = 2
	KindDefault            Kind = 100
)

// Code returns the integer code of the kind.
func (k Kind) Code() int { return int(k) }

// Description returns the human-readable description of the kind.
func (k Kind) Description() string {
	switch k {
	case KindNoSuchMessage:
		return "No such message"
	case KindParseMessageFailed:
		return "Parse message failed"
	default:
		return "default exception"
	}
}

func (k Kind) String() string {
	return fmt.Sprintf("%d, %s", k.Code(), k.Description())
}

// Error is an error that signifies a violation of the wire protocol by
// the remote side.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return e.Kind.Description() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf formats according to a format specifier and returns the string
// as a value that satisfies error.
// Errorf also records the stack trace at the point it was called.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{
		Kind:  kind,
		Cause: errors.Errorf(format, args...),
	}
}

// New returns an error with the supplied message.
// New also records the stack trace at the point it was called.
func New(kind Kind, message string) error {
	return &Error{
		Kind:  kind,
		Cause: errors.New(message),
	}
}

// Wrap returns an error annotating err with a stack trace
// at the point Wrap is called, and the supplied message.
func Wrap(kind Kind, err error, message string) error {
	return &Error{
		Kind:  kind,
		Cause: errors.Wrap(err, message),
	}
}

// KindOf returns the kind of the first protocol error in err's chain.
// Errors that are not protocol errors report KindDefault; nil reports 0.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindDefault
}
