package localcache

import (
	"errors"
	"fmt"
)

// Kind classifies an error returned by cache operations.
// Callers switch on the kind instead of matching concrete error values.
type Kind int

const (
	// KindValidation marks a caller contract violation: an invalid key or an
	// empty path list. Raised before any I/O and never suppressed.
	KindValidation Kind = iota + 1

	// KindExpansion marks a path list where no entry resolved to an existing
	// filesystem path. Never suppressed.
	KindExpansion

	// KindArchive marks a failed pack or unpack of a bundle. The only kind
	// whose visibility is controlled by Config.SkipFailure.
	KindArchive
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindExpansion:
		return "expansion"
	case KindArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// Error is the closed error type for cache operations. It carries a kind tag,
// the operation it occurred in, a message, and an optional wrapped cause.
type Error struct {
	Kind Kind
	Op   string // "save", "restore", ...
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s error: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates an Error with a formatted message.
func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return hasKind(err, KindValidation) }

// IsExpansion reports whether err is a path expansion error.
func IsExpansion(err error) bool { return hasKind(err, KindExpansion) }

// IsArchive reports whether err is an archive tool failure.
func IsArchive(err error) bool { return hasKind(err, KindArchive) }

func hasKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
