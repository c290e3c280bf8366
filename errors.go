package tootle

import "fmt"

// Kind classifies a failure returned by the public API so callers can
// branch on the taxonomy without string-matching error messages.
type Kind int

const (
	// InvalidArgument covers a malformed vertex or index buffer (stride
	// below 3, lengths not a multiple of the record size), an
	// out-of-range cache size, non-finite positions, an out-of-range
	// index, or an unknown winding value. A mesh with zero faces or
	// zero vertices is not rejected.
	InvalidArgument Kind = iota
	// OutOfMemory covers a scratch allocation failure.
	OutOfMemory
	// InternalError indicates an invariant was violated mid-pipeline;
	// it signals a bug in this library, not bad caller input.
	InternalError
	// NotInitialized is returned for an out-of-range VCacheStrategy or
	// OverdrawStrategy value, which is treated as an entry point invoked
	// before its enum was configured. DefaultViewpoints needs no setup
	// call and never produces this kind.
	NotInitialized
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case OutOfMemory:
		return "OutOfMemory"
	case InternalError:
		return "InternalError"
	case NotInitialized:
		return "NotInitialized"
	default:
		return "Unknown"
	}
}

// Error is the error type returned across the tootle public boundary.
// It carries a Kind so callers can distinguish "you gave me bad input"
// from "I hit a bug" without parsing the message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tootle: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("tootle: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf builds an *Error of the given kind with a formatted message.
// If the last argument is an error it is captured as the Cause and
// omitted from the formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	if n := len(args); n > 0 {
		if cause, ok := args[n-1].(error); ok {
			return &Error{Kind: kind, Message: fmt.Sprintf(format, args[:n-1]...), Cause: cause}
		}
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a *tootle.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	te, ok := err.(*Error)
	return ok && te.Kind == kind
}
