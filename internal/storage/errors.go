package storage

import "fmt"

// ErrorKind classifies storage failures: I/O against the underlying store,
// a decode failure on a stored record, or a detected consistency violation.
// Kept as a small inspectable enum rather than a family of sentinel errors,
// so callers can match on kind via errors.As without depending on a fixed
// set of exported sentinels.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindStoreIO
	ErrorKindStoreDecode
	ErrorKindInconsistent
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindStoreIO:
		return "StoreIO"
	case ErrorKindStoreDecode:
		return "StoreDecode"
	case ErrorKindInconsistent:
		return "Inconsistent"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with its ErrorKind.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrorKindStoreIO, Cause: err}
}

func wrapDecode(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrorKindStoreDecode, Cause: err}
}

func inconsistent(format string, args ...interface{}) error {
	return &Error{Kind: ErrorKindInconsistent, Cause: fmt.Errorf(format, args...)}
}
