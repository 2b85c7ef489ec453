package dbf

import (
	"github.com/pkg/errors"
)

// Error classes. Every error returned by this package matches exactly one of them with errors.Is.
var (
	ErrConfiguration = errors.New("dbf: configuration error")
	ErrValue         = errors.New("dbf: value error")
	ErrFormat        = errors.New("dbf: format error")
	ErrIO            = errors.New("dbf: io error")
)

var (
	ErrInvalidField     = newKind(ErrConfiguration, "invalid field")
	ErrFieldsNotSet     = newKind(ErrConfiguration, "fields not set")
	ErrDuplicateField   = newKind(ErrConfiguration, "duplicate field name")
	ErrAlreadyFinalized = newKind(ErrConfiguration, "already finalized")
	ErrUnknownCharset   = newKind(ErrConfiguration, "unknown charset")

	ErrTypeMismatch   = newKind(ErrValue, "type mismatch")
	ErrValueOverflow  = newKind(ErrValue, "value overflow")
	ErrArityMismatch  = newKind(ErrValue, "value count does not match field count")
	ErrInvalidDate    = newKind(ErrValue, "invalid date")
	ErrTooManyRecords = newKind(ErrValue, "record count exceeds 32 bits")

	ErrCorruptHeader      = newKind(ErrFormat, "corrupt header")
	ErrCorruptRecord      = newKind(ErrFormat, "corrupt record")
	ErrInconsistentFields = newKind(ErrFormat, "inconsistent fields")
	ErrMissingEOF         = newKind(ErrFormat, "missing end-of-file marker")

	ErrWrite = newKind(ErrIO, "write failed")
	ErrRead  = newKind(ErrIO, "read failed")
)

type kindError struct {
	class error
	msg   string
}

func newKind(class error, msg string) error {
	return &kindError{class: class, msg: msg}
}

func (e *kindError) Error() string { return "dbf: " + e.msg }

func (e *kindError) Unwrap() error { return e.class }

// IOError wraps a failure of the underlying file or stream.
// It matches both its Kind (ErrRead or ErrWrite) and the transport error.
type IOError struct {
	Kind error
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return e.Kind.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() []error { return []error{e.Kind, e.Err} }

func readErr(op string, err error) error {
	return &IOError{Kind: ErrRead, Op: op, Err: err}
}

func writeErr(op string, err error) error {
	return &IOError{Kind: ErrWrite, Op: op, Err: err}
}
