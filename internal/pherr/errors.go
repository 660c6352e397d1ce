// Package pherr implements the error taxonomy from the design: FormatError
// for fatal, un-recoverable decode failures and ResourceError for I/O
// failures on the snapshot or cache file. Both wrap their cause with
// github.com/pkg/errors so a stack trace survives up to the CLI, the way
// zchee-go-qcow2's write.go wraps every fallible write with
// errors.Wrap(err, "...").
package pherr

import "github.com/pkg/errors"

// FormatError reports that a snapshot failed the magic check, the version
// check, has a truncated primitive, an out-of-range frequent-attribute
// index, or a string length beyond the remaining buffer. It is always
// fatal: the reader returns no partial result.
type FormatError struct {
	cause error
}

func (e *FormatError) Error() string { return "format error: " + e.cause.Error() }
func (e *FormatError) Unwrap() error { return e.cause }

// NewFormatError builds a FormatError from a message.
func NewFormatError(format string, args ...any) error {
	return &FormatError{cause: errors.Errorf(format, args...)}
}

// WrapFormatError wraps err as a FormatError, adding msg as context.
func WrapFormatError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &FormatError{cause: errors.Wrap(err, msg)}
}

// IsFormatError reports whether err is (or wraps) a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// ResourceError reports an I/O failure on the snapshot or cache file
// (permission, missing file, device error). It is surfaced to the caller
// verbatim, with no retry.
type ResourceError struct {
	cause error
}

func (e *ResourceError) Error() string { return "resource error: " + e.cause.Error() }
func (e *ResourceError) Unwrap() error { return e.cause }

// WrapResourceError wraps err as a ResourceError, adding msg as context.
func WrapResourceError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ResourceError{cause: errors.Wrap(err, msg)}
}

// IsResourceError reports whether err is (or wraps) a ResourceError.
func IsResourceError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}
