package book

import (
	"errors"
	"fmt"
)

// Error classes. Use errors.Is to classify a returned error.
var (
	// ErrFormat indicates a malformed record, a bad file size or an unordered file.
	ErrFormat = errors.New("book: invalid format")

	// ErrCapability indicates an operation or field the active book cannot support.
	ErrCapability = errors.New("book: unsupported by active book")

	// ErrNotFound indicates the path is missing or is not a regular file.
	ErrNotFound = errors.New("book: file not found")

	// ErrCodec indicates a move that the compact move encoding cannot represent.
	ErrCodec = errors.New("book: move not representable")

	// ErrImportSource indicates invalid import settings or an unusable source.
	ErrImportSource = errors.New("book: invalid import source")

	// ErrIO indicates an underlying read or write failure.
	ErrIO = errors.New("book: i/o failure")
)

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func capabilityErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCapability, fmt.Sprintf(format, args...))
}

// FormatErrorf returns an error wrapping ErrFormat.
func FormatErrorf(format string, args ...any) error {
	return formatErrorf(format, args...)
}

// IOError wraps err with ErrIO. It returns nil for a nil err.
func IOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
