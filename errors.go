package openbook

import (
	"errors"

	"github.com/discochess/openbook/internal/book"
)

// Error classes. Use errors.Is to classify a returned error.
var (
	// ErrFormat indicates a malformed or unordered book file, a wrong file
	// size, or a path whose extension does not match the book format.
	ErrFormat = book.ErrFormat

	// ErrCapability indicates a field or operation the active book cannot
	// support, such as a comment in an Apery book or saving an on-the-fly book.
	ErrCapability = book.ErrCapability

	// ErrNotFound indicates that the path to open is missing or not a regular file.
	ErrNotFound = book.ErrNotFound

	// ErrCodec indicates a move the compact move encoding cannot represent.
	ErrCodec = book.ErrCodec

	// ErrImportSource indicates invalid import settings or an unusable source.
	ErrImportSource = book.ErrImportSource

	// ErrIO indicates an underlying read or write failure.
	ErrIO = book.ErrIO

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("openbook: store closed")

	// ErrBusy indicates an import is running on the active book.
	ErrBusy = errors.New("openbook: import in progress")
)
