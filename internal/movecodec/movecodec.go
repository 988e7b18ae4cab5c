// Package movecodec converts between textual move notation and the
// 16-bit move encoding stored in binary books.
package movecodec

import (
	"fmt"

	"github.com/discochess/openbook/internal/book"
)

// ErrUnrepresentable indicates a move or code that has no counterpart in
// the other notation. It matches book.ErrCodec under errors.Is.
var ErrUnrepresentable = fmt.Errorf("movecodec: unrepresentable move: %w", book.ErrCodec)

// Codec converts moves to and from the compact 16-bit encoding.
type Codec interface {
	// Name returns a short identifier such as "usi".
	Name() string

	// ToCompact encodes a move in textual notation.
	ToCompact(move string) (uint16, error)

	// FromCompact decodes a 16-bit move code.
	FromCompact(code uint16) (string, error)
}

// Errorf returns an error wrapping ErrUnrepresentable.
func Errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnrepresentable, fmt.Sprintf(format, args...))
}
