// Package poskey derives the lookup key of a position for each book format.
package poskey

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/discochess/openbook/internal/book"
)

// Hasher maps a position string to a 64-bit hash.
type Hasher interface {
	// Name returns a short identifier such as "xxhash".
	Name() string

	// Hash computes the hash of the position string.
	Hash(position string) uint64
}

// Key returns the book key of position for format f.
// Text books are keyed by the position itself. Binary books are keyed by
// the 16 lowercase hex characters of the hash bytes as written to disk.
func Key(f book.Format, h Hasher, position string) string {
	if f != book.FormatApery {
		return position
	}
	return HashKey(h.Hash(position))
}

// HashKey returns the hex form of hash in little-endian byte order.
func HashKey(hash uint64) string {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], hash)
	return hex.EncodeToString(b[:])
}

// KeyBytes decodes a hex key back into its 8 on-disk bytes.
func KeyBytes(key string) ([8]byte, error) {
	var b [8]byte
	if len(key) != 16 {
		return b, book.FormatErrorf("hash key %q is not 16 hex characters", key)
	}
	if _, err := hex.Decode(b[:], []byte(key)); err != nil {
		return b, book.FormatErrorf("hash key %q: %v", key, err)
	}
	return b, nil
}
