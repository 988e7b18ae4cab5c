// Package codec provides compression and decompression for book files.
//
// Compressed books are named after the book with a trailing compression
// suffix, for example "user_book1.db.zst". A Registry picks the codec for
// a path from that suffix.
package codec

import (
	"io"
	"strings"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file suffix including the dot (e.g., ".zst", ".gz").
	// Returns empty string for no compression.
	Extension() string
}

// Registry maps compression suffixes to codecs.
type Registry struct {
	fallback Codec
	codecs   []Codec
}

// NewRegistry returns a registry of codecs. fallback serves paths without
// a known suffix and should be a pass-through codec.
func NewRegistry(fallback Codec, codecs ...Codec) *Registry {
	return &Registry{fallback: fallback, codecs: codecs}
}

// ForPath returns the codec whose extension ends path, case-insensitively.
// compressed is false when the fallback was chosen.
func (r *Registry) ForPath(path string) (c Codec, compressed bool) {
	lower := strings.ToLower(path)
	for _, c := range r.codecs {
		if ext := c.Extension(); ext != "" && strings.HasSuffix(lower, ext) {
			return c, true
		}
	}
	return r.fallback, false
}

// Extensions lists the suffixes of the registered codecs.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.codecs))
	for _, c := range r.codecs {
		exts = append(exts, c.Extension())
	}
	return exts
}
