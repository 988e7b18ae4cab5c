// Package blob defines the object storage interface used to distribute
// book files, plus helpers that move books between a store and the local
// filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/discochess/openbook/internal/atomicfile"
)

// ErrNotFound is returned when an object does not exist in the store.
var ErrNotFound = errors.New("blob: object not found")

// Store defines the interface for storage backends.
// Keys are slash-separated and relative to the store's root or prefix.
type Store interface {
	// Read opens the object stored under key.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Write stores the contents of r under key, replacing any existing object.
	Write(ctx context.Context, key string, r io.Reader) error

	// List returns the keys beginning with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Pull downloads key into the local file at path. The local file is
// replaced atomically, so a failed transfer leaves any previous copy intact.
func Pull(ctx context.Context, s Store, key, path string) (int64, error) {
	rc, err := s.Read(ctx, key)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	var n int64
	err = atomicfile.Write(path, func(w io.Writer) error {
		var err error
		n, err = io.Copy(w, rc)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("pulling %s: %w", key, err)
	}
	return n, nil
}

// Push uploads the local file at path under key.
func Push(ctx context.Context, s Store, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := s.Write(ctx, key, f); err != nil {
		return fmt.Errorf("pushing %s: %w", key, err)
	}
	return nil
}
