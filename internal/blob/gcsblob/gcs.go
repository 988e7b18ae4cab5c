// Package gcsblob implements a Google Cloud Storage backend.
package gcsblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/discochess/openbook/internal/blob"
)

// Compile-time check that Store implements blob.Store.
var _ blob.Store = (*Store)(nil)

// Store is a Google Cloud Storage backend.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// New creates a new GCS store using application default credentials.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return NewWithClient(client, bucketName, opts...), nil
}

// NewWithClient creates a store on an existing client. Close closes the client.
func NewWithClient(client *storage.Client, bucketName string, opts ...Option) *Store {
	s := &Store{
		client: client,
		bucket: client.Bucket(bucketName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = normalizePrefix(prefix)
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// Read opens the object stored under key.
func (s *Store) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.bucket.Object(s.objectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", blob.ErrNotFound, key)
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	return reader, nil
}

// Write uploads r under key. The object becomes visible only once the
// upload completes.
func (s *Store) Write(ctx context.Context, key string, r io.Reader) error {
	w := s.bucket.Object(s.objectName(key)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("uploading object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object: %w", err)
	}
	return nil
}

// List returns the keys below the store prefix that begin with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.objectName(prefix)})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		keys = append(keys, s.keyOf(attrs.Name))
	}
	return keys, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// objectName returns the full object name for a key.
func (s *Store) objectName(key string) string {
	return s.prefix + key
}

// keyOf strips the store prefix from an object name.
func (s *Store) keyOf(name string) string {
	return strings.TrimPrefix(name, s.prefix)
}
