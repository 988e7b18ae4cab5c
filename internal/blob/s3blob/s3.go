// Package s3blob implements an AWS S3 storage backend.
package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/openbook/internal/blob"
)

// Compile-time check that Store implements blob.Store.
var _ blob.Store = (*Store)(nil)

// API is the subset of the S3 client used by Store.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time check that the SDK client satisfies API.
var _ API = (*s3.Client)(nil)

// Store is an AWS S3 storage backend.
type Store struct {
	client API
	bucket string
	prefix string
}

type settings struct {
	prefix   string
	region   string
	endpoint string
}

// Option configures a Store.
type Option func(*settings)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = strings.Trim(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *settings) {
		s.region = region
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
// Path-style addressing is enabled with it.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) {
		s.endpoint = endpoint
	}
}

// New creates a new S3 store from the default AWS configuration chain.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	var set settings
	for _, opt := range opts {
		opt(&set)
	}

	var loadOpts []func(*config.LoadOptions) error
	if set.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(set.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if set.endpoint != "" {
			o.BaseEndpoint = aws.String(set.endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: bucketName, prefix: set.prefix}, nil
}

// NewWithClient creates a store on an existing client.
func NewWithClient(client API, bucketName string, opts ...Option) *Store {
	var set settings
	for _, opt := range opts {
		opt(&set)
	}
	return &Store{client: client, bucket: bucketName, prefix: set.prefix}
}

// Read opens the object stored under key.
func (s *Store) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", blob.ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return out.Body, nil
}

// Write uploads r under key. Readers that cannot seek are buffered in
// memory first, because the request signer needs the payload length.
func (s *Store) Write(ctx context.Context, key string, r io.Reader) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("buffering object: %w", err)
		}
		body = bytes.NewReader(data)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        body,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("writing object: %w", err)
	}
	return nil
}

// List returns the keys below the store prefix that begin with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}
