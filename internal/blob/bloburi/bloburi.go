// Package bloburi maps book locations such as gs://bucket/key,
// s3://bucket/key and local paths onto blob stores.
package bloburi

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/discochess/openbook/internal/blob"
	"github.com/discochess/openbook/internal/blob/diskblob"
	"github.com/discochess/openbook/internal/blob/gcsblob"
	"github.com/discochess/openbook/internal/blob/s3blob"
)

// Scheme names a storage backend.
type Scheme string

const (
	SchemeFile Scheme = "file"
	SchemeGCS  Scheme = "gs"
	SchemeS3   Scheme = "s3"
)

// Location is a parsed book location.
// For SchemeFile, Bucket is the directory and Key the file name.
type Location struct {
	Scheme Scheme
	Bucket string
	Key    string
}

// String formats the location back into URI form.
func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return filepath.Join(l.Bucket, filepath.FromSlash(l.Key))
	}
	return string(l.Scheme) + "://" + l.Bucket + "/" + l.Key
}

// Parse interprets uri. Strings without a gs:// or s3:// scheme are local
// paths; a file:// prefix is accepted and stripped.
func Parse(uri string) (Location, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return localLocation(uri)
	}
	switch Scheme(strings.ToLower(scheme)) {
	case SchemeFile:
		u, err := url.Parse(uri)
		if err != nil {
			return Location{}, fmt.Errorf("parsing %q: %w", uri, err)
		}
		return localLocation(u.Path)
	case SchemeGCS, SchemeS3:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
			return Location{}, fmt.Errorf("%q: want %s://bucket/key", uri, scheme)
		}
		return Location{Scheme: Scheme(strings.ToLower(scheme)), Bucket: bucket, Key: key}, nil
	}
	return Location{}, fmt.Errorf("%q: unsupported scheme %q", uri, scheme)
}

func localLocation(path string) (Location, error) {
	if path == "" {
		return Location{}, fmt.Errorf("empty path")
	}
	dir, file := filepath.Split(filepath.Clean(path))
	if file == "" || file == "." || file == string(filepath.Separator) {
		return Location{}, fmt.Errorf("%q does not name a file", path)
	}
	if dir == "" {
		dir = "."
	}
	return Location{Scheme: SchemeFile, Bucket: dir, Key: file}, nil
}

// Open parses uri and opens the store holding it. The returned key
// addresses the object within that store.
func Open(ctx context.Context, uri string) (blob.Store, string, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, "", err
	}
	var s blob.Store
	switch loc.Scheme {
	case SchemeFile:
		s, err = diskblob.New(loc.Bucket)
	case SchemeGCS:
		s, err = gcsblob.New(ctx, loc.Bucket)
	case SchemeS3:
		s, err = s3blob.New(ctx, loc.Bucket)
	}
	if err != nil {
		return nil, "", fmt.Errorf("opening %s store: %w", loc.Scheme, err)
	}
	return s, loc.Key, nil
}
