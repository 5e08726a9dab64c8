// Package storage provides blob storage for file contents. Metadata lives
// in Postgres; only the bytes go here.
package storage

import (
	"context"
	"io"
	"time"
)

// BlobStore stores and serves file contents by opaque storage key.
type BlobStore interface {
	// Put uploads a blob under the given key, overwriting any existing object
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// SignedURL returns a time-limited download URL for the blob.
	// The filename is used for the Content-Disposition of the download.
	SignedURL(ctx context.Context, key, filename string, expires time.Duration) (string, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
