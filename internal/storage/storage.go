// Package storage provides object storage for archived cover images with
// MinIO and Google Cloud Storage backends.
package storage

import (
	"context"
	"io"
)

// ObjectStore holds archived cover images.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}
