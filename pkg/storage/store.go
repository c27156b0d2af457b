package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored object during a listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BlobStore persists and removes image objects. Implementations resolve
// public URLs through their embedded Locator.
type BlobStore interface {
	Locator
	Bucket() string
	Put(ctx context.Context, ref BlobRef, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, ref BlobRef) error
	List(ctx context.Context, prefix string, fn func(ObjectInfo) error) error
}
