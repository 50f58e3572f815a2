package service

import (
	"context"
	"io"
	"time"
)

// StoredObject describes one object in the bucket listing.
type StoredObject struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// StorageService defines the interface for object storage operations.
// Implementations are thin adapters over a managed bucket; no caching or
// consistency logic lives here.
type StorageService interface {
	// Upload writes the contents of r to the bucket under key.
	Upload(ctx context.Context, key string, contentType string, r io.Reader) error

	// Download streams the object at key. The caller must close the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Deleting a missing key is an error.
	Delete(ctx context.Context, key string) error

	// List returns objects whose keys start with prefix.
	List(ctx context.Context, prefix string) ([]StoredObject, error)

	// SignedURL returns a time-limited URL granting direct read access to key.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
