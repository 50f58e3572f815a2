package usecase

import (
	"context"
	"io"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"

	"github.com/google/uuid"
)

// FileUsecase defines per-user object storage operations. Every key is
// namespaced under the owning user's ID; one user can never address
// another user's objects.
type FileUsecase interface {
	// Upload stores the stream under the user's namespace and returns the
	// full object key.
	Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (string, error)

	// Download streams the named object. The caller must close the reader.
	Download(ctx context.Context, userID uuid.UUID, filename string) (io.ReadCloser, error)

	// Delete removes the named object.
	Delete(ctx context.Context, userID uuid.UUID, filename string) error

	// List returns the user's stored objects.
	List(ctx context.Context, userID uuid.UUID) ([]service.StoredObject, error)

	// SignedURL returns a time-limited direct download URL for the named object.
	SignedURL(ctx context.Context, userID uuid.UUID, filename string) (string, error)
}
