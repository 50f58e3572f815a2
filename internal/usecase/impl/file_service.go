package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	deliverycontext "github.com/ahmedhassan-hash/go-starter-template/internal/delivery/context"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// fileService implements the FileUsecase interface. Object keys are
// namespaced as "<userID>/<filename>" so users can only address their own
// objects.
type fileService struct {
	storage   service.StorageService
	urlExpiry time.Duration
	logger    *slog.Logger
}

// FileServiceParams holds dependencies for fileService, injected by Fx.
type FileServiceParams struct {
	fx.In

	Storage service.StorageService
	Config  *config.Config
	Logger  *slog.Logger
}

// NewFileService is the constructor for fileService.
func NewFileService(params FileServiceParams) usecase.FileUsecase {
	urlExpiry := 15 * time.Minute
	if params.Config.Storage != nil && params.Config.Storage.SignedURLExpiry > 0 {
		urlExpiry = params.Config.Storage.SignedURLExpiry
	}

	return &fileService{
		storage:   params.Storage,
		urlExpiry: urlExpiry,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *fileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Upload stores the stream under the user's namespace and returns the full object key.
func (srv *fileService) Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (string, error) {
	key, err := objectKey(userID, filename)
	if err != nil {
		return "", err
	}

	if err := srv.storage.Upload(ctx, key, contentType, r); err != nil {
		srv.log(ctx).Error("File upload failed", slog.String("key", key), slog.Any("error", err))

		return "", errors.Wrap(err, "failed to upload object")
	}

	srv.log(ctx).Info("File uploaded", slog.String("key", key))

	return key, nil
}

// Download streams the named object. The caller must close the reader.
func (srv *fileService) Download(ctx context.Context, userID uuid.UUID, filename string) (io.ReadCloser, error) {
	key, err := objectKey(userID, filename)
	if err != nil {
		return nil, err
	}

	rc, err := srv.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, domainerrors.ErrObjectNotFound) {
			return nil, domainerrors.ErrObjectNotFound
		}
		srv.log(ctx).Error("File download failed", slog.String("key", key), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to download object")
	}

	return rc, nil
}

// Delete removes the named object.
func (srv *fileService) Delete(ctx context.Context, userID uuid.UUID, filename string) error {
	key, err := objectKey(userID, filename)
	if err != nil {
		return err
	}

	if err := srv.storage.Delete(ctx, key); err != nil {
		if errors.Is(err, domainerrors.ErrObjectNotFound) {
			return domainerrors.ErrObjectNotFound
		}
		srv.log(ctx).Error("File delete failed", slog.String("key", key), slog.Any("error", err))

		return errors.Wrap(err, "failed to delete object")
	}

	srv.log(ctx).Info("File deleted", slog.String("key", key))

	return nil
}

// List returns the user's stored objects.
func (srv *fileService) List(ctx context.Context, userID uuid.UUID) ([]service.StoredObject, error) {
	prefix := userID.String() + "/"

	objects, err := srv.storage.List(ctx, prefix)
	if err != nil {
		srv.log(ctx).Error("File list failed", slog.String("prefix", prefix), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to list objects")
	}

	// Strip the namespace so callers see their own filenames.
	for i := range objects {
		objects[i].Key = strings.TrimPrefix(objects[i].Key, prefix)
	}

	return objects, nil
}

// SignedURL returns a time-limited direct download URL for the named object.
func (srv *fileService) SignedURL(ctx context.Context, userID uuid.UUID, filename string) (string, error) {
	key, err := objectKey(userID, filename)
	if err != nil {
		return "", err
	}

	url, err := srv.storage.SignedURL(ctx, key, srv.urlExpiry)
	if err != nil {
		srv.log(ctx).Error("Signed URL generation failed", slog.String("key", key), slog.Any("error", err))

		return "", errors.Wrap(err, "failed to sign object URL")
	}

	return url, nil
}

// objectKey builds the namespaced storage key and rejects names that could
// escape the user's prefix.
func objectKey(userID uuid.UUID, filename string) (string, error) {
	if filename == "" ||
		strings.Contains(filename, "/") ||
		strings.Contains(filename, "\\") ||
		strings.Contains(filename, "..") {
		return "", domainerrors.ErrValidationFailed.WrapMessage("invalid filename")
	}

	return userID.String() + "/" + filename, nil
}
