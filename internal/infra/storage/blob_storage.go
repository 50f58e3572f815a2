// Package storage implements the object storage adapter on top of
// gocloud.dev blob buckets. The bucket URL scheme selects the backing
// provider (s3://, gs:// or file:// for local development).
package storage

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/lifecycle"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Register bucket URL schemes.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

const defaultSignedURLExpiry = 15 * time.Minute

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

type blobStorage struct {
	bucket        *blob.Bucket
	defaultExpiry time.Duration
}

// New opens the configured bucket and returns it as a StorageService.
func New(params Params) (service.StorageService, error) {
	if params.Config.Storage == nil || params.Config.Storage.BucketURL == "" {
		return nil, errors.New("storage bucket URL must be provided")
	}

	bucket, err := blob.OpenBucket(params.Ctx, params.Config.Storage.BucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", params.Config.Storage.BucketURL)
	}

	expiry := params.Config.Storage.SignedURLExpiry
	if expiry <= 0 {
		expiry = defaultSignedURLExpiry
	}

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			// Probe the bucket so misconfiguration fails at startup, not on
			// the first upload.
			if _, err := bucket.IsAccessible(ctx); err != nil {
				return errors.Wrap(err, "failed to access storage bucket")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			params.Logger.Info("Closing storage bucket")

			return bucket.Close()
		},
	})

	return &blobStorage{
		bucket:        bucket,
		defaultExpiry: expiry,
	}, nil
}

// Upload writes the contents of r to the bucket under key.
func (s *blobStorage) Upload(ctx context.Context, key string, contentType string, r io.Reader) error {
	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to open writer for %s", key)
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()

		return errors.Wrapf(err, "failed to write object %s", key)
	}

	return errors.Wrapf(w.Close(), "failed to finalize object %s", key)
}

// Download streams the object at key. The caller must close the reader.
func (s *blobStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, domainerrors.ErrObjectNotFound
		}

		return nil, errors.Wrapf(err, "failed to open reader for %s", key)
	}

	return r, nil
}

// Delete removes the object at key.
func (s *blobStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return domainerrors.ErrObjectNotFound
		}

		return errors.Wrapf(err, "failed to delete object %s", key)
	}

	return nil
}

// List returns objects whose keys start with prefix.
func (s *blobStorage) List(ctx context.Context, prefix string) ([]service.StoredObject, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})

	var objects []service.StoredObject
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list objects with prefix %s", prefix)
		}
		if obj.IsDir {
			continue
		}

		objects = append(objects, service.StoredObject{
			Key:     obj.Key,
			Size:    obj.Size,
			ModTime: obj.ModTime,
		})
	}

	return objects, nil
}

// SignedURL returns a time-limited URL granting direct read access to key.
func (s *blobStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.defaultExpiry
	}

	url, err := s.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{
		Expiry: expiry,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to sign URL for %s", key)
	}

	return url, nil
}
