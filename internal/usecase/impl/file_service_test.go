package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"
	mockSvc "github.com/ahmedhassan-hash/go-starter-template/internal/mocks/service"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileService(t *testing.T) (usecase.FileUsecase, *mockSvc.MockStorageService) {
	storage := mockSvc.NewMockStorageService(t)

	svc := NewFileService(FileServiceParams{
		Storage: storage,
		Config:  &config.Config{},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return svc, storage
}

func TestFileService_Upload_NamespacesKeyByUser(t *testing.T) {
	svc, storage := newFileService(t)
	ctx := context.Background()
	userID := uuid.New()
	body := strings.NewReader("content")

	storage.EXPECT().
		Upload(ctx, userID.String()+"/report.pdf", "application/pdf", body).
		Return(nil)

	key, err := svc.Upload(ctx, userID, "report.pdf", "application/pdf", body)

	require.NoError(t, err)
	assert.Equal(t, userID.String()+"/report.pdf", key)
}

func TestFileService_RejectsEscapingFilenames(t *testing.T) {
	svc, _ := newFileService(t)
	ctx := context.Background()
	userID := uuid.New()

	for _, filename := range []string{"", "../secret", "a/b", "a\\b", "..", "foo/../bar"} {
		_, err := svc.Upload(ctx, userID, filename, "text/plain", strings.NewReader(""))
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed, "filename %q must be rejected", filename)
	}
}

func TestFileService_Download_NotFound(t *testing.T) {
	svc, storage := newFileService(t)
	ctx := context.Background()
	userID := uuid.New()

	storage.EXPECT().
		Download(ctx, userID.String()+"/missing.txt").
		Return(nil, domainerrors.ErrObjectNotFound)

	rc, err := svc.Download(ctx, userID, "missing.txt")

	require.Error(t, err)
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, domainerrors.ErrObjectNotFound)
}

func TestFileService_List_StripsNamespace(t *testing.T) {
	svc, storage := newFileService(t)
	ctx := context.Background()
	userID := uuid.New()
	prefix := userID.String() + "/"

	storage.EXPECT().
		List(ctx, prefix).
		Return([]service.StoredObject{
			{Key: prefix + "a.txt", Size: 3},
			{Key: prefix + "b.txt", Size: 5},
		}, nil)

	objects, err := svc.List(ctx, userID)

	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a.txt", objects[0].Key)
	assert.Equal(t, "b.txt", objects[1].Key)
}

func TestFileService_SignedURL_UsesConfiguredExpiry(t *testing.T) {
	storage := mockSvc.NewMockStorageService(t)
	cfg := &config.Config{
		Storage: &config.StorageConfig{SignedURLExpiry: time.Hour},
	}
	svc := NewFileService(FileServiceParams{
		Storage: storage,
		Config:  cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx := context.Background()
	userID := uuid.New()

	storage.EXPECT().
		SignedURL(ctx, userID.String()+"/a.txt", time.Hour).
		Return("https://bucket.example.com/a.txt?sig=abc", nil)

	url, err := svc.SignedURL(ctx, userID, "a.txt")

	require.NoError(t, err)
	assert.Contains(t, url, "sig=abc")
}

func TestFileService_Delete(t *testing.T) {
	svc, storage := newFileService(t)
	ctx := context.Background()
	userID := uuid.New()

	storage.EXPECT().Delete(ctx, userID.String()+"/a.txt").Return(nil)

	assert.NoError(t, svc.Delete(ctx, userID, "a.txt"))
}
