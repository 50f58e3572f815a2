package handler

import (
	"log/slog"
	"net/http"

	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/middleware"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/response"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// FileHandler holds dependencies for per-user file storage handlers.
type FileHandler struct {
	uc     usecase.FileUsecase
	logger *slog.Logger
}

// NewFileHandler is the constructor for FileHandler, injected by Fx.
func NewFileHandler(uc usecase.FileUsecase, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		uc:     uc,
		logger: logger,
	}
}

// Upload stores a multipart file under the authenticated user's namespace.
func (h *FileHandler) Upload(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Missing file in multipart form")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer src.Close()

	key, err := h.uc.Upload(c.Request().Context(), user.ID, fileHeader.Filename,
		fileHeader.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]string{"key": key}, "File uploaded successfully")
}

// Download streams one of the authenticated user's files back to the client.
func (h *FileHandler) Download(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	filename := c.Param("filename")
	reader, err := h.uc.Download(c.Request().Context(), user.ID, filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer reader.Close()

	return c.Stream(http.StatusOK, echo.MIMEOctetStream, reader)
}

// Delete removes one of the authenticated user's files.
func (h *FileHandler) Delete(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	if err := h.uc.Delete(c.Request().Context(), user.ID, c.Param("filename")); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "File deleted successfully")
}

// List returns the authenticated user's stored files.
func (h *FileHandler) List(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	objects, err := h.uc.List(c.Request().Context(), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, objects, "Files listed successfully")
}

// SignedURL returns a time-limited direct download URL for one file.
func (h *FileHandler) SignedURL(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	url, err := h.uc.SignedURL(c.Request().Context(), user.ID, c.Param("filename"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"url": url}, "Signed URL generated successfully")
}
