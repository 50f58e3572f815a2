package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"
	mockservice "github.com/ahmedhassan-hash/go-starter-template/internal/mocks/service"
	mockusecase "github.com/ahmedhassan-hash/go-starter-template/internal/mocks/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authMiddlewareMocks struct {
	tokenService *mockservice.MockTokenService
	authUsecase  *mockusecase.MockAuthUsecase
}

func newAuthMiddleware(t *testing.T) (*AuthMiddleware, *authMiddlewareMocks) {
	t.Helper()

	mocks := &authMiddlewareMocks{
		tokenService: mockservice.NewMockTokenService(t),
		authUsecase:  mockusecase.NewMockAuthUsecase(t),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuthMiddleware(mocks.tokenService, mocks.authUsecase, logger), mocks
}

func performRequest(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true

		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)

	return rec, reached
}

func activeUser(role entity.Role) *entity.User {
	return &entity.User{
		ID:       uuid.New(),
		Email:    "jane@example.com",
		Username: "jane_doe",
		Role:     role,
		IsActive: true,
	}
}

func claimsFor(user *entity.User) *service.Claims {
	return &service.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role.String(),
		Type:     service.TokenTypeAccess,
	}
}

func TestAuthenticate_Success(t *testing.T) {
	mw, mocks := newAuthMiddleware(t)
	user := activeUser(entity.RoleUser)

	mocks.tokenService.EXPECT().ValidateAccessToken("good-token").Return(claimsFor(user), nil)
	mocks.authUsecase.EXPECT().GetUserByID(mock.Anything, user.ID).Return(user, nil)

	rec, reached := performRequest(mw.Authenticate, "Bearer good-token")

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_SetsUserAndClaimsOnContext(t *testing.T) {
	mw, mocks := newAuthMiddleware(t)
	user := activeUser(entity.RoleAdmin)
	claims := claimsFor(user)

	mocks.tokenService.EXPECT().ValidateAccessToken("good-token").Return(claims, nil)
	mocks.authUsecase.EXPECT().GetUserByID(mock.Anything, user.ID).Return(user, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw.Authenticate(func(c echo.Context) error {
		gotUser, ok := UserFromContext(c)
		require.True(t, ok)
		assert.Equal(t, user.ID, gotUser.ID)

		gotClaims, ok := ClaimsFromContext(c)
		require.True(t, ok)
		assert.Equal(t, claims.UserID, gotClaims.UserID)

		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	mw, _ := newAuthMiddleware(t)

	rec, reached := performRequest(mw.Authenticate, "")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_WrongScheme(t *testing.T) {
	mw, _ := newAuthMiddleware(t)

	rec, reached := performRequest(mw.Authenticate, "Basic dXNlcjpwYXNz")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	mw, mocks := newAuthMiddleware(t)

	mocks.tokenService.EXPECT().ValidateAccessToken("bad-token").
		Return(nil, domainerrors.ErrTokenInvalid)

	rec, reached := performRequest(mw.Authenticate, "Bearer bad-token")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	mw, mocks := newAuthMiddleware(t)
	user := activeUser(entity.RoleUser)

	mocks.tokenService.EXPECT().ValidateAccessToken("good-token").Return(claimsFor(user), nil)
	mocks.authUsecase.EXPECT().GetUserByID(mock.Anything, user.ID).
		Return(nil, domainerrors.ErrUserNotFound)

	rec, reached := performRequest(mw.Authenticate, "Bearer good-token")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_DeactivatedUser(t *testing.T) {
	mw, mocks := newAuthMiddleware(t)
	user := activeUser(entity.RoleUser)
	user.IsActive = false

	mocks.tokenService.EXPECT().ValidateAccessToken("good-token").Return(claimsFor(user), nil)
	mocks.authUsecase.EXPECT().GetUserByID(mock.Anything, user.ID).Return(user, nil)

	rec, reached := performRequest(mw.Authenticate, "Bearer good-token")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	mw, _ := newAuthMiddleware(t)
	user := activeUser(entity.RoleAdmin)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyUser, user)

	reached := false
	handler := mw.RequireRole(entity.RoleAdmin)(func(c echo.Context) error {
		reached = true

		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.True(t, reached)
}

func TestRequireRole_RejectsOtherRole(t *testing.T) {
	mw, _ := newAuthMiddleware(t)
	user := activeUser(entity.RoleUser)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyUser, user)

	reached := false
	handler := mw.RequireRole(entity.RoleAdmin)(func(c echo.Context) error {
		reached = true

		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	mw, _ := newAuthMiddleware(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw.RequireRole(entity.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
