package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/validator"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"
	mockusecase "github.com/ahmedhassan-hash/go-starter-template/internal/mocks/usecase"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthHandler(t *testing.T) (*AuthHandler, *mockusecase.MockAuthUsecase) {
	t.Helper()

	uc := mockusecase.NewMockAuthUsecase(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuthHandler(uc, logger), uc
}

func jsonContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = validator.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register(t *testing.T) {
	h, uc := newAuthHandler(t)

	userID := uuid.New()
	uc.EXPECT().Register(mock.Anything, &usecase.RegisterInput{
		Email:     "jane@example.com",
		Username:  "jane_doe",
		Password:  "Sup3rSecret",
		FirstName: "Jane",
		LastName:  "Doe",
	}).Return(&usecase.AuthOutput{
		User:   &entity.User{ID: userID, Email: "jane@example.com", Username: "jane_doe", Role: entity.RoleUser},
		Tokens: &entity.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
	}, nil)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"email":"jane@example.com","username":"jane_doe","password":"Sup3rSecret","first_name":"Jane","last_name":"Doe"}`)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "access")
	assert.Contains(t, rec.Body.String(), userID.String())
}

func TestAuthHandler_Register_WeakPasswordRejectedBeforeUsecase(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"email":"jane@example.com","username":"jane_doe","password":"short"}`)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	h, uc := newAuthHandler(t)

	uc.EXPECT().Login(mock.Anything, &usecase.LoginInput{
		Email:    "jane@example.com",
		Password: "Sup3rSecret",
	}).Return(&usecase.AuthOutput{
		User:   &entity.User{ID: uuid.New(), Email: "jane@example.com"},
		Tokens: &entity.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
	}, nil)

	c, rec := jsonContext(t, http.MethodPost, "/auth/login",
		`{"email":"jane@example.com","password":"Sup3rSecret"}`)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh")
}

func TestAuthHandler_Refresh(t *testing.T) {
	h, uc := newAuthHandler(t)

	uc.EXPECT().RefreshTokens(mock.Anything, "old-refresh").
		Return(&entity.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil)

	c, rec := jsonContext(t, http.MethodPost, "/auth/refresh", `{"refresh_token":"old-refresh"}`)

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new-refresh")
}

func TestAuthHandler_Refresh_MissingTokenRejected(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/auth/refresh", `{}`)

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	h, uc := newAuthHandler(t)

	uc.EXPECT().Logout(mock.Anything, "old-refresh").Return(nil)

	c, rec := jsonContext(t, http.MethodPost, "/auth/logout", `{"refresh_token":"old-refresh"}`)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_UpdateUserRole(t *testing.T) {
	h, uc := newAuthHandler(t)

	userID := uuid.New()
	uc.EXPECT().UpdateUserRole(mock.Anything, userID, entity.RoleModerator).
		Return(&entity.User{ID: userID, Role: entity.RoleModerator}, nil)

	c, rec := jsonContext(t, http.MethodPut, "/admin/users/"+userID.String()+"/role", `{"role":"moderator"}`)
	c.SetParamNames("id")
	c.SetParamValues(userID.String())

	require.NoError(t, h.UpdateUserRole(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moderator")
}

func TestAuthHandler_UpdateUserRole_BadID(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := jsonContext(t, http.MethodPut, "/admin/users/not-a-uuid/role", `{"role":"admin"}`)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, h.UpdateUserRole(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
