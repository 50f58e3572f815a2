package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/repository"
	mockRepo "github.com/ahmedhassan-hash/go-starter-template/internal/mocks/repository"
	mockSvc "github.com/ahmedhassan-hash/go-starter-template/internal/mocks/service"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authServiceMocks struct {
	txManager        *mockRepo.MockTransactionManager
	userRepo         *mockRepo.MockUserRepository
	refreshTokenRepo *mockRepo.MockRefreshTokenRepository
	hasher           *mockSvc.MockPasswordHasher
	tokenService     *mockSvc.MockTokenService
}

func newAuthService(t *testing.T) (usecase.AuthUsecase, *authServiceMocks) {
	m := &authServiceMocks{
		txManager:        mockRepo.NewMockTransactionManager(t),
		userRepo:         mockRepo.NewMockUserRepository(t),
		refreshTokenRepo: mockRepo.NewMockRefreshTokenRepository(t),
		hasher:           mockSvc.NewMockPasswordHasher(t),
		tokenService:     mockSvc.NewMockTokenService(t),
	}

	svc := NewAuthService(AuthServiceParams{
		TxManager:        m.txManager,
		UserRepo:         m.userRepo,
		RefreshTokenRepo: m.refreshTokenRepo,
		Hasher:           m.hasher,
		TokenService:     m.tokenService,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return svc, m
}

func activeUser() *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		Username:     "jane_doe",
		PasswordHash: "hashed-password",
		Role:         entity.RoleUser,
		IsActive:     true,
	}
}

func tokenPair() *entity.TokenPair {
	return &entity.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	input := &usecase.RegisterInput{
		Email:     "jane@example.com",
		Username:  "jane_doe",
		Password:  "Sup3rSecret",
		FirstName: "Jane",
		LastName:  "Doe",
	}

	m.hasher.EXPECT().Hash("Sup3rSecret").Return("hashed-password", nil)

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(ctx context.Context, fn func(repository.RepositoryFactory) error) {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockUserRepo.EXPECT().
				FindByEmailOrUsername(ctx, input.Email, input.Username).
				Return(nil, repository.ErrUserNotFound)

			mockUserRepo.EXPECT().
				Create(ctx, mock.MatchedBy(func(u *entity.User) bool {
					return u.Email == input.Email &&
						u.Username == input.Username &&
						u.PasswordHash == "hashed-password" &&
						u.Role == entity.RoleUser &&
						u.IsActive
				})).
				Run(func(ctx context.Context, u *entity.User) {
					u.ID = uuid.New()
				}).
				Return(nil)

			m.tokenService.EXPECT().GenerateTokenPair(mock.AnythingOfType("*entity.User")).Return(tokenPair(), nil)
			m.tokenService.EXPECT().GetRefreshTokenDuration().Return(7 * 24 * time.Hour)

			mockRefreshRepo.EXPECT().
				CreateRefreshToken(ctx, mock.MatchedBy(func(rt *entity.RefreshToken) bool {
					return rt.TokenHash == hashRefreshToken("refresh-token") &&
						rt.ExpiresAt.After(time.Now())
				})).
				Return(nil)

			_ = fn(mockFactory)
		}).
		Return(nil)

	output, err := svc.Register(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, input.Email, output.User.Email)
	assert.Equal(t, entity.RoleUser, output.User.Role)
	assert.True(t, output.User.IsActive)
	assert.Empty(t, output.User.PasswordHash, "credential hash must never leave the usecase")
	assert.Equal(t, "access-token", output.Tokens.AccessToken)
}

func TestAuthService_Register_DuplicateEmailOrUsername(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	input := &usecase.RegisterInput{
		Email:    "jane@example.com",
		Username: "jane_doe",
		Password: "Sup3rSecret",
	}

	m.hasher.EXPECT().Hash("Sup3rSecret").Return("hashed-password", nil)

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			// A match on the username alone is just as much of a conflict.
			mockUserRepo.EXPECT().
				FindByEmailOrUsername(ctx, input.Email, input.Username).
				Return(activeUser(), nil)

			return fn(mockFactory)
		})

	output, err := svc.Register(ctx, input)

	require.Error(t, err)
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()
	user := activeUser()

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(ctx context.Context, fn func(repository.RepositoryFactory) error) {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockUserRepo.EXPECT().FindByEmail(ctx, user.Email).Return(user, nil)
			m.hasher.EXPECT().Check("Sup3rSecret", user.PasswordHash).Return(true)

			m.tokenService.EXPECT().GenerateTokenPair(user).Return(tokenPair(), nil)
			m.tokenService.EXPECT().GetRefreshTokenDuration().Return(7 * 24 * time.Hour)
			mockRefreshRepo.EXPECT().
				CreateRefreshToken(ctx, mock.AnythingOfType("*entity.RefreshToken")).
				Return(nil)

			_ = fn(mockFactory)
		}).
		Return(nil)

	output, err := svc.Login(ctx, &usecase.LoginInput{Email: user.Email, Password: "Sup3rSecret"})

	require.NoError(t, err)
	assert.Equal(t, user.ID, output.User.ID)
	assert.Empty(t, output.User.PasswordHash)
	assert.Equal(t, "refresh-token", output.Tokens.RefreshToken)
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	// Unknown email, wrong password and deactivated account must yield the
	// exact same error.
	tests := []struct {
		name  string
		setup func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory)
	}{
		{
			name: "unknown email",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				mockUserRepo.EXPECT().
					FindByEmail(ctx, "jane@example.com").
					Return(nil, repository.ErrUserNotFound)
			},
		},
		{
			name: "wrong password",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				user := activeUser()
				mockUserRepo.EXPECT().FindByEmail(ctx, "jane@example.com").Return(user, nil)
				m.hasher.EXPECT().Check("wrong", user.PasswordHash).Return(false)
			},
		},
		{
			name: "deactivated account",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				user := activeUser()
				user.IsActive = false
				mockUserRepo.EXPECT().FindByEmail(ctx, "jane@example.com").Return(user, nil)
				m.hasher.EXPECT().Check("wrong", user.PasswordHash).Return(true)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newAuthService(t)
			ctx := context.Background()

			m.txManager.EXPECT().
				Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
				RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
					mockFactory := mockRepo.NewMockRepositoryFactory(t)
					tt.setup(ctx, t, m, mockFactory)

					return fn(mockFactory)
				})

			output, err := svc.Login(ctx, &usecase.LoginInput{Email: "jane@example.com", Password: "wrong"})

			require.Error(t, err)
			assert.Nil(t, output)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_RefreshTokens_Success(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()
	user := activeUser()
	user.Role = entity.RoleAdmin // the fresh role must flow into the new claims

	rawToken := "old-refresh-token"
	storedToken := &entity.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashRefreshToken(rawToken),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	m.tokenService.EXPECT().ValidateRefreshToken(rawToken).Return(nil, nil)

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(ctx context.Context, fn func(repository.RepositoryFactory) error) {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)
			mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockFactory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

			mockRefreshRepo.EXPECT().
				FindRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
				Return(storedToken, nil)
			mockUserRepo.EXPECT().FindByID(ctx, user.ID).Return(user, nil)
			mockRefreshRepo.EXPECT().
				DeleteRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
				Return(nil)

			newPair := &entity.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}
			m.tokenService.EXPECT().GenerateTokenPair(user).Return(newPair, nil)
			m.tokenService.EXPECT().GetRefreshTokenDuration().Return(7 * 24 * time.Hour)

			mockRefreshRepo.EXPECT().
				CreateRefreshToken(ctx, mock.MatchedBy(func(rt *entity.RefreshToken) bool {
					return rt.TokenHash == hashRefreshToken("new-refresh")
				})).
				Return(nil)

			_ = fn(mockFactory)
		}).
		Return(nil)

	pair, err := svc.RefreshTokens(ctx, rawToken)

	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
}

func TestAuthService_RefreshTokens_InvalidSignature(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	// Codec rejection must short-circuit before any store access.
	m.tokenService.EXPECT().
		ValidateRefreshToken("garbage").
		Return(nil, domainerrors.ErrTokenInvalid)

	pair, err := svc.RefreshTokens(ctx, "garbage")

	require.Error(t, err)
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestAuthService_RefreshTokens_FailureModes(t *testing.T) {
	// Every failure past the codec collapses into the same invalid-token error.
	rawToken := "old-refresh-token"

	tests := []struct {
		name  string
		setup func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory)
	}{
		{
			name: "token absent from store",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				mockRefreshRepo.EXPECT().
					FindRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
					Return(nil, repository.ErrRefreshTokenNotFound)
			},
		},
		{
			name: "token expired in store",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				mockRefreshRepo.EXPECT().
					FindRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
					Return(nil, repository.ErrRefreshTokenExpired)
			},
		},
		{
			name: "owner deactivated",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				user := activeUser()
				user.IsActive = false
				stored := &entity.RefreshToken{UserID: user.ID, TokenHash: hashRefreshToken(rawToken)}
				mockRefreshRepo.EXPECT().
					FindRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
					Return(stored, nil)
				mockUserRepo.EXPECT().FindByID(ctx, user.ID).Return(user, nil)
			},
		},
		{
			name: "lost concurrent rotation",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				user := activeUser()
				stored := &entity.RefreshToken{UserID: user.ID, TokenHash: hashRefreshToken(rawToken)}
				mockRefreshRepo.EXPECT().
					FindRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
					Return(stored, nil)
				mockUserRepo.EXPECT().FindByID(ctx, user.ID).Return(user, nil)
				mockRefreshRepo.EXPECT().
					DeleteRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
					Return(repository.ErrRefreshTokenNotFound)
			},
		},
		{
			name: "store unreachable",
			setup: func(ctx context.Context, t *testing.T, m *authServiceMocks, factory *mockRepo.MockRepositoryFactory) {
				mockUserRepo := mockRepo.NewMockUserRepository(t)
				mockRefreshRepo := mockRepo.NewMockRefreshTokenRepository(t)
				factory.EXPECT().UserRepo().Return(mockUserRepo)
				factory.EXPECT().RefreshTokenRepo().Return(mockRefreshRepo)

				mockRefreshRepo.EXPECT().
					FindRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
					Return(nil, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newAuthService(t)
			ctx := context.Background()

			m.tokenService.EXPECT().ValidateRefreshToken(rawToken).Return(nil, nil)

			m.txManager.EXPECT().
				Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
				RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
					mockFactory := mockRepo.NewMockRepositoryFactory(t)
					tt.setup(ctx, t, m, mockFactory)

					return fn(mockFactory)
				})

			pair, err := svc.RefreshTokens(ctx, rawToken)

			require.Error(t, err)
			assert.Nil(t, pair)
			assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
		})
	}
}

func TestAuthService_Logout_IsIdempotent(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	rawToken := "some-refresh-token"

	m.refreshTokenRepo.EXPECT().
		DeleteRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
		Return(repository.ErrRefreshTokenNotFound)

	// Revoking an unknown or already-revoked token succeeds.
	assert.NoError(t, svc.Logout(ctx, rawToken))
}

func TestAuthService_Logout_Success(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	rawToken := "some-refresh-token"

	m.refreshTokenRepo.EXPECT().
		DeleteRefreshTokenByHash(ctx, hashRefreshToken(rawToken)).
		Return(nil)

	assert.NoError(t, svc.Logout(ctx, rawToken))
}

func TestAuthService_LogoutAll(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	m.refreshTokenRepo.EXPECT().
		DeleteRefreshTokensByUserID(ctx, userID).
		Return(nil)

	assert.NoError(t, svc.LogoutAll(ctx, userID))
}

func TestAuthService_GetUserByID(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()
	user := activeUser()

	m.userRepo.EXPECT().FindByID(ctx, user.ID).Return(user, nil)

	got, err := svc.GetUserByID(ctx, user.ID)

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash)
}

func TestAuthService_GetUserByID_NotFound(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	m.userRepo.EXPECT().FindByID(ctx, userID).Return(nil, repository.ErrUserNotFound)

	got, err := svc.GetUserByID(ctx, userID)

	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAuthService_UpdateUserRole_Success(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()
	user := activeUser()
	user.Role = entity.RoleAdmin

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(ctx context.Context, fn func(repository.RepositoryFactory) error) {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().UpdateRole(ctx, user.ID, entity.RoleAdmin).Return(user, nil)

			_ = fn(mockFactory)
		}).
		Return(nil)

	updated, err := svc.UpdateUserRole(ctx, user.ID, entity.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, updated.Role)
	assert.Empty(t, updated.PasswordHash)
}

func TestAuthService_UpdateUserRole_UserNotFound(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().
				UpdateRole(ctx, userID, entity.RoleModerator).
				Return(nil, repository.ErrUserNotFound)

			return fn(mockFactory)
		})

	updated, err := svc.UpdateUserRole(ctx, userID, entity.RoleModerator)

	require.Error(t, err)
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAuthService_UpdateUserRole_RejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthService(t)

	updated, err := svc.UpdateUserRole(context.Background(), uuid.New(), entity.Role("superuser"))

	require.Error(t, err)
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestAuthService_CleanupExpiredTokens(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	m.refreshTokenRepo.EXPECT().DeleteExpiredRefreshTokens(ctx).Return(42, nil)

	count, err := svc.CleanupExpiredTokens(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestAuthService_CleanupExpiredTokens_Error(t *testing.T) {
	svc, m := newAuthService(t)
	ctx := context.Background()

	m.refreshTokenRepo.EXPECT().
		DeleteExpiredRefreshTokens(ctx).
		Return(0, errors.New("connection reset"))

	count, err := svc.CleanupExpiredTokens(ctx)

	require.Error(t, err)
	assert.Zero(t, count)
}
