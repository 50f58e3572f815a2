// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	deliverycontext "github.com/ahmedhassan-hash/go-starter-template/internal/delivery/context"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/repository"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager        repository.TransactionManager
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	logger           *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:        params.TxManager,
		userRepo:         params.UserRepo,
		refreshTokenRepo: params.RefreshTokenRepo,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete account registration process.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email), slog.String("username", input.Username))

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed
	}

	var output *usecase.AuthOutput

	// Execute the entire creation process within a single database transaction
	// to ensure atomicity.
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		refreshRepo := repoFactory.RefreshTokenRepo()

		// 1. A match on either unique field is a conflict.
		_, err := userRepo.FindByEmailOrUsername(ctx, input.Email, input.Username)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email or username already registered")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check existing user")
		}

		// 2. Create the account with the default role, active.
		newUser := &entity.User{
			Email:        input.Email,
			Username:     input.Username,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			PasswordHash: hashedPassword,
			Role:         entity.RoleUser,
			IsActive:     true,
		}
		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user")
		}

		// 3. Issue the first session.
		tokens, err := srv.issueSession(ctx, refreshRepo, newUser)
		if err != nil {
			return err
		}

		output = &usecase.AuthOutput{
			User:   newUser.Sanitized(),
			Tokens: tokens,
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Registration completed", slog.Any("user_id", output.User.ID))

	return output, nil
}

// Login verifies credentials and issues a new session.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting login", slog.String("email", input.Email))

	var output *usecase.AuthOutput

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		refreshRepo := repoFactory.RefreshTokenRepo()

		// Unknown email, wrong password and deactivated account all collapse
		// into the same credential error.
		user, err := userRepo.FindByEmail(ctx, input.Email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrInvalidCredentials
			}

			return errors.Wrap(err, "failed to find user by email")
		}

		if !srv.hasher.Check(input.Password, user.PasswordHash) {
			return domainerrors.ErrInvalidCredentials
		}

		if !user.IsActive {
			return domainerrors.ErrInvalidCredentials
		}

		tokens, err := srv.issueSession(ctx, refreshRepo, user)
		if err != nil {
			return err
		}

		output = &usecase.AuthOutput{
			User:   user.Sanitized(),
			Tokens: tokens,
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Login completed", slog.Any("user_id", output.User.ID))

	return output, nil
}

// RefreshTokens rotates a refresh token: the presented token is consumed and a
// new pair is issued. Any failure along the chain surfaces as the same
// invalid-refresh-token error.
func (srv *authService) RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	// 1. Cryptographic verification before any store access.
	if _, err := srv.tokenService.ValidateRefreshToken(refreshToken); err != nil {
		return nil, domainerrors.ErrRefreshTokenInvalid
	}

	tokenHash := hashRefreshToken(refreshToken)

	var newTokens *entity.TokenPair

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		refreshRepo := repoFactory.RefreshTokenRepo()

		// 2. The token must still exist in the store and be unexpired.
		stored, err := refreshRepo.FindRefreshTokenByHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenExpired) {
				return domainerrors.ErrRefreshTokenInvalid
			}

			return errors.Wrap(err, "failed to find refresh token")
		}

		// 3. The owner must still exist and be active. The fresh record also
		// supplies the current role for the new claims.
		user, err := userRepo.FindByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrRefreshTokenInvalid
			}

			return errors.Wrap(err, "failed to find token owner")
		}
		if !user.IsActive {
			return domainerrors.ErrRefreshTokenInvalid
		}

		// 4. Consume the presented token. Of two concurrent rotations exactly
		// one delete observes the row; the loser fails here.
		if err := refreshRepo.DeleteRefreshTokenByHash(ctx, tokenHash); err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return domainerrors.ErrRefreshTokenInvalid
			}

			return errors.Wrap(err, "failed to consume refresh token")
		}

		// 5. Issue the replacement session.
		tokens, err := srv.issueSession(ctx, refreshRepo, user)
		if err != nil {
			return err
		}
		newTokens = tokens

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Token refresh failed", slog.Any("error", err))

		// The caller sees one uniform error regardless of which step broke,
		// including unexpected store failures. The cause stays in the logs.
		return nil, domainerrors.ErrRefreshTokenInvalid
	}

	return newTokens, nil
}

// Logout revokes the session identified by the given refresh token.
// Revoking an unknown or already-revoked token is not an error.
func (srv *authService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := hashRefreshToken(refreshToken)

	err := srv.refreshTokenRepo.DeleteRefreshTokenByHash(ctx, tokenHash)
	if err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
		srv.log(ctx).Error("Logout failed", slog.Any("error", err))

		return errors.Wrap(err, "failed to delete refresh token")
	}

	srv.log(ctx).Info("Logout completed")

	return nil
}

// LogoutAll revokes every session belonging to the user.
func (srv *authService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := srv.refreshTokenRepo.DeleteRefreshTokensByUserID(ctx, userID); err != nil {
		srv.log(ctx).Error("Logout all failed", slog.Any("user_id", userID), slog.Any("error", err))

		return errors.Wrap(err, "failed to delete refresh tokens")
	}

	srv.log(ctx).Info("Logout all completed", slog.Any("user_id", userID))

	return nil
}

// GetUserByID returns the current account record.
func (srv *authService) GetUserByID(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user.Sanitized(), nil
}

// UpdateUserRole sets a user's role and returns the updated account.
func (srv *authService) UpdateUserRole(ctx context.Context, userID uuid.UUID, role entity.Role) (*entity.User, error) {
	srv.log(ctx).Info("Updating user role", slog.Any("user_id", userID), slog.Any("role", role))

	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("unknown role")
	}

	var updated *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().UpdateRole(ctx, userID, role)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to update user role")
		}
		updated = user

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Role update failed", slog.Any("user_id", userID), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Role update completed", slog.Any("user_id", userID), slog.Any("role", role))

	return updated.Sanitized(), nil
}

// CleanupExpiredTokens deletes expired refresh tokens and returns how many
// were removed. Best effort: a failed sweep is retried on the next interval.
func (srv *authService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	count, err := srv.refreshTokenRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired refresh tokens")
	}

	if count > 0 {
		srv.log(ctx).Info("Expired refresh tokens removed", slog.Int64("count", count))
	}

	return count, nil
}

// issueSession generates a token pair for the user and persists the refresh
// half, keyed by its hash, using the provided (possibly transactional) repo.
func (srv *authService) issueSession(ctx context.Context, refreshRepo repository.RefreshTokenRepository, user *entity.User) (*entity.TokenPair, error) {
	tokens, err := srv.tokenService.GenerateTokenPair(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate token pair")
	}

	record := &entity.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashRefreshToken(tokens.RefreshToken),
		ExpiresAt: time.Now().Add(srv.tokenService.GetRefreshTokenDuration()),
	}
	if err := refreshRepo.CreateRefreshToken(ctx, record); err != nil {
		return nil, errors.Wrap(err, "failed to store refresh token")
	}

	return tokens, nil
}

// hashRefreshToken computes the storage key for a raw refresh token.
// Raw tokens are never persisted.
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
