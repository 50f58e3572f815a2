// Package usecase defines the application's business logic interfaces (input ports).
package usecase

import (
	"context"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"

	"github.com/google/uuid"
)

// RegisterInput holds the data needed to create a new account.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput holds the credentials for an email/password login.
type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput is the result of a successful register or login: the sanitized
// account plus a freshly issued token pair.
type AuthOutput struct {
	User   *entity.User      `json:"user"`
	Tokens *entity.TokenPair `json:"tokens"`
}

// AuthUsecase defines the authentication and session management operations.
type AuthUsecase interface {
	// Register creates a new account with the default role and an immediate
	// session. An existing email or username is a conflict.
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)

	// Login verifies credentials and issues a new session. Unknown email,
	// wrong password and deactivated account are indistinguishable to the
	// caller.
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)

	// RefreshTokens rotates a refresh token: the presented token is consumed
	// and a new pair is issued. Every failure mode surfaces as an invalid
	// refresh token.
	RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error)

	// Logout revokes the session identified by the given refresh token.
	// Revoking an already-revoked or unknown token succeeds.
	Logout(ctx context.Context, refreshToken string) error

	// LogoutAll revokes every session belonging to the user.
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// GetUserByID returns the current account record. Used by the request
	// guard to re-check existence and active status on every request.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// UpdateUserRole sets a user's role and returns the updated account.
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role entity.Role) (*entity.User, error)

	// CleanupExpiredTokens deletes expired refresh tokens and returns how
	// many were removed. Invoked by the background sweep.
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}
