package service

import (
	"strings"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claim values. Access and refresh tokens carry the same identity
// claims but are signed with independent secrets and marked with an explicit
// kind, so a refresh token can never pass an access-token check even if the
// secrets were ever misconfigured to the same value.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims defines the identity payload embedded in both token kinds.
type Claims struct {
	UserID   uuid.UUID `json:"uid"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Type     string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases. It is pure
// cryptographic verification plus expiry comparison; it never consults a store.
type TokenService interface {
	// GenerateTokenPair creates a new access and refresh token carrying the
	// user's current identity claims.
	GenerateTokenPair(user *entity.User) (*entity.TokenPair, error)

	// ValidateAccessToken checks a token string against the access secret and
	// the access token kind. Any failure surfaces as ErrTokenInvalid.
	ValidateAccessToken(tokenString string) (*Claims, error)

	// ValidateRefreshToken checks a token string against the refresh secret
	// and the refresh token kind. Any failure surfaces as ErrTokenInvalid.
	ValidateRefreshToken(tokenString string) (*Claims, error)

	// GetRefreshTokenDuration returns the configured duration for refresh tokens.
	GetRefreshTokenDuration() time.Duration
}

// ExtractBearerToken returns the token portion of an Authorization header
// value. The scheme keyword must be exactly "Bearer" (case-sensitive);
// anything else yields ok=false, which is absence rather than an error.
func ExtractBearerToken(headerValue string) (string, bool) {
	const prefix = "Bearer "

	token, found := strings.CutPrefix(headerValue, prefix)
	if !found || token == "" {
		return "", false
	}

	return token, true
}
