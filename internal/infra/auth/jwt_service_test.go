package auth

import (
	"testing"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(access, refresh string) *config.Config {
	cfg := &config.Config{}
	cfg.SecretKey.Access = access
	cfg.SecretKey.Refresh = refresh

	return cfg
}

func testUser() *entity.User {
	return &entity.User{
		ID:       uuid.New(),
		Email:    "jane@example.com",
		Username: "jane_doe",
		Role:     entity.RoleUser,
		IsActive: true,
	}
}

func TestJWTService_GenerateAndValidateTokenPair(t *testing.T) {
	jwtService, err := NewJWTService(testConfig(
		"test_access_secret_key_very_long_for_testing",
		"test_refresh_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)

	user := testUser()

	pair, err := jwtService.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	// Validate access token
	accessClaims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, accessClaims.UserID)
	assert.Equal(t, user.Email, accessClaims.Email)
	assert.Equal(t, user.Username, accessClaims.Username)
	assert.Equal(t, string(entity.RoleUser), accessClaims.Role)
	assert.Equal(t, service.TokenTypeAccess, accessClaims.Type)

	// Validate refresh token
	refreshClaims, err := jwtService.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshClaims.UserID)
	assert.Equal(t, service.TokenTypeRefresh, refreshClaims.Type)
}

func TestJWTService_TokenKindsDoNotCross(t *testing.T) {
	jwtService, err := NewJWTService(testConfig(
		"test_access_secret_key_very_long_for_testing",
		"test_refresh_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)

	pair, err := jwtService.GenerateTokenPair(testUser())
	require.NoError(t, err)

	// A refresh token must not pass the access-token check, and vice versa.
	claims, err := jwtService.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
	assert.Nil(t, claims)

	claims, err = jwtService.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestJWTService_TypeClaimAloneIsNotEnough(t *testing.T) {
	// Same secret for both kinds. Even then, the explicit type claim must
	// keep the two kinds apart.
	jwtService, err := NewJWTService(testConfig(
		"shared_secret_key_very_long_for_testing",
		"shared_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)

	pair, err := jwtService.GenerateTokenPair(testUser())
	require.NoError(t, err)

	claims, err := jwtService.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestJWTService_WrongSecretFails(t *testing.T) {
	signer, err := NewJWTService(testConfig(
		"signer_access_secret_key_very_long_for_testing",
		"signer_refresh_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)

	verifier, err := NewJWTService(testConfig(
		"other_access_secret_key_very_long_for_testing",
		"other_refresh_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)

	pair, err := signer.GenerateTokenPair(testUser())
	require.NoError(t, err)

	claims, err := verifier.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	accessSecret := "test_access_secret_key_very_long_for_testing"
	jwtService, err := NewJWTService(testConfig(
		accessSecret,
		"test_refresh_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)

	// Sign a token whose expiry already passed, with the right secret and
	// kind, so only the expiry check can reject it.
	user := testUser()
	expired := &service.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role.String(),
		Type:     service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(accessSecret))
	require.NoError(t, err)

	claims, err := jwtService.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestJWTService_NonPositiveTTLFallsBackToDefault(t *testing.T) {
	cfg := testConfig(
		"test_access_secret_key_very_long_for_testing",
		"test_refresh_secret_key_very_long_for_testing",
	)
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  -time.Minute,
		RefreshTokenTTL: -time.Minute,
	}

	jwtService, err := NewJWTService(cfg)
	require.NoError(t, err)

	// The misconfigured TTLs are replaced by the defaults, so a fresh pair
	// still validates.
	pair, err := jwtService.GenerateTokenPair(testUser())
	require.NoError(t, err)

	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
	assert.Equal(t, defaultRefreshTokenTTL, jwtService.GetRefreshTokenDuration())
}

func TestJWTService_InvalidToken(t *testing.T) {
	jwtService, err := NewJWTService(testConfig(
		"test_access_secret_key_very_long_for_testing",
		"test_refresh_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)

	claims, err := jwtService.ValidateAccessToken("clearly-not-a-jwt-token-format")
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestJWTService_EmptySecrets(t *testing.T) {
	jwtService, err := NewJWTService(testConfig("", ""))
	assert.Error(t, err)
	assert.Nil(t, jwtService)
	assert.Contains(t, err.Error(), "jwt secrets must be provided")
}

func TestJWTService_GetRefreshTokenDuration(t *testing.T) {
	cfg := testConfig(
		"test_access_secret_key_very_long_for_testing",
		"test_refresh_secret_key_very_long_for_testing",
	)
	cfg.Auth = &config.AuthConfig{RefreshTokenTTL: 48 * time.Hour}

	jwtService, err := NewJWTService(cfg)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, jwtService.GetRefreshTokenDuration())

	// Defaults apply when the auth section is absent.
	jwtService, err = NewJWTService(testConfig(
		"test_access_secret_key_very_long_for_testing",
		"test_refresh_secret_key_very_long_for_testing",
	))
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, jwtService.GetRefreshTokenDuration())
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "valid bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi", wantOK: true},
		{name: "empty header", header: "", wantOK: false},
		{name: "missing token", header: "Bearer ", wantOK: false},
		{name: "lowercase scheme", header: "bearer abc.def.ghi", wantOK: false},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantOK: false},
		{name: "no space", header: "Bearerabc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := service.ExtractBearerToken(tt.header)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
