package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars",
		TokenExpiration: time.Hour,
		Issuer:          "test-issuer",
	}
	return NewJWTService(cfg)
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:          "test-secret",
		TokenExpiration: time.Hour,
		Issuer:          "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.TokenExpiration, svc.expiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestGenerateToken(t *testing.T) {
	svc := newTestJWTService()
	identityID := uuid.New()

	token, err := svc.GenerateToken(identityID, shared.RoleCustomer, "alex")

	require.NoError(t, err)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))
}

func TestGenerateToken_UnknownRole(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.GenerateToken(uuid.New(), shared.ActorRole("superuser"), "alex")

	require.Error(t, err)
	assert.Equal(t, ErrUnknownRole, err)
}

func TestValidateToken_Success(t *testing.T) {
	svc := newTestJWTService()
	identityID := uuid.New()

	token, err := svc.GenerateToken(identityID, shared.RoleSeller, "mira")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.Value)

	require.NoError(t, err)
	assert.Equal(t, identityID.String(), claims.IdentityID)
	assert.Equal(t, shared.RoleSeller, claims.GetRole())
	assert.Equal(t, "mira", claims.Name)

	parsed, err := claims.GetIdentityUUID()
	require.NoError(t, err)
	assert.Equal(t, identityID, parsed)
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars",
		TokenExpiration: -time.Minute, // already expired
		Issuer:          "test-issuer",
	}
	svc := NewJWTService(cfg)

	token, err := svc.GenerateToken(uuid.New(), shared.RoleCustomer, "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token.Value)
	require.Error(t, err)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(uuid.New(), shared.RoleAdmin, "")
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:          "another-secret-key-at-least-32ch",
		TokenExpiration: time.Hour,
		Issuer:          "test-issuer",
	})

	_, err = other.ValidateToken(token.Value)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidToken, err)
}
