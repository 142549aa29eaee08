package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rental-marketplace/internal/domain/user"
)

func newTestTokenService() *TokenService {
	return NewTokenService("test-secret-key-for-testing-purposes", 15*time.Minute)
}

func testUser() *user.User {
	return &user.User{
		ID:    "user-123",
		Email: "test@example.com",
		Role:  user.RoleCustomer,
	}
}

func TestTokenService_GenerateToken_Success(t *testing.T) {
	service := newTestTokenService()

	token, expiresAt, err := service.GenerateToken(testUser())

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
}

func TestTokenService_ValidateToken_Valid(t *testing.T) {
	service := newTestTokenService()

	u := &user.User{ID: "vendor-456", Email: "vendor@example.com", Role: user.RoleVendor}
	token, _, err := service.GenerateToken(u)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, user.RoleVendor, claims.Role)
	assert.Equal(t, u.ID, claims.Subject)
}

func TestTokenService_ValidateToken_Expired(t *testing.T) {
	// Create a service with very short expiry
	service := NewTokenService("test-secret", 1*time.Millisecond)

	token, _, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	// Wait for token to expire
	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokenService_ValidateToken_Invalid(t *testing.T) {
	service := newTestTokenService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestTokenService_ValidateToken_WrongSignature(t *testing.T) {
	service1 := NewTokenService("secret-key-1", 15*time.Minute)
	service2 := NewTokenService("secret-key-2", 15*time.Minute)

	// Generate token with service1
	token, _, err := service1.GenerateToken(testUser())
	require.NoError(t, err)

	// Try to validate with service2 (different secret)
	claims, err := service2.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestTokenService_ValidateToken_WrongAlgorithm(t *testing.T) {
	service := newTestTokenService()

	// Create a token with a different algorithm (none)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-123",
		Email:  "test@example.com",
		Role:   user.RoleCustomer,
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}
