package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/config"
)

func newTokens(t *testing.T, secret string) *Tokens {
	t.Helper()
	tokens, err := NewTokens(&config.TokenConfig{Secret: secret, TTLHours: 24})
	require.NoError(t, err)
	return tokens
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims *TenantClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := newTokens(t, testSecret)
	tok, err := tokens.Issue("org-a")
	require.NoError(t, err)

	claims, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "org-a", claims.TenantID)
	assert.Equal(t, "org-a", claims.Subject)
	assert.Equal(t, config.DefaultTokenIssuer, claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	tenant, err := tokens.ResolveTenant(tok)
	require.NoError(t, err)
	assert.Equal(t, "org-a", tenant)
}

func TestTokens_RequiresTenant(t *testing.T) {
	_, err := newTokens(t, testSecret).Issue("")
	assert.Error(t, err)
}

func TestNewTokens_RejectsBadConfig(t *testing.T) {
	_, err := NewTokens(&config.TokenConfig{TTLHours: 1})
	var envErr *config.EnvError
	assert.ErrorAs(t, err, &envErr)
}

func TestTokens_Rejections(t *testing.T) {
	tokens := newTokens(t, testSecret)

	expired := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &TenantClaims{
		TenantID: "org-a",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.DefaultTokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	noExpiry := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &TenantClaims{
		TenantID:         "org-a",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: config.DefaultTokenIssuer},
	})
	wrongIssuer := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &TenantClaims{
		TenantID: "org-a",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned := signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &TenantClaims{TenantID: "org-a"})
	foreign, err := newTokens(t, "some-other-secret").Issue("org-a")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrTokenMissing},
		{"expired", expired, ErrTokenExpired},
		{"no expiry", noExpiry, ErrTokenInvalid},
		{"wrong issuer", wrongIssuer, ErrTokenInvalid},
		{"wrong secret", foreign, ErrTokenInvalid},
		{"malformed", "not.a.jwt", ErrTokenInvalid},
		{"unsigned", unsigned, ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)

			_, err = tokens.ResolveTenant(tt.token)
			assert.Error(t, err)
		})
	}
}
