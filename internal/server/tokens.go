package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/module-builder/internal/config"
)

// Token verification failures. Verify wraps the jwt library's error in one
// of these.
var (
	ErrTokenMissing = errors.New("token is empty")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TenantClaims carries the tenant every module call is scoped by.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tenant tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokens builds the token service for cfg.
func NewTokens(cfg *config.TokenConfig) (*Tokens, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tokens{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL(),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}, nil
}

// Issue signs a token for the tenant.
func (t *Tokens) Issue(tenantID string) (string, error) {
	if tenantID == "" {
		return "", errors.New("tenant is required")
	}
	now := t.now()
	claims := &TenantClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   tenantID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and lifetime and returns the claims.
func (t *Tokens) Verify(token string) (*TenantClaims, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}
	claims := &TenantClaims{}
	_, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}

// ResolveTenant implements middleware.TenantResolver.
func (t *Tokens) ResolveTenant(token string) (string, error) {
	claims, err := t.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.TenantID, nil
}
