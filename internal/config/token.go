package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by TokenConfigFromEnv.
const (
	EnvTokenSecret = "JWT_SECRET"
	EnvTokenTTL    = "JWT_EXPIRATION_HOURS"
	EnvTokenIssuer = "JWT_ISSUER"
)

const (
	DefaultTokenTTLHours = 24
	DefaultTokenIssuer   = "module-builder"
)

// TokenConfig holds the signing settings for tenant tokens accepted by the
// module host.
type TokenConfig struct {
	Secret   string
	TTLHours int
	Issuer   string
}

// TokenConfigFromEnv reads the token settings. The secret is required; the
// lifetime defaults to 24 hours and the issuer to "module-builder".
func TokenConfigFromEnv() (*TokenConfig, error) {
	cfg := &TokenConfig{
		Secret:   os.Getenv(EnvTokenSecret),
		TTLHours: DefaultTokenTTLHours,
		Issuer:   strings.TrimSpace(os.Getenv(EnvTokenIssuer)),
	}
	if raw := strings.TrimSpace(os.Getenv(EnvTokenTTL)); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &EnvError{Var: EnvTokenTTL, Reason: fmt.Sprintf("%q is not a whole number of hours", raw)}
		}
		cfg.TTLHours = hours
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills the default issuer and checks the secret and lifetime.
func (c *TokenConfig) Validate() error {
	if c.Issuer == "" {
		c.Issuer = DefaultTokenIssuer
	}
	if c.Secret == "" {
		return &EnvError{Var: EnvTokenSecret, Reason: "required but not set"}
	}
	if c.TTLHours < 1 {
		return &EnvError{Var: EnvTokenTTL, Reason: fmt.Sprintf("must be at least 1 hour, got %d", c.TTLHours)}
	}
	return nil
}

// TTL is the lifetime of an issued token.
func (c *TokenConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}
