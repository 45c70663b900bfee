package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvTokenSecret, "test-secret-key")
	t.Setenv(EnvTokenTTL, "")
	t.Setenv(EnvTokenIssuer, "")

	cfg, err := TokenConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "test-secret-key", cfg.Secret)
	assert.Equal(t, DefaultTokenTTLHours, cfg.TTLHours)
	assert.Equal(t, DefaultTokenIssuer, cfg.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.TTL())
}

func TestTokenConfigFromEnv_TTL(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		want      int
		wantError string
	}{
		{name: "custom", value: "48", want: 48},
		{name: "padded", value: " 2 ", want: 2},
		{name: "zero", value: "0", wantError: "must be at least 1 hour"},
		{name: "negative", value: "-5", wantError: "must be at least 1 hour"},
		{name: "not a number", value: "soon", wantError: "not a whole number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvTokenSecret, "test-secret-key")
			t.Setenv(EnvTokenTTL, tt.value)

			cfg, err := TokenConfigFromEnv()
			if tt.wantError != "" {
				var envErr *EnvError
				require.ErrorAs(t, err, &envErr)
				assert.Equal(t, EnvTokenTTL, envErr.Var)
				assert.Contains(t, err.Error(), tt.wantError)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.TTLHours)
		})
	}
}

func TestTokenConfigFromEnv_Issuer(t *testing.T) {
	t.Setenv(EnvTokenSecret, "test-secret-key")
	t.Setenv(EnvTokenIssuer, "staging-host")

	cfg, err := TokenConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "staging-host", cfg.Issuer)
}

func TestTokenConfigFromEnv_MissingSecret(t *testing.T) {
	t.Setenv(EnvTokenSecret, "")

	cfg, err := TokenConfigFromEnv()
	assert.Nil(t, cfg)
	var envErr *EnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, EnvTokenSecret, envErr.Var)
	assert.EqualError(t, err, "JWT_SECRET: required but not set")
}

func TestTokenConfig_ValidateFillsIssuer(t *testing.T) {
	cfg := &TokenConfig{Secret: "s", TTLHours: 1}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultTokenIssuer, cfg.Issuer)
}
