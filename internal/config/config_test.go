package config

import (
	"errors"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseWith(vars map[string]string) (*Config, error) {
	return Parse(env.Options{Environment: vars})
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := parseWith(map[string]string{"SECRET_KEY": "k"})
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.Security.SecretKey)
	assert.Equal(t, 168*time.Hour, cfg.Security.ExpiresIn)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "sqlite://data/cms.db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestParse_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := parseWith(map[string]string{
		"SECRET_KEY":       "k",
		"TOKEN_EXPIRES_IN": "30m",
		"KAFKA_BROKERS":    "a:9092,b:9092",
		"DATABASE_URL":     "postgres://u:p@localhost:5432/cms",
	})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Security.ExpiresIn)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "postgres://u:p@localhost:5432/cms", cfg.DatabaseURL)
}

func TestParse_FailsFast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		key  string
	}{
		{name: "missing secret", vars: map[string]string{}, key: "SECRET_KEY"},
		{name: "zero expiry", vars: map[string]string{"SECRET_KEY": "k", "TOKEN_EXPIRES_IN": "0s"}, key: "TOKEN_EXPIRES_IN"},
		{name: "negative expiry", vars: map[string]string{"SECRET_KEY": "k", "TOKEN_EXPIRES_IN": "-1h"}, key: "TOKEN_EXPIRES_IN"},
		{name: "bad duration", vars: map[string]string{"SECRET_KEY": "k", "TOKEN_EXPIRES_IN": "7d"}, key: "env"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := parseWith(tt.vars)
			require.Error(t, err)
			assert.Nil(t, cfg)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}
