package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validProduction() *Config {
	return &Config{
		Env:           "production",
		Port:          "8080",
		JWTSecret:     "secure-secret-at-least-32-chars-long",
		JWTTTLHours:   168,
		StorageDriver: StoragePostgres,
		DBPassword:    "secure-password",
		DBSSLMode:     "require",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProduction()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionStrictness(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"default secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }},
		{"sqlite in production", func(c *Config) { c.StorageDriver = StorageSQLite }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProduction()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_ValidateStorageDriver(t *testing.T) {
	c := validProduction()
	c.Env = "development"
	for _, driver := range []string{StoragePostgres, StorageSQLite, StorageMemory} {
		c.StorageDriver = driver
		assert.NoError(t, c.Validate(), driver)
	}
	c.StorageDriver = "mongodb"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORAGE_DRIVER", " Memory ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, StorageMemory, c.StorageDriver)
	assert.Equal(t, "8375", c.Port)
	assert.Equal(t, "ai_suggestions=on,live_feed=on", c.FeatureFlags)
	assert.Equal(t, 168, c.JWTTTLHours)
	assert.True(t, c.SeedBuiltins)
}
