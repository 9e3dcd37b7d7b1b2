package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:              "8000",
		Env:               "development",
		JWTSecret:         "secure-secret-at-least-32-chars-long",
		DBDriver:          "sqlite",
		DBPassword:        "secure-password",
		DBSSLMode:         "require",
		PageSize:          10,
		IndexCacheSeconds: 20,
		MediaBackend:      "local",
		MediaRoot:         "media",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development config", func(_ *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, true},
		{"negative cache window", func(c *Config) { c.IndexCacheSeconds = -1 }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"minio without endpoint", func(c *Config) { c.MediaBackend = "minio"; c.MinioBucket = "b" }, true},
		{"minio configured", func(c *Config) {
			c.MediaBackend = "minio"
			c.MinioEndpoint = "localhost:9000"
			c.MinioBucket = "b"
		}, false},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production postgres without ssl", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBSSLMode = "disable"
		}, true},
		{"production postgres with ssl", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IndexCacheTTL(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 20*time.Second, c.IndexCacheTTL())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLITE ")
	t.Setenv("PAGINATION_NUMBER", "3")
	t.Setenv("MEDIA_URL", "/uploads")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 3, c.PageSize)
	assert.Equal(t, 20, c.IndexCacheSeconds)
	assert.Equal(t, "/uploads/", c.MediaURL)
	assert.Equal(t, "/auth/login/", c.LoginURL)
}
