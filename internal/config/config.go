// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	RedisURL string `mapstructure:"REDIS_URL"`

	// PageSize is the number of posts on one listing page.
	PageSize          int    `mapstructure:"PAGINATION_NUMBER"`
	IndexCacheSeconds int    `mapstructure:"INDEX_CACHE_SECONDS"`
	LoginURL          string `mapstructure:"LOGIN_URL"`
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`

	MediaBackend         string `mapstructure:"MEDIA_BACKEND"`
	MediaRoot            string `mapstructure:"MEDIA_ROOT"`
	MediaURL             string `mapstructure:"MEDIA_URL"`
	ImageMaxUploadSizeMB int    `mapstructure:"IMAGE_MAX_UPLOAD_MB"`
	ImagePreviews        bool   `mapstructure:"IMAGE_PREVIEWS"`
	MinioEndpoint        string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey       string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey       string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket          string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL          bool   `mapstructure:"MINIO_USE_SSL"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:8000,http://127.0.0.1:8000")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "yatube")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "yatube")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "yatube.sqlite3")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("PAGINATION_NUMBER", 10)
	viper.SetDefault("INDEX_CACHE_SECONDS", 20)
	viper.SetDefault("LOGIN_URL", "/auth/login/")
	viper.SetDefault("SESSION_COOKIE_NAME", "sessionid")
	viper.SetDefault("MEDIA_BACKEND", "local")
	viper.SetDefault("MEDIA_ROOT", "media")
	viper.SetDefault("MEDIA_URL", "/media/")
	viper.SetDefault("IMAGE_MAX_UPLOAD_MB", 5)
	viper.SetDefault("IMAGE_PREVIEWS", false)
	viper.SetDefault("MINIO_BUCKET", "yatube-media")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.MediaBackend = strings.ToLower(strings.TrimSpace(c.MediaBackend))
	if c.MediaURL != "" && !strings.HasSuffix(c.MediaURL, "/") {
		c.MediaURL += "/"
	}
}

// IsProduction reports whether the config describes a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// IndexCacheTTL is how long a rendered home listing stays cached.
func (c *Config) IndexCacheTTL() time.Duration {
	return time.Duration(c.IndexCacheSeconds) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PageSize <= 0 {
		return errors.New("PAGINATION_NUMBER must be positive")
	}
	if c.IndexCacheSeconds < 0 {
		return errors.New("INDEX_CACHE_SECONDS must not be negative")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.MediaBackend {
	case "local":
		if c.MediaRoot == "" {
			return errors.New("MEDIA_ROOT is required for the local media backend")
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio media backend")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must not be 'disable' in production")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
