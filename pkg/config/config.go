// Package config reads service settings from the environment, optionally seeded from a
// dotenv file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	OTEL      OTELConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// AllowedOrigins is a comma separated list, or "*"
	AllowedOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig points at the search cluster. An empty URL disables search indexing.
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

// RateLimitConfig bounds review writes per viewer
type RateLimitConfig struct {
	ReviewWrites int
	Window       time.Duration
}

type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load builds the configuration from environment variables. The dotenv file named by
// ENV_FILE (default .env) is read first when it exists; variables already set win.
// Malformed numbers, booleans and durations are reported together.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	e := &env{}
	cfg := &Config{
		Env: e.str("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "0.0.0.0"),
			Port:            e.integer("SERVER_PORT", 8080),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: e.duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  e.str("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:            e.str("DB_HOST", "localhost"),
			Port:            e.integer("DB_PORT", 5432),
			User:            e.str("DB_USER", "postgres"),
			Password:        e.str("DB_PASSWORD", ""),
			Database:        e.str("DB_NAME", "tastefull"),
			SSLMode:         e.str("DB_SSLMODE", "disable"),
			MaxOpenConns:    e.integer("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    e.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     e.str("REDIS_HOST", "localhost"),
			Port:     e.integer("REDIS_PORT", 6379),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.integer("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    e.str("TYPESENSE_URL", ""),
			APIKey: e.str("TYPESENSE_API_KEY", "xyz"),
		},
		Auth: AuthConfig{
			JWTSecret: e.str("AUTH_JWT_SECRET", ""),
			Issuer:    e.str("AUTH_JWT_ISSUER", ""),
			Audience:  e.str("AUTH_JWT_AUDIENCE", "authenticated"),
		},
		RateLimit: RateLimitConfig{
			ReviewWrites: e.integer("RATE_LIMIT_REVIEW_WRITES", 10),
			Window:       e.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    e.str("OTEL_SERVICE_NAME", "tastefull-api"),
			ServiceVersion: e.str("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       e.str("OTEL_ENDPOINT", ""),
			Enabled:        e.boolean("OTEL_ENABLED", false),
		},
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}

	if cfg.IsProduction() && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required in production")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseDSN returns the lib/pq key=value connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Typesense endpoint is configured
func (c *TypesenseConfig) Enabled() bool {
	return c.URL != ""
}

// env reads typed variables, falling back to defaults for unset or empty ones and
// collecting parse failures
type env struct {
	errs []error
}

func (e *env) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func lookup[T any](e *env, key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}

func (e *env) integer(key string, def int) int {
	return lookup(e, key, def, strconv.Atoi)
}

func (e *env) boolean(key string, def bool) bool {
	return lookup(e, key, def, strconv.ParseBool)
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	return lookup(e, key, def, time.ParseDuration)
}
