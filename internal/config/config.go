package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the QuizRoom API.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details and pool sizing.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// RedisConfig contains Redis connection details for the rate limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	TokenSecret     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// RateLimitConfig bounds unauthenticated auth-endpoint traffic per client IP.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
	Prefix  string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("QUIZROOM_API_HOST", "0.0.0.0"),
			Port:         getInt("QUIZROOM_API_PORT", 8080),
			ReadTimeout:  getDuration("QUIZROOM_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("QUIZROOM_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("QUIZROOM_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "quizroom_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "quizroom"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
			MaxConns: getInt("POSTGRES_MAX_CONNS", 10),
			MinConns: getInt("POSTGRES_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", "localhost:6379"),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Auth: loadAuthConfig(),
		RateLimit: RateLimitConfig{
			Enabled: getBool("QUIZROOM_RATELIMIT_ENABLED", true),
			Limit:   getInt("QUIZROOM_RATELIMIT_LIMIT", 20),
			Window:  getDuration("QUIZROOM_RATELIMIT_WINDOW", time.Minute),
			Prefix:  getString("QUIZROOM_RATELIMIT_PREFIX", "quizroom:rl"),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("QUIZROOM_METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("QUIZROOM_AUTH_BCRYPT_COST", 12)
	if cost < 10 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		TokenSecret:     getString("QUIZROOM_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		AccessTokenTTL:  getDuration("QUIZROOM_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("QUIZROOM_AUTH_REFRESH_TOKEN_TTL", 168*time.Hour),
		BcryptCost:      cost,
	}
}
