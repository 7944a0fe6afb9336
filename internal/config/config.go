package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
)

// MinTokenKeyLength is the minimum number of characters accepted for the token signing key.
const MinTokenKeyLength = 64

// DefaultTokenTTL is the lifetime of issued bearer tokens when AUTH_TOKEN_TTL is unset.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines token issuance and validation parameters.
type AuthConfig struct {
	TokenKey         string
	TokenTTL         time.Duration
	Issuer           string
	Audience         string
	ValidateIssuer   bool
	ValidateAudience bool
	ClockSkew        time.Duration
	BcryptCost       int
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig throttles the login endpoint per client IP.
type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

// CacheConfig controls the Redis-backed read cache.
type CacheConfig struct {
	UsersTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenTTL, err := getEnvAsDuration("AUTH_TOKEN_TTL", DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	clockSkew, err := getEnvAsDuration("AUTH_CLOCK_SKEW", 0)
	if err != nil {
		return nil, err
	}
	usersTTL, err := getEnvAsDuration("CACHE_USERS_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "dating-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5001"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			TokenKey:         os.Getenv("AUTH_TOKEN_KEY"),
			TokenTTL:         tokenTTL,
			Issuer:           os.Getenv("AUTH_TOKEN_ISSUER"),
			Audience:         os.Getenv("AUTH_TOKEN_AUDIENCE"),
			ValidateIssuer:   getEnvAsBool("AUTH_VALIDATE_ISSUER", false),
			ValidateAudience: getEnvAsBool("AUTH_VALIDATE_AUDIENCE", false),
			ClockSkew:        clockSkew,
			BcryptCost:       getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:4200,https://localhost:4200")),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvAsInt("RATE_LIMIT_LOGIN_PER_MINUTE", 10),
			LoginBurst:     getEnvAsInt("RATE_LIMIT_LOGIN_BURST", 5),
		},
		Cache: CacheConfig{
			UsersTTL: usersTTL,
		},
	}

	return cfg, nil
}

// Validate reports every configuration problem that would prevent the server from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required"))
	}
	if err := c.Auth.ValidateTokenKey(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.Auth.ValidateIssuer && c.Auth.Issuer == "" {
		errs = append(errs, errors.New("AUTH_TOKEN_ISSUER is required when AUTH_VALIDATE_ISSUER is enabled"))
	}
	if c.Auth.ValidateAudience && c.Auth.Audience == "" {
		errs = append(errs, errors.New("AUTH_TOKEN_AUDIENCE is required when AUTH_VALIDATE_AUDIENCE is enabled"))
	}
	return errors.Join(errs...)
}

// ValidateTokenKey checks presence and strength of the signing key.
func (a AuthConfig) ValidateTokenKey() error {
	if a.TokenKey == "" {
		return errors.New("AUTH_TOKEN_KEY is required")
	}
	if n := utf8.RuneCountInString(a.TokenKey); n < MinTokenKeyLength {
		return fmt.Errorf("AUTH_TOKEN_KEY must be at least %d characters, got %d", MinTokenKeyLength, n)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// durations are strict: a typo in a token lifetime should not silently fall back
func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
