// internal/config/config.go
//
// Runtime configuration for the Hangman server.
// Everything comes from the environment (optionally seeded from .env by
// godotenv in main) with development-friendly defaults.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevJWTSecret is the fallback signing secret; refused when APP_ENV=production.
const DevJWTSecret = "dev_secret_change_me"

// Config is the resolved server configuration.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string // "json" | "console"
	AppEnv    string

	DBDriver string // sqlite3 | postgres | mysql
	DBDSN    string

	StoreBackend string // memory | redis
	RedisURL     string
	GameTTL      time.Duration

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string

	RequestTimeout time.Duration
	OTLPEndpoint   string
}

// Load reads the environment.
func Load() (Config, error) {
	c := Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		AppEnv:       getEnv("APP_ENV", "development"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:        getEnv("DB_DSN", "./data/hangman.db"),
		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:    getEnv("JWT_SECRET", DevJWTSecret),
		CookieName:   getEnv("COOKIE_NAME", "hangman_token"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if c.JWTExpiresDays, err = getInt("JWT_EXPIRES_DAYS", 14); err != nil {
		return Config{}, err
	}
	if c.GameTTL, err = getDuration("GAME_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if c.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Production reports whether APP_ENV selects production cookie and secret rules.
func (c Config) Production() bool { return strings.EqualFold(c.AppEnv, "production") }

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "sqlite3", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver))
	}
	switch c.StoreBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unsupported backend %q", c.StoreBackend))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN: required"))
	}
	if c.Production() && c.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET: must be set in production"))
	}
	if c.JWTExpiresDays <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_DAYS: must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT: must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

// getDuration accepts Go durations ("90s") or bare seconds ("90").
func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
