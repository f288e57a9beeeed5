// config.go

// Environment variable loading and fail-fast validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all env configuration for the API.
type Config struct {
	DatabaseURL string
	// RedisURL is optional -- empty disables rate limiting.
	RedisURL string
	Port     string
	LogLevel slog.Level

	// CORSAllowedOrigins is the comma-separated list of origins allowed to
	// call the API with credentials.
	CORSAllowedOrigins []string

	// CSRF configuration. Both secrets are required and must be at least
	// 32 characters; startup fails otherwise.
	CSRFSecret           string
	CookieSecret         string
	CSRFTokenPath        string        // default /api/v1/auth/csrf
	CSRFTokenTTL         time.Duration // default 2h
	CSRFProtectedMethods []string      // default POST,PUT,PATCH,DELETE
	CookieSecure         bool          // default true; set COOKIE_SECURE=false for plain-HTTP dev
	CookieDomain         string

	// Rate limit policy applied per client IP across the whole API.
	// Defaults: max=100, window=15m.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// minSecretLen is the floor for both signing secrets. Shorter keys weaken
// the HMAC constructions they feed, so they are rejected outright.
const minSecretLen = 32

// Load reads a .env file if present, then the environment, and returns a
// validated Config. Missing or weak secrets are a startup error, never a
// logged warning.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "4000"
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		origins = "http://localhost:3000"
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.CSRFSecret = os.Getenv("CSRF_SECRET")
	if len(cfg.CSRFSecret) < minSecretLen {
		return nil, fmt.Errorf("CSRF_SECRET must be set and at least %d characters", minSecretLen)
	}
	cfg.CookieSecret = os.Getenv("COOKIE_SECRET")
	if len(cfg.CookieSecret) < minSecretLen {
		return nil, fmt.Errorf("COOKIE_SECRET must be set and at least %d characters", minSecretLen)
	}

	cfg.CSRFTokenPath = os.Getenv("CSRF_TOKEN_PATH")
	if cfg.CSRFTokenPath == "" {
		cfg.CSRFTokenPath = "/api/v1/auth/csrf"
	}
	cfg.CSRFTokenTTL = envDuration("CSRF_TOKEN_TTL", 2*time.Hour)

	methods := os.Getenv("CSRF_PROTECTED_METHODS")
	if methods == "" {
		methods = "POST,PUT,PATCH,DELETE"
	}
	for _, m := range strings.Split(methods, ",") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			cfg.CSRFProtectedMethods = append(cfg.CSRFProtectedMethods, m)
		}
	}

	// Default true -- only explicit "false" disables.
	cfg.CookieSecure = os.Getenv("COOKIE_SECURE") != "false"
	cfg.CookieDomain = os.Getenv("COOKIE_DOMAIN")

	cfg.RateLimitMax = envInt("RATE_LIMIT_MAX", 100)
	cfg.RateLimitWindow = envDuration("RATE_LIMIT_WINDOW", 15*time.Minute)

	return cfg, nil
}

// envInt reads an env var as int, returning def if missing or unparseable.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// envDuration reads an env var as time.Duration, returning def if missing or unparseable.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
