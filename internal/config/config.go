package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is only reachable outside the production posture. It exists
// so local development does not require secret management; it is not a
// security boundary.
const DevJWTSecret = "dev-insecure-jwt-secret-do-not-deploy"

type Config struct {
	Env                string
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	DatabaseURL        string
	DBMaxConns         int32
	DBMinConns         int32
	RedisAddr          string
	RedisPassword      string
	StoreTimeout       time.Duration
	JWTSecret          string
	JWTAccessTTL       time.Duration
	SessionTTL         time.Duration
	SessionSliding     bool
	RateLimitMax       int
	RateLimitWindow    time.Duration
	AuthRateLimitMax   int
	CORSOrigins        []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                strings.ToLower(getEnv("APP_ENV", "development")),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:         int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:         int32(getInt("DB_MIN_CONNS", 2)),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		StoreTimeout:       getDuration("STORE_TIMEOUT", 2*time.Second),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:       getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		SessionSliding:     getBool("SESSION_SLIDING", false),
		RateLimitMax:       getInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow:    getDuration("RATE_LIMIT_WINDOW", time.Minute),
		AuthRateLimitMax:   getInt("AUTH_RATE_LIMIT_MAX", 10),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		if c.Production() {
			return fmt.Errorf("JWT_SECRET is required when APP_ENV=production")
		}
		c.JWTSecret = DevJWTSecret
	}

	return nil
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// UsingDevSecret reports whether the insecure development signing key is in
// effect, so startup can log it loudly.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
