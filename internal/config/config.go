package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string
	AppVersion string
	Env        string
	Port       int
	DBURL      string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int

	AllowedOrigins []string
	// TrustedProxies are the peers whose X-Forwarded-For is believed. Empty
	// means the client IP is always the socket peer.
	TrustedProxies []string

	RateLimitPerMinute    int
	RateLimitAuthPer15Min int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTelEnabled  bool
	OTelEndpoint string

	MaxBodyBytes   int64
	MigrateOnStart bool

	SeedUserEmail    string
	SeedUserPassword string
}

// Load reads the process environment, after merging an optional .env file.
func Load() Config {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	return Config{
		AppName:    getEnv("APP_NAME", "SupplyLens Backend"),
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		Env:        getEnv("APP_ENV", "prod"),
		Port:       getEnvInt("PORT", 8080),
		DBURL:      getEnv("DATABASE_URL", buildDBURL()),

		JWTSecret:  os.Getenv("JWT_SECRET_KEY"),
		AccessTTL:  time.Duration(getEnvInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
		RefreshTTL: time.Duration(getEnvInt("JWT_REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		BcryptCost: getEnvInt("BCRYPT_ROUNDS", 12),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),

		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitAuthPer15Min: getEnvInt("RATE_LIMIT_AUTH_PER_15MIN", 5),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		SeedUserEmail:    os.Getenv("SEED_USER_EMAIL"),
		SeedUserPassword: os.Getenv("SEED_USER_PASSWORD"),
	}
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TOKEN_EXPIRE_DAYS must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_ROUNDS must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	return errors.Join(errs...)
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "supplylens")
	pass := getEnv("DB_PASSWORD", "supplylens")
	name := getEnv("DB_NAME", "supplylens")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a store call. A nil parent means context.Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean in environment, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
