package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the process configuration, read from the environment after an
// optional .env file.
type Config struct {
	Port     string
	LogLevel slog.Level

	StoreDriver       string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	PostgresDSN       string
	SQLitePath        string

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	AllowedOrigins []string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ListingCacheTTL time.Duration

	PasswordResetEnabled bool
	BodyLimitBytes       int64
}

// LoadEnvFile reads .env when present. A missing file is not an error.
func LoadEnvFile(logger *slog.Logger, paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
}

func Load() (Config, error) {
	cfg := Config{
		Port:     envString("PORT", "5000"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		StoreDriver:       strings.ToLower(envString("STORE_DRIVER", DriverMongo)),
		MongoURI:          firstEnv("MONGO_URI", "MONGOURI"),
		MongoDB:           envString("DB", "property_listing"),
		MongoTransactions: envBool("MONGO_TRANSACTIONS", false),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		SQLitePath:        envString("SQLITE_PATH", "property_listing.db"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		SessionTTL:   envDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure: envBool("COOKIE_SECURE", false),

		AllowedOrigins: envList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		ListingCacheTTL: envDuration("LISTING_CACHE_TTL", 10*time.Minute),

		PasswordResetEnabled: envBool("PASSWORD_RESET_ENABLED", true),
		BodyLimitBytes:       int64(envInt("BODY_LIMIT_BYTES", 50<<20)),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set in the environment"))
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI not set in environment"))
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN not set in environment"))
		}
	case DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func envString(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return fallback
	}
	return v
}

func envList(name string, fallback []string) []string {
	var out []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envLevel(name string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(name)))); err != nil {
		return fallback
	}
	return level
}
