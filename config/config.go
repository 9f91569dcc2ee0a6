// Package config reads the server settings from the environment, after
// loading a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mytheresa/inventory/app/database"
)

const (
	StorageR2   = "r2"
	StorageNATS = "nats"
)

type Config struct {
	HTTPAddr string

	DBDriver    string
	DatabaseURL string
	DBDebug     bool

	StorageBackend string
	R2             R2
	NATSURL        string
	NATSBucket     string

	RedisAddr string
	CacheTTL  time.Duration

	AuthSecret string
	SignInPath string

	DisplayCurrency string
	DisplayLocale   string
	MaxUploadBytes  int64

	LogLevel  string
	LogFormat string
}

type R2 struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	PublicURL       string
}

// Load reads the configuration. A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	} else if err != nil {
		logrus.Debug("no .env file found, using process environment")
	}

	cfg := Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DBDriver:        getEnv("DB_DRIVER", database.DriverPGX),
		DBDebug:         getEnvBool("DB_DEBUG", false),
		StorageBackend:  getEnv("STORAGE_BACKEND", StorageR2),
		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		NATSBucket:      getEnv("NATS_BUCKET", "product-images"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		AuthSecret:      os.Getenv("AUTH_SECRET"),
		SignInPath:      getEnv("SIGN_IN_PATH", "/auth/sign-in"),
		DisplayCurrency: getEnv("DISPLAY_CURRENCY", "USD"),
		DisplayLocale:   getEnv("DISPLAY_LOCALE", "en-US"),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 5<<20),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		R2: R2{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			Endpoint:        os.Getenv("R2_ENDPOINT"),
			PublicURL:       os.Getenv("R2_PUBLIC_URL"),
		},
	}
	cfg.DatabaseURL = databaseURL(cfg.DBDriver)

	return cfg, cfg.Validate()
}

func databaseURL(driver string) string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if driver == database.DriverSQLite {
		return getEnv("SQLITE_PATH", "inventory.db") + "?_foreign_keys=on"
	}
	return database.PostgresDSN(
		getEnv("POSTGRES_USER", "postgres"),
		os.Getenv("POSTGRES_PASSWORD"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "inventory"),
	)
}

func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case database.DriverPGX, database.DriverPQ, database.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	switch c.StorageBackend {
	case StorageR2:
		if c.R2.Bucket == "" {
			errs = append(errs, errors.New("R2_BUCKET_NAME is required"))
		}
		if c.R2.AccountID == "" && c.R2.Endpoint == "" {
			errs = append(errs, errors.New("R2_ACCOUNT_ID or R2_ENDPOINT is required"))
		}
	case StorageNATS:
		if c.NATSBucket == "" {
			errs = append(errs, errors.New("NATS_BUCKET is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend))
	}

	if c.AuthSecret == "" {
		errs = append(errs, errors.New("AUTH_SECRET is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) Logger() (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(c.LogFormat) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return log, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		logrus.Warnf("invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		logrus.Warnf("invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		logrus.Warnf("invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
