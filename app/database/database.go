// Package database opens the gorm connection used by the repositories.
package database

import (
	"fmt"
	"net"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DriverPGX talks to postgres through pgx (default).
	DriverPGX = "pgx"
	// DriverPQ talks to postgres through lib/pq.
	DriverPQ = "postgres"
	// DriverSQLite is used for local development and tests.
	DriverSQLite = "sqlite"
)

type Config struct {
	Driver string
	DSN    string
	Debug  bool
}

// Open connects to the configured database. A nil log falls back to the
// logrus standard logger.
func Open(cfg Config, log *logrus.Logger) (*gorm.DB, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", DriverPGX:
		dialector = postgres.Open(cfg.DSN)
	case DriverPQ:
		dialector = postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.DSN,
		})
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		// in-memory databases live and die with their connection
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// PostgresDSN builds a connection URL from discrete settings, escaping the
// credentials.
func PostgresDSN(user, password, host, port, name string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	return u.String()
}
